package timeseries

import (
	"math"
	"sort"
	"time"

	"malti-dashboard/internal/model"
)

// DefaultInterval is used when the interval cannot be inferred from the data.
const DefaultInterval = 5 * time.Minute

// IntervalFor returns the bucket width the backend uses for a window.
func IntervalFor(window time.Duration) time.Duration {
	switch {
	case window <= time.Hour:
		return time.Minute
	case window <= 24*time.Hour:
		return 5 * time.Minute
	default:
		return time.Hour
	}
}

// InferInterval returns the most frequent gap between consecutive distinct
// timestamps. Ties go to the larger gap.
func InferInterval(times []time.Time) time.Duration {
	distinct := make(map[int64]struct{}, len(times))
	for _, t := range times {
		distinct[t.UnixMilli()] = struct{}{}
	}
	if len(distinct) < 2 {
		return DefaultInterval
	}

	sorted := make([]int64, 0, len(distinct))
	for ms := range distinct {
		sorted = append(sorted, ms)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	counts := make(map[int64]int)
	for i := 1; i < len(sorted); i++ {
		counts[sorted[i]-sorted[i-1]]++
	}

	var best int64
	bestCount := 0
	for gap, n := range counts {
		if n > bestCount || (n == bestCount && gap > best) {
			best, bestCount = gap, n
		}
	}
	return time.Duration(best) * time.Millisecond
}

// Bucketize turns sparse rows into an evenly spaced, gap-filled series.
//
// With a window the series covers the ceil(window/interval) buckets ending at
// the bucket that contains now. Without one it starts at the earliest row.
// Rows falling outside the grid are kept so the request total is preserved.
func Bucketize(rows []model.MetricRow, window model.TimeRange, now time.Time) []model.SeriesPoint {
	times := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		if !r.Bucket.IsZero() {
			times = append(times, r.Bucket)
		}
	}
	if window.IsZero() && len(times) == 0 {
		return nil
	}

	var interval time.Duration
	if window.IsZero() {
		interval = InferInterval(times)
	} else {
		interval = IntervalFor(window.Duration)
	}

	step := interval.Milliseconds()
	end := floorMillis(now.UnixMilli(), step)

	var start int64
	if window.IsZero() {
		start = end
		for _, t := range times {
			if k := floorMillis(t.UnixMilli(), step); k < start {
				start = k
			}
		}
	} else {
		n := int64(math.Ceil(float64(window.Duration) / float64(interval)))
		start = end - (n-1)*step
	}

	buckets := make(map[int64]*accumulator)
	for _, r := range rows {
		if r.Bucket.IsZero() {
			continue
		}
		key := floorMillis(r.Bucket.UnixMilli(), step)
		acc, ok := buckets[key]
		if !ok {
			acc = &accumulator{}
			buckets[key] = acc
		}
		acc.add(r)
	}

	for ts := start; ts <= end; ts += step {
		if _, ok := buckets[ts]; !ok {
			buckets[ts] = &accumulator{}
		}
	}

	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]model.SeriesPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, buckets[k].point(time.UnixMilli(k).UTC()))
	}
	return out
}

type accumulator struct {
	totalRequests   int64
	weightedLatency float64
	min             *float64
	max             *float64
	p95             *float64
}

func (a *accumulator) add(r model.MetricRow) {
	a.totalRequests += r.Count
	if r.Count <= 0 {
		return
	}
	a.weightedLatency += r.AvgResponseTime * float64(r.Count)
	a.min = pick(a.min, r.MinResponseTime, math.Min)
	a.max = pick(a.max, r.MaxResponseTime, math.Max)
	a.p95 = pick(a.p95, r.P95ResponseTime, math.Max)
}

func (a *accumulator) point(ts time.Time) model.SeriesPoint {
	p := model.SeriesPoint{Timestamp: ts, TotalRequests: a.totalRequests}
	if a.totalRequests <= 0 {
		return p
	}
	p.AvgLatency = model.Float(a.weightedLatency / float64(a.totalRequests))
	p.MinLatency = a.min
	p.MaxLatency = a.max
	p.P95Latency = a.p95
	return p
}

func pick(cur, v *float64, f func(a, b float64) float64) *float64 {
	if v == nil {
		return cur
	}
	if cur == nil {
		return model.Float(*v)
	}
	return model.Float(f(*cur, *v))
}

func floorMillis(ms, step int64) int64 {
	q := ms / step
	if ms%step != 0 && ms < 0 {
		q--
	}
	return q * step
}
