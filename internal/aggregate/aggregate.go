// Package aggregate collapses metric rows into the grouped summaries shown
// next to the latency chart. Every function is pure and returns results in a
// deterministic order.
package aggregate

import (
	"sort"

	"malti-dashboard/internal/model"
)

// IsError reports whether a status counts as a service fault. 401 is an
// expected authentication challenge and never counts.
func IsError(status int) bool {
	return status >= 400 && status != 401
}

// ErrorRate returns errors as a percentage of total, 0 when total is 0.
func ErrorRate(errors, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(errors) / float64(total) * 100
}

func percentOf(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// ByConsumer groups rows by consumer, busiest first. Rows without a consumer
// are skipped.
func ByConsumer(rows []model.MetricRow) []model.ConsumerSummary {
	index := make(map[string]int)
	var out []model.ConsumerSummary

	for _, r := range rows {
		if r.Consumer == "" {
			continue
		}
		i, ok := index[r.Consumer]
		if !ok {
			i = len(out)
			index[r.Consumer] = i
			out = append(out, model.ConsumerSummary{Consumer: r.Consumer})
		}
		out[i].TotalRequests += r.Count
		if IsError(r.Status) {
			out[i].ErrorCount += r.Count
		}
	}

	FinalizeConsumers(out)
	return out
}

// FinalizeConsumers recomputes error rates and traffic shares and sorts in
// place. It is also applied to server-supplied consumer lists.
func FinalizeConsumers(out []model.ConsumerSummary) {
	var all int64
	for i := range out {
		all += out[i].TotalRequests
	}
	for i := range out {
		out[i].ErrorRate = ErrorRate(out[i].ErrorCount, out[i].TotalRequests)
		out[i].Share = percentOf(out[i].TotalRequests, all)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalRequests != out[j].TotalRequests {
			return out[i].TotalRequests > out[j].TotalRequests
		}
		return out[i].Consumer < out[j].Consumer
	})
}

// ByEndpoint groups rows by method and endpoint, busiest first. The service
// is taken from the first row seen for the pair.
func ByEndpoint(rows []model.MetricRow) []model.EndpointSummary {
	type key struct{ method, endpoint string }
	index := make(map[key]int)
	var out []model.EndpointSummary

	for _, r := range rows {
		k := key{r.Method, r.Endpoint}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, model.EndpointSummary{Method: r.Method, Endpoint: r.Endpoint, Service: r.Service})
		}
		out[i].TotalRequests += r.Count
		if IsError(r.Status) {
			out[i].ErrorCount += r.Count
		}
	}

	FinalizeEndpoints(out)
	return out
}

// FinalizeEndpoints recomputes error rates and relative load and sorts in
// place. It is also applied to server-supplied endpoint lists.
func FinalizeEndpoints(out []model.EndpointSummary) {
	var busiest int64
	for i := range out {
		out[i].ErrorRate = ErrorRate(out[i].ErrorCount, out[i].TotalRequests)
		if out[i].TotalRequests > busiest {
			busiest = out[i].TotalRequests
		}
	}
	for i := range out {
		out[i].RelativeLoad = percentOf(out[i].TotalRequests, busiest)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalRequests != out[j].TotalRequests {
			return out[i].TotalRequests > out[j].TotalRequests
		}
		if out[i].Endpoint != out[j].Endpoint {
			return out[i].Endpoint < out[j].Endpoint
		}
		return out[i].Method < out[j].Method
	})
}

// StatusDistribution groups rows by service and status code. Services are
// ordered busiest first, codes ascend within a service.
func StatusDistribution(rows []model.MetricRow) []model.ServiceStatus {
	index := make(map[string]int)
	codes := make([]map[int]int64, 0)
	var out []model.ServiceStatus

	for _, r := range rows {
		i, ok := index[r.Service]
		if !ok {
			i = len(out)
			index[r.Service] = i
			out = append(out, model.ServiceStatus{Service: r.Service})
			codes = append(codes, make(map[int]int64))
		}
		codes[i][r.Status] += r.Count

		s := &out[i]
		s.TotalRequests += r.Count
		switch {
		case r.Status >= 200 && r.Status < 300:
			s.Success2xx += r.Count
		case r.Status >= 300 && r.Status < 400:
			s.Warning3xx += r.Count
		case r.Status >= 400 && r.Status < 600:
			s.Error4xx5xx += r.Count
		}
		if IsError(r.Status) {
			s.ErrorCount += r.Count
		}
	}

	for i := range out {
		breakdown := make([]model.StatusCount, 0, len(codes[i]))
		for code, n := range codes[i] {
			breakdown = append(breakdown, model.StatusCount{Status: code, Count: n})
		}
		sort.Slice(breakdown, func(a, b int) bool { return breakdown[a].Status < breakdown[b].Status })
		out[i].StatusBreakdown = breakdown
	}
	FinalizeStatusDistribution(out)
	return out
}

// FinalizeStatusDistribution orders services busiest first.
func FinalizeStatusDistribution(out []model.ServiceStatus) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalRequests != out[j].TotalRequests {
			return out[i].TotalRequests > out[j].TotalRequests
		}
		return out[i].Service < out[j].Service
	})
}

// Overview computes the headline totals. AvgLatency is nil without traffic.
func Overview(rows []model.MetricRow) model.Overview {
	var o model.Overview
	var weighted float64
	for _, r := range rows {
		o.TotalRequests += r.Count
		if IsError(r.Status) {
			o.TotalErrors += r.Count
		}
		if r.Count > 0 {
			weighted += r.AvgResponseTime * float64(r.Count)
		}
	}
	o.ErrorRate = ErrorRate(o.TotalErrors, o.TotalRequests)
	if o.TotalRequests > 0 {
		o.AvgLatency = model.Float(weighted / float64(o.TotalRequests))
	}
	return o
}

// Summary computes the card values across all rows. Extremes only come from
// rows that carried traffic.
func Summary(rows []model.MetricRow) model.MetricsSummary {
	var s model.MetricsSummary
	var weighted float64
	for _, r := range rows {
		s.TotalRequests += r.Count
		if r.Count <= 0 {
			continue
		}
		weighted += r.AvgResponseTime * float64(r.Count)
		s.MinLatency = lower(s.MinLatency, r.MinResponseTime)
		s.MaxLatency = higher(s.MaxLatency, r.MaxResponseTime)
		s.P95Latency = higher(s.P95Latency, r.P95ResponseTime)
	}
	if s.TotalRequests > 0 {
		s.AvgLatency = model.Float(weighted / float64(s.TotalRequests))
	}
	return s
}

func lower(cur, v *float64) *float64 {
	if v == nil || (cur != nil && *cur <= *v) {
		return cur
	}
	return model.Float(*v)
}

func higher(cur, v *float64) *float64 {
	if v == nil || (cur != nil && *cur >= *v) {
		return cur
	}
	return model.Float(*v)
}
