package repository

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"malti-dashboard/internal/aggregate"
	"malti-dashboard/internal/model"
)

// ErrInvalidResponse is returned when an aggregate response is not JSON or
// has neither known shape.
var ErrInvalidResponse = errors.New("invalid metrics response")

var bucketLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseAggregate normalises both known aggregate wire shapes into a Snapshot.
//
// flat_v1 is a top-level array of rows. structured_v2 is an object whose
// time_series entries become rows and whose other sections are kept as
// server-side pre-aggregates. Missing or null numbers become zero or absent.
func ParseAggregate(body []byte) (model.Snapshot, error) {
	if !gjson.ValidBytes(body) {
		return model.Snapshot{}, ErrInvalidResponse
	}

	root := gjson.ParseBytes(body)
	switch {
	case root.Type == gjson.Null:
		return model.Snapshot{Variant: model.WireFlatV1}, nil
	case root.IsArray():
		return model.Snapshot{Variant: model.WireFlatV1, Rows: parseRows(root)}, nil
	case root.IsObject():
		return parseStructured(root), nil
	default:
		return model.Snapshot{}, ErrInvalidResponse
	}
}

func parseStructured(root gjson.Result) model.Snapshot {
	s := model.Snapshot{
		Variant:  model.WireStructuredV2,
		Rows:     parseRows(root.Get("time_series")),
		Nodes:    parseStrings(root.Get("distinct_nodes")),
		Contexts: parseStrings(root.Get("distinct_contexts")),
	}

	if v := root.Get("metrics_summary"); v.IsObject() {
		s.Summary = &model.MetricsSummary{
			TotalRequests: intField(v, "total_requests"),
			AvgLatency:    floatField(v, "avg_latency"),
			MinLatency:    floatField(v, "min_latency"),
			MaxLatency:    floatField(v, "max_latency"),
			P95Latency:    floatField(v, "p95_latency"),
		}
	}

	if v := root.Get("system_overview"); v.IsObject() {
		s.Overview = &model.Overview{
			TotalRequests: intField(v, "total_requests"),
			TotalErrors:   intField(v, "total_errors"),
			ErrorRate:     valueOrZero(floatField(v, "error_rate")),
			AvgLatency:    floatField(v, "avg_latency"),
		}
	}

	if v := root.Get("endpoints"); v.IsArray() {
		s.Endpoints = []model.EndpointSummary{}
		v.ForEach(func(_, e gjson.Result) bool {
			s.Endpoints = append(s.Endpoints, model.EndpointSummary{
				Method:        e.Get("method").String(),
				Endpoint:      e.Get("endpoint").String(),
				Service:       e.Get("service").String(),
				TotalRequests: intField(e, "total_requests", "count_requests"),
				ErrorCount:    intField(e, "error_count"),
			})
			return true
		})
	}

	if v := root.Get("consumers"); v.IsArray() {
		s.Consumers = []model.ConsumerSummary{}
		v.ForEach(func(_, c gjson.Result) bool {
			s.Consumers = append(s.Consumers, model.ConsumerSummary{
				Consumer:      c.Get("consumer").String(),
				TotalRequests: intField(c, "total_requests", "count_requests"),
				ErrorCount:    intField(c, "error_count"),
			})
			return true
		})
	}

	if v := root.Get("status_distribution"); v.IsArray() {
		s.StatusDistribution = []model.ServiceStatus{}
		v.ForEach(func(_, d gjson.Result) bool {
			s.StatusDistribution = append(s.StatusDistribution, parseServiceStatus(d))
			return true
		})
	}

	return s
}

func parseServiceStatus(d gjson.Result) model.ServiceStatus {
	st := model.ServiceStatus{
		Service:       d.Get("service").String(),
		TotalRequests: intField(d, "total_requests"),
		Success2xx:    intField(d, "success_2xx"),
		Warning3xx:    intField(d, "warning_3xx"),
		Error4xx5xx:   intField(d, "error_4xx_5xx"),
	}

	breakdown := d.Get("status_breakdown")
	switch {
	case breakdown.IsObject():
		breakdown.ForEach(func(k, v gjson.Result) bool {
			if code, err := strconv.Atoi(k.String()); err == nil {
				st.StatusBreakdown = append(st.StatusBreakdown, model.StatusCount{Status: code, Count: toInt(v)})
			}
			return true
		})
	case breakdown.IsArray():
		breakdown.ForEach(func(_, v gjson.Result) bool {
			st.StatusBreakdown = append(st.StatusBreakdown, model.StatusCount{
				Status: int(intField(v, "status")),
				Count:  intField(v, "count", "count_requests", "total_requests"),
			})
			return true
		})
	}
	sort.Slice(st.StatusBreakdown, func(i, j int) bool {
		return st.StatusBreakdown[i].Status < st.StatusBreakdown[j].Status
	})

	for _, c := range st.StatusBreakdown {
		if aggregate.IsError(c.Status) {
			st.ErrorCount += c.Count
		}
	}
	if st.StatusBreakdown == nil {
		st.StatusBreakdown = []model.StatusCount{}
	}
	return st
}

func parseRows(list gjson.Result) []model.MetricRow {
	if !list.IsArray() {
		return nil
	}
	rows := make([]model.MetricRow, 0, len(list.Array()))
	list.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			rows = append(rows, parseRow(item))
		}
		return true
	})
	return rows
}

func parseRow(item gjson.Result) model.MetricRow {
	return model.MetricRow{
		Bucket:          parseBucket(item.Get("bucket")),
		Count:           intField(item, "count_requests", "total_requests"),
		AvgResponseTime: valueOrZero(floatField(item, "avg_response_time", "avg_latency")),
		MinResponseTime: floatField(item, "min_response_time", "min_latency"),
		MaxResponseTime: floatField(item, "max_response_time", "max_latency"),
		P95ResponseTime: floatField(item, "p95_response_time", "p95_latency", "p95"),
		Service:         item.Get("service").String(),
		Node:            item.Get("node").String(),
		Endpoint:        item.Get("endpoint").String(),
		Method:          item.Get("method").String(),
		Consumer:        item.Get("consumer").String(),
		Context:         item.Get("context").String(),
		Status:          int(intField(item, "status")),
	}
}

func parseBucket(v gjson.Result) time.Time {
	if v.Type != gjson.String {
		return time.Time{}
	}
	raw := strings.TrimSpace(v.String())
	for _, layout := range bucketLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseStrings(list gjson.Result) []string {
	if !list.IsArray() {
		return nil
	}
	out := []string{}
	list.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String && v.String() != "" {
			out = append(out, v.String())
		}
		return true
	})
	return out
}

// lookup returns the first present, non-null field among keys.
func lookup(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func floatField(obj gjson.Result, keys ...string) *float64 {
	v := lookup(obj, keys...)
	switch v.Type {
	case gjson.Number:
		return model.Float(v.Float())
	case gjson.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64); err == nil {
			return model.Float(f)
		}
	}
	return nil
}

func intField(obj gjson.Result, keys ...string) int64 {
	return toInt(lookup(obj, keys...))
}

func toInt(v gjson.Result) int64 {
	switch v.Type {
	case gjson.Number:
		if n := v.Int(); n > 0 {
			return n
		}
	case gjson.String:
		if n, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
