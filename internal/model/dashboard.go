package model

import (
	"time"

	"malti-dashboard/internal/status"
)

// EndpointSummary groups traffic by method and endpoint.
type EndpointSummary struct {
	Method        string       `json:"method"`
	Endpoint      string       `json:"endpoint"`
	Service       string       `json:"service"`
	TotalRequests int64        `json:"total_requests"`
	ErrorCount    int64        `json:"error_count"`
	ErrorRate     float64      `json:"error_rate"`
	RelativeLoad  float64      `json:"relative_load"`
	Level         status.Level `json:"level,omitempty"`
}

// ConsumerSummary groups traffic by API consumer.
type ConsumerSummary struct {
	Consumer      string       `json:"consumer"`
	TotalRequests int64        `json:"total_requests"`
	ErrorCount    int64        `json:"error_count"`
	ErrorRate     float64      `json:"error_rate"`
	Share         float64      `json:"share"`
	Level         status.Level `json:"level,omitempty"`
}

// StatusCount is the request count for one status code within a service.
type StatusCount struct {
	Status int          `json:"status"`
	Count  int64        `json:"count"`
	Level  status.Level `json:"level,omitempty"`
}

// ServiceStatus is the status code distribution of one service.
type ServiceStatus struct {
	Service         string        `json:"service"`
	TotalRequests   int64         `json:"total_requests"`
	Success2xx      int64         `json:"success_2xx"`
	Warning3xx      int64         `json:"warning_3xx"`
	Error4xx5xx     int64         `json:"error_4xx_5xx"`
	ErrorCount      int64         `json:"error_count"`
	StatusBreakdown []StatusCount `json:"status_breakdown"`
}

// Overview is the headline system health.
type Overview struct {
	TotalRequests  int64        `json:"total_requests"`
	TotalErrors    int64        `json:"total_errors"`
	ErrorRate      float64      `json:"error_rate"`
	AvgLatency     *float64     `json:"avg_latency"`
	ErrorRateLevel status.Level `json:"error_rate_level,omitempty"`
	LatencyLevel   status.Level `json:"latency_level,omitempty"`
	Level          status.Level `json:"level,omitempty"`
}

// MetricsSummary feeds the metric cards.
type MetricsSummary struct {
	TotalRequests int64    `json:"total_requests"`
	AvgLatency    *float64 `json:"avg_latency"`
	MinLatency    *float64 `json:"min_latency"`
	MaxLatency    *float64 `json:"max_latency"`
	P95Latency    *float64 `json:"p95_latency"`
}

// FilterOptions lists the values offered by the filter panel.
type FilterOptions struct {
	Services         []string            `json:"services"`
	Nodes            []string            `json:"nodes"`
	Endpoints        []string            `json:"endpoints"`
	Methods          []string            `json:"methods"`
	Contexts         []string            `json:"contexts"`
	EndpointContexts map[string][]string `json:"endpoint_contexts"`
}

// Card is one metric card with its sparkline. Sparkline entries are nil where
// the series had no traffic.
type Card struct {
	Title     string       `json:"title"`
	Value     *float64     `json:"value"`
	Unit      string       `json:"unit,omitempty"`
	Level     status.Level `json:"level,omitempty"`
	Sparkline []*float64   `json:"sparkline"`
}

// DashboardMeta echoes the window the dashboard was built for.
type DashboardMeta struct {
	Start    string         `json:"start"`
	End      string         `json:"end"`
	Hours    int            `json:"hours"`
	Interval string         `json:"interval"`
	Realtime bool           `json:"realtime"`
	Variant  WireVariant    `json:"variant"`
	Filters  map[string]any `json:"filters,omitempty"`
}

// Dashboard is everything the page needs for one render.
type Dashboard struct {
	Meta               DashboardMeta     `json:"meta"`
	Empty              bool              `json:"empty"`
	Overview           Overview          `json:"overview"`
	Summary            MetricsSummary    `json:"summary"`
	Cards              []Card            `json:"cards"`
	TimeSeries         []SeriesPoint     `json:"time_series"`
	Endpoints          []EndpointSummary `json:"endpoints"`
	StatusDistribution []ServiceStatus   `json:"status_distribution"`
	Consumers          []ConsumerSummary `json:"consumers"`
	Filters            FilterOptions     `json:"filters"`
	Thresholds         status.Thresholds `json:"thresholds"`
}

// DashboardQuery is the user selection that drives one dashboard build.
type DashboardQuery struct {
	Hours    int
	Service  string
	Node     string
	Endpoint string
	Method   string
	Context  string
}

// Unfiltered reports whether no tag filter is set.
func (q DashboardQuery) Unfiltered() bool {
	return q.Service == "" && q.Node == "" && q.Endpoint == "" && q.Method == "" && q.Context == ""
}

// MetricsQuery is the upstream aggregate request.
type MetricsQuery struct {
	Start    time.Time
	End      time.Time
	Realtime bool
	Service  string
	Node     string
	Endpoint string
	Method   string
	Context  string
}

// TimeRangeOption is one entry of the time range selector.
type TimeRangeOption struct {
	Label      string `json:"label"`
	ShortLabel string `json:"short_label"`
	Hours      int    `json:"hours"`
}

// TimeRanges returns the selectable windows, shortest first.
func TimeRanges() []TimeRangeOption {
	return []TimeRangeOption{
		{Label: "Last hour", ShortLabel: "1h", Hours: 1},
		{Label: "Last 6 hours", ShortLabel: "6h", Hours: 6},
		{Label: "Last 24 hours", ShortLabel: "24h", Hours: 24},
		{Label: "Last 7 days", ShortLabel: "7d", Hours: 24 * 7},
		{Label: "Last 30 days", ShortLabel: "30d", Hours: 24 * 30},
		{Label: "Last 3 months", ShortLabel: "3m", Hours: 24 * 30 * 3},
		{Label: "Last 6 months", ShortLabel: "6m", Hours: 24 * 30 * 6},
		{Label: "Last 1 year", ShortLabel: "1y", Hours: 24 * 365},
	}
}
