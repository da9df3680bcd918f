package model

import "time"

// WireVariant identifies which aggregate response shape a snapshot came from.
type WireVariant string

const (
	// WireFlatV1 is a top-level JSON array of metric rows.
	WireFlatV1 WireVariant = "flat_v1"
	// WireStructuredV2 is an object with time_series, endpoints,
	// status_distribution, consumers, system_overview and metrics_summary.
	WireStructuredV2 WireVariant = "structured_v2"
)

// MetricRow is one server-reported aggregate for a bucket and tag combination.
// AvgResponseTime is zero when the server sent null; the other latency fields
// are nil when absent.
type MetricRow struct {
	Bucket          time.Time
	Count           int64
	AvgResponseTime float64
	MinResponseTime *float64
	MaxResponseTime *float64
	P95ResponseTime *float64

	Service  string
	Node     string
	Endpoint string
	Method   string
	Consumer string
	Context  string
	Status   int
}

// TimeRange is the requested window. The zero value means the window is
// unknown and the bucket interval has to be inferred from the data.
type TimeRange struct {
	Duration time.Duration
}

// Hours builds a TimeRange spanning n hours.
func Hours(n int) TimeRange {
	return TimeRange{Duration: time.Duration(n) * time.Hour}
}

// IsZero reports whether no window was given.
func (r TimeRange) IsZero() bool {
	return r.Duration <= 0
}

// SeriesPoint is one chart-ready bucket. Nil latencies mean no traffic in the
// bucket, which is distinct from a measured zero.
type SeriesPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	TotalRequests int64     `json:"total_requests"`
	AvgLatency    *float64  `json:"avg_latency"`
	MinLatency    *float64  `json:"min_latency"`
	MaxLatency    *float64  `json:"max_latency"`
	P95Latency    *float64  `json:"p95_latency"`
}

// Snapshot is the canonical form of one aggregate response. Pre-aggregated
// sections are only set when the server supplied them.
type Snapshot struct {
	Variant WireVariant
	Rows    []MetricRow

	Summary            *MetricsSummary
	Overview           *Overview
	Endpoints          []EndpointSummary
	Consumers          []ConsumerSummary
	StatusDistribution []ServiceStatus
	Nodes              []string
	Contexts           []string
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
