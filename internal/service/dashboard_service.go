package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"malti-dashboard/internal/aggregate"
	"malti-dashboard/internal/instrumentation"
	"malti-dashboard/internal/model"
	"malti-dashboard/internal/repository"
	"malti-dashboard/internal/status"
	"malti-dashboard/internal/timeseries"
)

// maxHours caps the window at the longest selectable range.
const maxHours = 24 * 365

// ValidationError represents user input issues.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ThresholdSource provides the thresholds in effect for the current session.
type ThresholdSource interface {
	Thresholds() status.Thresholds
}

type DashboardService interface {
	BuildDashboard(ctx context.Context, q model.DashboardQuery) (model.Dashboard, error)
	TimeRanges() []model.TimeRangeOption
}

// dashboardService turns aggregate metrics into the dashboard panels.
type dashboardService struct {
	repo       repository.MetricsRepository
	thresholds ThresholdSource
	metrics    *instrumentation.Metrics
	logger     *zap.Logger
	tracker    *requestTracker
	now        func() time.Time

	mu               sync.Mutex
	endpointContexts map[string][]string
}

// NewDashboardService constructs a dashboardService. metrics may be nil.
func NewDashboardService(repo repository.MetricsRepository, thresholds ThresholdSource, metrics *instrumentation.Metrics, logger *zap.Logger) DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &dashboardService{
		repo:       repo,
		thresholds: thresholds,
		metrics:    metrics,
		logger:     logger,
		tracker:    &requestTracker{},
		now:        time.Now,
	}
}

func (s *dashboardService) TimeRanges() []model.TimeRangeOption {
	return model.TimeRanges()
}

// BuildDashboard fetches the window ending now and derives every panel from
// it. A request overtaken by a newer one returns ErrSuperseded.
func (s *dashboardService) BuildDashboard(ctx context.Context, q model.DashboardQuery) (model.Dashboard, error) {
	q, err := normalizeQuery(q)
	if err != nil {
		return model.Dashboard{}, err
	}

	now := s.now().UTC()
	window := model.Hours(q.Hours)
	mq := model.MetricsQuery{
		Start:    now.Add(-window.Duration),
		End:      now,
		Realtime: q.Hours == 1,
		Service:  q.Service,
		Node:     q.Node,
		Endpoint: q.Endpoint,
		Method:   q.Method,
		Context:  q.Context,
	}

	fetchCtx, seq, done := s.tracker.begin(ctx)
	defer done()

	snap, err := s.repo.FetchAggregate(fetchCtx, mq)
	if !s.tracker.isLatest(seq) {
		s.metrics.ObserveSuperseded()
		s.metrics.ObserveBuild("superseded")
		s.logger.Debug("discarding superseded dashboard fetch", zap.Uint64("seq", seq))
		return model.Dashboard{}, ErrSuperseded
	}
	if err != nil {
		s.metrics.ObserveBuild("error")
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("failed to fetch aggregate metrics", zap.Int("hours", q.Hours), zap.Error(err))
		}
		return model.Dashboard{}, err
	}

	d := s.assemble(snap, q, window, now)
	s.metrics.ObserveBuild("ok")
	s.logger.Info("dashboard built",
		zap.Int("hours", q.Hours),
		zap.String("variant", string(snap.Variant)),
		zap.Int("rows", len(snap.Rows)),
		zap.Int64("total_requests", d.Overview.TotalRequests),
	)
	return d, nil
}

func normalizeQuery(q model.DashboardQuery) (model.DashboardQuery, error) {
	if q.Hours <= 0 {
		return q, &ValidationError{Message: "hours must be a positive integer"}
	}
	if q.Hours > maxHours {
		return q, &ValidationError{Message: fmt.Sprintf("hours must not exceed %d", maxHours)}
	}
	q.Service = strings.TrimSpace(q.Service)
	q.Node = strings.TrimSpace(q.Node)
	q.Endpoint = strings.TrimSpace(q.Endpoint)
	q.Method = strings.ToUpper(strings.TrimSpace(q.Method))
	q.Context = strings.TrimSpace(q.Context)
	return q, nil
}

func (s *dashboardService) assemble(snap model.Snapshot, q model.DashboardQuery, window model.TimeRange, now time.Time) model.Dashboard {
	th := s.thresholds.Thresholds()
	rows := snap.Rows

	overview := aggregate.Overview(rows)
	if snap.Overview != nil {
		overview = *snap.Overview
	}
	overview.ErrorRateLevel = th.ErrorRateLevel(overview.ErrorRate)
	overview.LatencyLevel = status.LevelDefault
	if overview.AvgLatency != nil {
		overview.LatencyLevel = th.LatencyLevel(*overview.AvgLatency)
	}
	overview.Level = status.Worst(overview.ErrorRateLevel, overview.LatencyLevel)

	summary := aggregate.Summary(rows)
	if snap.Summary != nil {
		summary = *snap.Summary
	}

	series := timeseries.Bucketize(rows, window, now)

	endpoints := aggregate.ByEndpoint(rows)
	if snap.Endpoints != nil {
		endpoints = append([]model.EndpointSummary(nil), snap.Endpoints...)
		aggregate.FinalizeEndpoints(endpoints)
	}
	for i := range endpoints {
		endpoints[i].Level = th.ErrorRateLevel(endpoints[i].ErrorRate)
	}

	consumers := aggregate.ByConsumer(rows)
	if snap.Consumers != nil {
		consumers = append([]model.ConsumerSummary(nil), snap.Consumers...)
		aggregate.FinalizeConsumers(consumers)
	}
	for i := range consumers {
		consumers[i].Level = th.ErrorRateLevel(consumers[i].ErrorRate)
	}

	distribution := aggregate.StatusDistribution(rows)
	if snap.StatusDistribution != nil {
		distribution = append([]model.ServiceStatus(nil), snap.StatusDistribution...)
		aggregate.FinalizeStatusDistribution(distribution)
	}
	for i := range distribution {
		breakdown := append([]model.StatusCount(nil), distribution[i].StatusBreakdown...)
		for j := range breakdown {
			breakdown[j].Level = status.StatusCodeLevel(breakdown[j].Status)
		}
		distribution[i].StatusBreakdown = nonNil(breakdown)
	}

	return model.Dashboard{
		Meta: model.DashboardMeta{
			Start:    now.Add(-window.Duration).Format(time.RFC3339),
			End:      now.Format(time.RFC3339),
			Hours:    q.Hours,
			Interval: formatInterval(timeseries.IntervalFor(window.Duration)),
			Realtime: q.Hours == 1,
			Variant:  snap.Variant,
			Filters:  activeFilters(q),
		},
		Empty:              len(rows) == 0 && overview.TotalRequests == 0,
		Overview:           overview,
		Summary:            summary,
		Cards:              buildCards(summary, series, th),
		TimeSeries:         nonNil(series),
		Endpoints:          nonNil(endpoints),
		StatusDistribution: nonNil(distribution),
		Consumers:          nonNil(consumers),
		Filters:            s.filterOptions(snap, q),
		Thresholds:         th,
	}
}

// filterOptions lists the values present in the data. Unfiltered builds
// refresh the endpoint to contexts map, filtered builds reuse the last one so
// the context picker keeps offering every context of an endpoint.
func (s *dashboardService) filterOptions(snap model.Snapshot, q model.DashboardQuery) model.FilterOptions {
	opts := aggregate.FilterOptions(snap.Rows)

	if len(opts.Nodes) == 0 && len(snap.Nodes) > 0 {
		opts.Nodes = snap.Nodes
	}
	if len(opts.Contexts) == 0 && len(snap.Contexts) > 0 {
		opts.Contexts = snap.Contexts
	}
	if len(snap.Endpoints) > 0 {
		opts.Services = mergeSorted(opts.Services, snap.Endpoints, func(e model.EndpointSummary) string { return e.Service })
		opts.Endpoints = mergeSorted(opts.Endpoints, snap.Endpoints, func(e model.EndpointSummary) string { return e.Endpoint })
		opts.Methods = mergeSorted(opts.Methods, snap.Endpoints, func(e model.EndpointSummary) string { return e.Method })
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if q.Unfiltered() {
		s.endpointContexts = opts.EndpointContexts
	} else if len(s.endpointContexts) > 0 {
		opts.EndpointContexts = s.endpointContexts
	}
	return opts
}

func buildCards(summary model.MetricsSummary, series []model.SeriesPoint, th status.Thresholds) []model.Card {
	latencyLevel := func(v *float64) status.Level {
		if v == nil {
			return status.LevelDefault
		}
		return th.LatencyLevel(*v)
	}
	spark := func(f func(p model.SeriesPoint) *float64) []*float64 {
		out := make([]*float64, len(series))
		for i, p := range series {
			out[i] = f(p)
		}
		return out
	}

	total := float64(summary.TotalRequests)
	return []model.Card{
		{
			Title:     "Total Requests",
			Value:     &total,
			Level:     status.LevelDefault,
			Sparkline: spark(func(p model.SeriesPoint) *float64 { return model.Float(float64(p.TotalRequests)) }),
		},
		{
			Title:     "Average Latency",
			Value:     summary.AvgLatency,
			Unit:      "ms",
			Level:     latencyLevel(summary.AvgLatency),
			Sparkline: spark(func(p model.SeriesPoint) *float64 { return p.AvgLatency }),
		},
		{
			Title:     "P95 Latency",
			Value:     summary.P95Latency,
			Unit:      "ms",
			Level:     latencyLevel(summary.P95Latency),
			Sparkline: spark(func(p model.SeriesPoint) *float64 { return p.P95Latency }),
		},
		{
			Title:     "Min Latency",
			Value:     summary.MinLatency,
			Unit:      "ms",
			Level:     latencyLevel(summary.MinLatency),
			Sparkline: spark(func(p model.SeriesPoint) *float64 { return p.MinLatency }),
		},
		{
			Title:     "Max Latency",
			Value:     summary.MaxLatency,
			Unit:      "ms",
			Level:     latencyLevel(summary.MaxLatency),
			Sparkline: spark(func(p model.SeriesPoint) *float64 { return p.MaxLatency }),
		},
	}
}

func activeFilters(q model.DashboardQuery) map[string]any {
	if q.Unfiltered() {
		return nil
	}
	filters := map[string]any{}
	for k, v := range map[string]string{
		"service":  q.Service,
		"node":     q.Node,
		"endpoint": q.Endpoint,
		"method":   q.Method,
		"context":  q.Context,
	} {
		if v != "" {
			filters[k] = v
		}
	}
	return filters
}

func formatInterval(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return d.String()
	}
}

func mergeSorted[T any](base []string, items []T, key func(T) string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	out := append([]string(nil), base...)
	for _, it := range items {
		v := key(it)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
