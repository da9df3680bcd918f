package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"malti-dashboard/internal/apierror"
	"malti-dashboard/internal/model"
)

const (
	aggregatePath = "/api/v1/metrics/aggregate"
	realtimePath  = "/api/v1/metrics/aggregate/realtime"

	// queryTimeLayout matches what browsers send: UTC with milliseconds.
	queryTimeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Doer sends an HTTP request. auth.Session satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MetricsRepository reads aggregate metrics from the Malti API.
type MetricsRepository interface {
	// FetchAggregate returns the aggregate rows for q, normalised to a
	// Snapshot whatever wire shape the server used.
	FetchAggregate(ctx context.Context, q model.MetricsQuery) (model.Snapshot, error)
}

type metricsRepository struct {
	baseURL string
	doer    Doer
	logger  *zap.Logger
}

// NewMetricsRepository creates a MetricsRepository backed by the REST API.
func NewMetricsRepository(baseURL string, doer Doer, logger *zap.Logger) MetricsRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &metricsRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		logger:  logger,
	}
}

func (r *metricsRepository) FetchAggregate(ctx context.Context, q model.MetricsQuery) (model.Snapshot, error) {
	path := aggregatePath
	if q.Realtime {
		path = realtimePath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path+"?"+buildParams(q).Encode(), nil)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("build metrics request: %w", err)
	}

	resp, err := r.doer.Do(req)
	if err != nil {
		return model.Snapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Snapshot{}, apierror.FromResponse(resp, "Failed to fetch metrics data (%d)")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Snapshot{}, &apierror.NetworkError{Err: err}
	}

	snapshot, err := ParseAggregate(body)
	if err != nil {
		return model.Snapshot{}, err
	}

	r.logger.Debug("fetched aggregate metrics",
		zap.String("path", path),
		zap.String("variant", string(snapshot.Variant)),
		zap.Int("rows", len(snapshot.Rows)),
	)
	return snapshot, nil
}

func buildParams(q model.MetricsQuery) url.Values {
	params := url.Values{}
	params.Set("start_time", q.Start.UTC().Format(queryTimeLayout))
	params.Set("end_time", q.End.UTC().Format(queryTimeLayout))

	optional := []struct{ key, val string }{
		{"service", q.Service},
		{"node", q.Node},
		{"endpoint", q.Endpoint},
		{"method", q.Method},
		{"context", q.Context},
	}
	for _, o := range optional {
		if o.val != "" {
			params.Set(o.key, o.val)
		}
	}
	return params
}
