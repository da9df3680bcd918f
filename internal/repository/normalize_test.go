package repository

import (
	"testing"
	"time"

	"malti-dashboard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flatBody = `[
  {"service":"billing","node":"n1","method":"GET","endpoint":"/invoices","consumer":"web","context":"list",
   "bucket":"2025-03-10T14:00:00Z","status":200,"count_requests":12,
   "min_response_time":10.5,"max_response_time":90,"avg_response_time":42.25,"p95_response_time":null},
  {"service":"billing","method":"GET","endpoint":"/invoices","consumer":"web",
   "bucket":"2025-03-10T14:01:00+00:00","status":"500","total_requests":"3",
   "avg_response_time":null,"max_response_time":"120.5"},
  {"service":"billing","bucket":"not-a-time","status":200,"count_requests":1,"avg_response_time":1},
  {"service":"auth","bucket":"2025-03-10 14:02:00","status":401,"count_requests":-4}
]`

func TestParseAggregate_Flat(t *testing.T) {
	snap, err := ParseAggregate([]byte(flatBody))
	require.NoError(t, err)

	assert.Equal(t, model.WireFlatV1, snap.Variant)
	require.Len(t, snap.Rows, 4)

	first := snap.Rows[0]
	assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), first.Bucket)
	assert.Equal(t, int64(12), first.Count)
	assert.InDelta(t, 42.25, first.AvgResponseTime, 1e-9)
	require.NotNil(t, first.MinResponseTime)
	assert.InDelta(t, 10.5, *first.MinResponseTime, 1e-9)
	assert.Nil(t, first.P95ResponseTime)
	assert.Equal(t, "n1", first.Node)
	assert.Equal(t, "list", first.Context)

	second := snap.Rows[1]
	assert.Equal(t, time.Date(2025, 3, 10, 14, 1, 0, 0, time.UTC), second.Bucket)
	assert.Equal(t, int64(3), second.Count, "total_requests alias and numeric strings are accepted")
	assert.Equal(t, 500, second.Status)
	assert.Zero(t, second.AvgResponseTime)
	assert.Nil(t, second.MinResponseTime)
	assert.InDelta(t, 120.5, *second.MaxResponseTime, 1e-9)

	assert.True(t, snap.Rows[2].Bucket.IsZero(), "unparseable bucket is left empty")
	assert.Equal(t, time.Date(2025, 3, 10, 14, 2, 0, 0, time.UTC), snap.Rows[3].Bucket)
	assert.Zero(t, snap.Rows[3].Count, "negative counts are clamped")
}

func TestParseAggregate_Structured(t *testing.T) {
	body := `{
	  "time_series":[{"bucket":"2025-03-10T14:00:00Z","total_requests":40,"min_latency":5,"avg_latency":175,"p95_latency":300,"max_latency":400}],
	  "metrics_summary":{"total_requests":40,"avg_latency":175,"min_latency":5,"p95_latency":300,"max_latency":400},
	  "endpoints":[{"endpoint":"/a","method":"GET","service":"s","total_requests":30,"error_count":3,"error_rate":10}],
	  "status_distribution":[{"service":"s","total_requests":40,"success_2xx":30,"warning_3xx":0,"error_4xx_5xx":10,
	      "status_breakdown":{"500":3,"200":30,"401":7}}],
	  "consumers":[{"consumer":"web","total_requests":40,"error_count":3,"error_rate":7.5}],
	  "system_overview":{"total_requests":40,"total_errors":3,"error_rate":7.5,"avg_latency":null},
	  "distinct_nodes":["n1","n2"],
	  "distinct_contexts":[]
	}`

	snap, err := ParseAggregate([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, model.WireStructuredV2, snap.Variant)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, int64(40), snap.Rows[0].Count)
	assert.InDelta(t, 175.0, snap.Rows[0].AvgResponseTime, 1e-9)
	assert.InDelta(t, 300.0, *snap.Rows[0].P95ResponseTime, 1e-9)

	require.NotNil(t, snap.Summary)
	assert.InDelta(t, 300.0, *snap.Summary.P95Latency, 1e-9)

	require.NotNil(t, snap.Overview)
	assert.Equal(t, int64(3), snap.Overview.TotalErrors)
	assert.Nil(t, snap.Overview.AvgLatency)

	require.Len(t, snap.Endpoints, 1)
	assert.Equal(t, int64(3), snap.Endpoints[0].ErrorCount)

	require.Len(t, snap.StatusDistribution, 1)
	dist := snap.StatusDistribution[0]
	assert.Equal(t, []model.StatusCount{{Status: 200, Count: 30}, {Status: 401, Count: 7}, {Status: 500, Count: 3}}, dist.StatusBreakdown)
	assert.Equal(t, int64(3), dist.ErrorCount)

	require.Len(t, snap.Consumers, 1)
	assert.Equal(t, []string{"n1", "n2"}, snap.Nodes)
	assert.Empty(t, snap.Contexts)
}

func TestParseAggregate_StructuredBreakdownArray(t *testing.T) {
	body := `{"status_distribution":[{"service":"s","status_breakdown":[{"status":404,"count":2},{"status":201,"count":5}]}]}`

	snap, err := ParseAggregate([]byte(body))
	require.NoError(t, err)

	require.Len(t, snap.StatusDistribution, 1)
	assert.Equal(t, []model.StatusCount{{Status: 201, Count: 5}, {Status: 404, Count: 2}}, snap.StatusDistribution[0].StatusBreakdown)
	assert.Nil(t, snap.Summary)
	assert.Nil(t, snap.Endpoints)
	assert.Empty(t, snap.Rows)
}

func TestParseAggregate_NullAndInvalid(t *testing.T) {
	snap, err := ParseAggregate([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, snap.Rows)

	_, err = ParseAggregate([]byte(`{"broken"`))
	assert.ErrorIs(t, err, ErrInvalidResponse)

	_, err = ParseAggregate([]byte(`"text"`))
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
