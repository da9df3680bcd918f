package timeseries

import (
	"testing"
	"time"

	"malti-dashboard/internal/model"

	"github.com/stretchr/testify/suite"
)

type BucketizerTestSuite struct {
	suite.Suite
	now time.Time
}

func TestBucketizerSuite(t *testing.T) {
	suite.Run(t, new(BucketizerTestSuite))
}

func (s *BucketizerTestSuite) SetupTest() {
	// Deliberately off any bucket boundary.
	s.now = time.Date(2025, 3, 10, 14, 37, 42, 0, time.UTC)
}

func row(ts time.Time, count int64, avg float64) model.MetricRow {
	return model.MetricRow{
		Bucket:          ts,
		Count:           count,
		AvgResponseTime: avg,
		MinResponseTime: model.Float(avg / 2),
		MaxResponseTime: model.Float(avg * 2),
	}
}

func (s *BucketizerTestSuite) TestIntervalFor() {
	s.Equal(time.Minute, IntervalFor(time.Hour))
	s.Equal(5*time.Minute, IntervalFor(6*time.Hour))
	s.Equal(5*time.Minute, IntervalFor(24*time.Hour))
	s.Equal(time.Hour, IntervalFor(25*time.Hour))
	s.Equal(time.Hour, IntervalFor(7*24*time.Hour))
}

func (s *BucketizerTestSuite) TestOneHourWindow_SixtyBucketsAndTotalPreserved() {
	base := s.now.Truncate(time.Minute)
	rows := []model.MetricRow{
		row(base, 5, 100),
		row(base.Add(-10*time.Minute), 7, 80),
		row(base.Add(-59*time.Minute), 3, 50),
		row(base.Add(-59*time.Minute), 2, 60),
	}

	out := Bucketize(rows, model.Hours(1), s.now)

	s.Len(out, 60)
	s.Equal(base, out[len(out)-1].Timestamp)
	s.Equal(base.Add(-59*time.Minute), out[0].Timestamp)

	var total int64
	for _, p := range out {
		total += p.TotalRequests
	}
	s.Equal(int64(17), total)
}

func (s *BucketizerTestSuite) TestWeightedAverageOnMerge() {
	ts := s.now.Truncate(5 * time.Minute)
	rows := []model.MetricRow{
		{Bucket: ts, Count: 10, AvgResponseTime: 100},
		{Bucket: ts, Count: 30, AvgResponseTime: 200},
	}

	out := Bucketize(rows, model.Hours(6), s.now)

	last := out[len(out)-1]
	s.Equal(ts, last.Timestamp)
	s.Equal(int64(40), last.TotalRequests)
	s.Require().NotNil(last.AvgLatency)
	s.InDelta(175.0, *last.AvgLatency, 1e-9)
}

func (s *BucketizerTestSuite) TestRowsInsideSameIntervalAreMerged() {
	ts := s.now.Truncate(5 * time.Minute)
	rows := []model.MetricRow{
		row(ts.Add(1*time.Minute), 1, 10),
		row(ts.Add(3*time.Minute), 1, 30),
	}

	out := Bucketize(rows, model.Hours(6), s.now)

	s.Len(out, 72)
	last := out[len(out)-1]
	s.Equal(int64(2), last.TotalRequests)
	s.InDelta(20.0, *last.AvgLatency, 1e-9)
	s.InDelta(5.0, *last.MinLatency, 1e-9)
	s.InDelta(60.0, *last.MaxLatency, 1e-9)
}

func (s *BucketizerTestSuite) TestEmptyRowsSixHours() {
	out := Bucketize(nil, model.Hours(6), s.now)

	s.Len(out, 72)
	for _, p := range out {
		s.Zero(p.TotalRequests)
		s.Nil(p.AvgLatency)
		s.Nil(p.MinLatency)
		s.Nil(p.MaxLatency)
		s.Nil(p.P95Latency)
	}
}

func (s *BucketizerTestSuite) TestEmptyRowsNoWindow() {
	s.Empty(Bucketize(nil, model.TimeRange{}, s.now))
	s.Empty(Bucketize([]model.MetricRow{}, model.TimeRange{}, s.now))
}

func (s *BucketizerTestSuite) TestSevenDaysUsesHourBuckets() {
	out := Bucketize(nil, model.Hours(24*7), s.now)

	s.Len(out, 168)
	s.Equal(time.Hour, out[1].Timestamp.Sub(out[0].Timestamp))
}

func (s *BucketizerTestSuite) TestStrictlyAscendingAndUnique() {
	ts := s.now.Truncate(time.Minute)
	rows := []model.MetricRow{
		row(ts.Add(-3*time.Minute), 1, 10),
		row(ts, 1, 10),
		row(ts.Add(-3*time.Minute), 4, 10),
		row(ts.Add(-2*time.Hour), 2, 10), // outside the grid
	}

	out := Bucketize(rows, model.Hours(1), s.now)

	s.Len(out, 61)
	var total int64
	for i, p := range out {
		total += p.TotalRequests
		if i > 0 {
			s.True(p.Timestamp.After(out[i-1].Timestamp))
		}
	}
	s.Equal(int64(8), total)
}

func (s *BucketizerTestSuite) TestZeroCountRowsDoNotPoisonExtremes() {
	ts := s.now.Truncate(time.Minute)
	rows := []model.MetricRow{
		{Bucket: ts, Count: 0, AvgResponseTime: 0, MinResponseTime: model.Float(0), MaxResponseTime: model.Float(9999)},
		{Bucket: ts, Count: 4, AvgResponseTime: 40, MinResponseTime: model.Float(20), MaxResponseTime: model.Float(90)},
	}

	out := Bucketize(rows, model.Hours(1), s.now)

	last := out[len(out)-1]
	s.InDelta(20.0, *last.MinLatency, 1e-9)
	s.InDelta(90.0, *last.MaxLatency, 1e-9)
	s.InDelta(40.0, *last.AvgLatency, 1e-9)
}

func (s *BucketizerTestSuite) TestOnlyZeroCountRowsLeaveLatencyAbsent() {
	ts := s.now.Truncate(time.Minute)
	rows := []model.MetricRow{
		{Bucket: ts, Count: 0, MinResponseTime: model.Float(0), MaxResponseTime: model.Float(0)},
	}

	out := Bucketize(rows, model.Hours(1), s.now)

	last := out[len(out)-1]
	s.Zero(last.TotalRequests)
	s.Nil(last.AvgLatency)
	s.Nil(last.MinLatency)
	s.Nil(last.MaxLatency)
}

func (s *BucketizerTestSuite) TestNullExtremesStayAbsent() {
	ts := s.now.Truncate(time.Minute)
	rows := []model.MetricRow{{Bucket: ts, Count: 3, AvgResponseTime: 12}}

	out := Bucketize(rows, model.Hours(1), s.now)

	last := out[len(out)-1]
	s.InDelta(12.0, *last.AvgLatency, 1e-9)
	s.Nil(last.MinLatency)
	s.Nil(last.MaxLatency)
}

func (s *BucketizerTestSuite) TestP95TakesLargestContribution() {
	ts := s.now.Truncate(time.Minute)
	rows := []model.MetricRow{
		{Bucket: ts, Count: 1, AvgResponseTime: 10, P95ResponseTime: model.Float(30)},
		{Bucket: ts, Count: 1, AvgResponseTime: 10, P95ResponseTime: model.Float(45)},
	}

	out := Bucketize(rows, model.Hours(1), s.now)

	s.InDelta(45.0, *out[len(out)-1].P95Latency, 1e-9)
}

func (s *BucketizerTestSuite) TestNoWindowInfersIntervalAndStartsAtEarliestRow() {
	end := s.now.Truncate(10 * time.Minute)
	rows := []model.MetricRow{
		row(end.Add(-30*time.Minute), 1, 10),
		row(end.Add(-20*time.Minute), 1, 10),
		row(end.Add(-10*time.Minute), 1, 10),
		row(end.Add(-5*time.Minute), 1, 10),
	}

	out := Bucketize(rows, model.TimeRange{}, s.now)

	s.Equal(end.Add(-30*time.Minute), out[0].Timestamp)
	s.Equal(10*time.Minute, out[1].Timestamp.Sub(out[0].Timestamp))
	var total int64
	for _, p := range out {
		total += p.TotalRequests
	}
	s.Equal(int64(4), total)
}

func (s *BucketizerTestSuite) TestInferInterval() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Equal(DefaultInterval, InferInterval(nil))
	s.Equal(DefaultInterval, InferInterval([]time.Time{base, base}))
	s.Equal(time.Minute, InferInterval([]time.Time{
		base, base.Add(time.Minute), base.Add(2 * time.Minute), base.Add(10 * time.Minute),
	}))
	// one 1m gap and one 5m gap: tie goes to the larger gap
	s.Equal(5*time.Minute, InferInterval([]time.Time{
		base, base.Add(time.Minute), base.Add(6 * time.Minute),
	}))
}

func (s *BucketizerTestSuite) TestDeterministic() {
	ts := s.now.Truncate(time.Minute)
	rows := []model.MetricRow{row(ts, 2, 10), row(ts.Add(-time.Minute), 3, 20)}

	s.Equal(Bucketize(rows, model.Hours(1), s.now), Bucketize(rows, model.Hours(1), s.now))
}

func (s *BucketizerTestSuite) TestRowsWithoutBucketAreSkipped() {
	rows := []model.MetricRow{{Count: 5, AvgResponseTime: 10}}

	s.Empty(Bucketize(rows, model.TimeRange{}, s.now))
	s.Len(Bucketize(rows, model.Hours(1), s.now), 60)
}
