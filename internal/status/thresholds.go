package status

// Thresholds drives success/warning/error classification of error rates
// (percent) and latencies (milliseconds). A Thresholds value is a snapshot:
// updates produce a new value through With.
type Thresholds struct {
	ErrorRateSuccess float64 `json:"error_rate_success_threshold" yaml:"error_rate_success_threshold"`
	ErrorRateWarning float64 `json:"error_rate_warning_threshold" yaml:"error_rate_warning_threshold"`
	LatencySuccess   float64 `json:"latency_success_threshold" yaml:"latency_success_threshold"`
	LatencyWarning   float64 `json:"latency_warning_threshold" yaml:"latency_warning_threshold"`
}

// Overrides carries a partial set of threshold values, as sent by the server
// on login or read from a thresholds file. Nil fields are left untouched.
type Overrides struct {
	ErrorRateSuccess *float64 `json:"error_rate_success_threshold,omitempty" yaml:"error_rate_success_threshold"`
	ErrorRateWarning *float64 `json:"error_rate_warning_threshold,omitempty" yaml:"error_rate_warning_threshold"`
	LatencySuccess   *float64 `json:"latency_success_threshold,omitempty" yaml:"latency_success_threshold"`
	LatencyWarning   *float64 `json:"latency_warning_threshold,omitempty" yaml:"latency_warning_threshold"`
}

// DefaultThresholds returns the fallback values used before a login succeeds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ErrorRateSuccess: 1.0,
		ErrorRateWarning: 5.0,
		LatencySuccess:   500,
		LatencyWarning:   1000,
	}
}

// With returns a copy of t with every non-nil override applied.
func (t Thresholds) With(o Overrides) Thresholds {
	if o.ErrorRateSuccess != nil {
		t.ErrorRateSuccess = *o.ErrorRateSuccess
	}
	if o.ErrorRateWarning != nil {
		t.ErrorRateWarning = *o.ErrorRateWarning
	}
	if o.LatencySuccess != nil {
		t.LatencySuccess = *o.LatencySuccess
	}
	if o.LatencyWarning != nil {
		t.LatencyWarning = *o.LatencyWarning
	}
	return t
}

// ErrorRateLevel classifies an error rate given in percent.
func (t Thresholds) ErrorRateLevel(rate float64) Level {
	return classify(rate, t.ErrorRateSuccess, t.ErrorRateWarning)
}

// LatencyLevel classifies a latency given in milliseconds.
func (t Thresholds) LatencyLevel(ms float64) Level {
	return classify(ms, t.LatencySuccess, t.LatencyWarning)
}

// ErrorRateColor returns the palette token for an error rate.
func ErrorRateColor(t Thresholds, rate float64) string {
	return t.ErrorRateLevel(rate).Color()
}

// LatencyColor returns the palette token for a latency.
func LatencyColor(t Thresholds, ms float64) string {
	return t.LatencyLevel(ms).Color()
}

func classify(v, success, warning float64) Level {
	switch {
	case v > warning:
		return LevelError
	case v > success:
		return LevelWarning
	default:
		return LevelSuccess
	}
}
