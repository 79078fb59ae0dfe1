// FilePath: server/dashboard/internal/models/models.metric.go
package models

import (
	"encoding/json"
	"math"
)

// MetricResult is one labeled stat compared against its historical baseline.
// Undefined values are NaN in memory and null on the wire.
type MetricResult struct {
	Label    string
	Current  float64
	Baseline float64
	Delta    float64
	Warning  string
}

func (m MetricResult) CurrentDefined() bool  { return !math.IsNaN(m.Current) }
func (m MetricResult) BaselineDefined() bool { return !math.IsNaN(m.Baseline) }
func (m MetricResult) DeltaDefined() bool    { return !math.IsNaN(m.Delta) }

type metricResultJSON struct {
	Label    string   `json:"label"`
	Current  *float64 `json:"current_value"`
	Baseline *float64 `json:"baseline"`
	Delta    *float64 `json:"delta"`
	Warning  string   `json:"warning,omitempty"`
}

// MarshalJSON encodes undefined values as null
func (m MetricResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricResultJSON{
		Label:    m.Label,
		Current:  nullable(m.Current),
		Baseline: nullable(m.Baseline),
		Delta:    nullable(m.Delta),
		Warning:  m.Warning,
	})
}

// UnmarshalJSON maps null back to NaN
func (m *MetricResult) UnmarshalJSON(data []byte) error {
	var w metricResultJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Label = w.Label
	m.Current = fromNullable(w.Current)
	m.Baseline = fromNullable(w.Baseline)
	m.Delta = fromNullable(w.Delta)
	m.Warning = w.Warning
	return nil
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fromNullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

type Trend string

const (
	Rising  Trend = "rising"
	Falling Trend = "falling"
)

// OverlayBand is an event interval selected for a chart window
type OverlayBand struct {
	Interval EventInterval `json:"interval"`
	Trend    Trend         `json:"trend"`
}
