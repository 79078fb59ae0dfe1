// FilePath: server/dashboard/internal/models/models.observation.go
package models

import "time"

// Field selects one continuous measurement of an Observation
type Field string

const (
	Weight      Field = "weight"
	Temperature Field = "temperature"
	Humidity    Field = "humidity"
)

// Fields lists every continuous field in display order
var Fields = []Field{Weight, Temperature, Humidity}

// Valid reports whether f names a known measurement
func (f Field) Valid() bool {
	switch f {
	case Weight, Temperature, Humidity:
		return true
	}
	return false
}

// Observation is a single hive scale reading
type Observation struct {
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Weight      float64   `json:"weight" db:"weight"`
	Temperature float64   `json:"temperature" db:"temperature"`
	Humidity    float64   `json:"humidity" db:"humidity"`
}

// Value returns the measurement selected by f
func (o Observation) Value(f Field) (float64, bool) {
	switch f {
	case Weight:
		return o.Weight, true
	case Temperature:
		return o.Temperature, true
	case Humidity:
		return o.Humidity, true
	}
	return 0, false
}

// EventInterval is a detected rapid weight change episode
type EventInterval struct {
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	EndDate    time.Time `json:"end_date" db:"end_date"`
	WeightDiff float64   `json:"weight_diff" db:"weight_diff"`
}

// SeriesPoint is an observation reduced to the selected fields
type SeriesPoint struct {
	CreatedAt time.Time         `json:"created_at"`
	Values    map[Field]float64 `json:"values"`
}
