package timescale

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFingerprint(t *testing.T) {
	latest := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "0-0", formatFingerprint(0, sql.NullTime{}))
	assert.Equal(t, "3-1717243200000000000", formatFingerprint(3, sql.NullTime{Time: latest, Valid: true}))
	assert.NotEqual(t,
		formatFingerprint(3, sql.NullTime{Time: latest, Valid: true}),
		formatFingerprint(4, sql.NullTime{Time: latest, Valid: true}))
}

func TestObservationRow_NullsBecomeNaN(t *testing.T) {
	created := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	row := observationRow{
		CreatedAt:   created,
		Weight:      sql.NullFloat64{Float64: 51.5, Valid: true},
		Temperature: sql.NullFloat64{},
		Humidity:    sql.NullFloat64{Float64: 0, Valid: true},
	}

	o := row.toObservation()
	assert.Equal(t, created, o.CreatedAt)
	assert.Equal(t, 51.5, o.Weight)
	assert.True(t, math.IsNaN(o.Temperature))
	assert.Equal(t, 0.0, o.Humidity)
}

func TestNaNToNull(t *testing.T) {
	assert.False(t, naNToNull(math.NaN()).Valid)
	assert.Equal(t, sql.NullFloat64{Float64: 34.2, Valid: true}, naNToNull(34.2))
	assert.True(t, math.IsNaN(nullToNaN(naNToNull(math.NaN()))))
}
