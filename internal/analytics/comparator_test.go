package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
)

func obs(year int, month time.Month, day int, weight float64) models.Observation {
	return models.Observation{
		CreatedAt:   time.Date(year, month, day, 12, 0, 0, 0, time.UTC),
		Weight:      weight,
		Temperature: weight / 2,
		Humidity:    60,
	}
}

func interval(year int, month time.Month, day int, diff float64) models.EventInterval {
	start := time.Date(year, month, day, 8, 0, 0, 0, time.UTC)
	return models.EventInterval{CreatedAt: start, EndDate: start.Add(2 * time.Hour), WeightDiff: diff}
}

func TestCompareAverage_PoolsPriorYears(t *testing.T) {
	series := []models.Observation{
		obs(2022, time.June, 1, 10),
		obs(2022, time.June, 2, 10),
		obs(2022, time.June, 3, 10),
		obs(2023, time.June, 1, 20),
		obs(2023, time.July, 1, 500),
		obs(2024, time.June, 1, 30),
		obs(2024, time.June, 2, 40),
	}
	ref := time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC)

	result, err := CompareAverage("Average weight", series, models.Weight, ref)
	require.NoError(t, err)

	assert.Equal(t, "Average weight", result.Label)
	assert.Equal(t, 35.0, result.Current)
	// (10+10+10+20)/4, not (10+20)/2
	assert.Equal(t, 12.5, result.Baseline)
	assert.Equal(t, 22.5, result.Delta)
}

func TestCompareAverage_SingleYearHasUndefinedBaseline(t *testing.T) {
	series := []models.Observation{
		obs(2024, time.June, 1, 30),
		obs(2024, time.June, 2, 32),
	}
	ref := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

	result, err := CompareAverage("Average weight", series, models.Weight, ref)
	require.NoError(t, err)

	assert.True(t, result.CurrentDefined())
	assert.Equal(t, 31.0, result.Current)
	assert.False(t, result.BaselineDefined())
	assert.False(t, result.DeltaDefined())
}

func TestCompareAverage_NoCurrentRows(t *testing.T) {
	series := []models.Observation{
		obs(2023, time.June, 1, 20),
	}
	ref := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	result, err := CompareAverage("Average temperature", series, models.Temperature, ref)
	require.NoError(t, err)

	assert.False(t, result.CurrentDefined())
	assert.False(t, result.DeltaDefined())
	assert.Equal(t, 10.0, result.Baseline)
}

func TestCompareAverage_ZeroIsDefined(t *testing.T) {
	series := []models.Observation{
		{CreatedAt: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC), Temperature: 0},
		{CreatedAt: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), Temperature: 0},
	}
	ref := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	result, err := CompareAverage("Average temperature", series, models.Temperature, ref)
	require.NoError(t, err)

	assert.True(t, result.CurrentDefined())
	assert.True(t, result.DeltaDefined())
	assert.Equal(t, 0.0, result.Delta)
}

func TestCompareAverage_SkipsMissingReadings(t *testing.T) {
	series := []models.Observation{
		obs(2024, time.June, 1, 30),
		obs(2024, time.June, 2, math.NaN()),
	}
	ref := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

	result, err := CompareAverage("Average weight", series, models.Weight, ref)
	require.NoError(t, err)
	assert.Equal(t, 30.0, result.Current)
}

func TestCompareAverage_BucketsInReferenceLocation(t *testing.T) {
	cest := time.FixedZone("CEST", 2*60*60)
	series := []models.Observation{
		// 1 July 01:30 in CEST
		{CreatedAt: time.Date(2024, time.June, 30, 23, 30, 0, 0, time.UTC), Weight: 40},
		{CreatedAt: time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC), Weight: 30},
	}

	june, err := CompareAverage("w", series, models.Weight, time.Date(2024, time.June, 20, 0, 0, 0, 0, cest))
	require.NoError(t, err)
	assert.Equal(t, 30.0, june.Current)

	july, err := CompareAverage("w", series, models.Weight, time.Date(2024, time.July, 20, 0, 0, 0, 0, cest))
	require.NoError(t, err)
	assert.Equal(t, 40.0, july.Current)
}

func TestCompareAverage_InvalidInput(t *testing.T) {
	series := []models.Observation{obs(2024, time.June, 1, 30)}
	ref := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	_, err := CompareAverage("x", series, models.Field("pressure"), ref)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = CompareAverage("x", series, models.Weight, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = CompareAverage("x", []models.Observation{{Weight: 1}}, models.Weight, ref)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCompareAverage_Idempotent(t *testing.T) {
	series := []models.Observation{
		obs(2022, time.May, 1, 10.1),
		obs(2023, time.May, 1, 20.7),
		obs(2024, time.May, 1, 30.3),
		obs(2024, time.May, 2, 31.9),
	}
	ref := time.Date(2024, time.May, 31, 0, 0, 0, 0, time.UTC)

	first, err := CompareAverage("w", series, models.Weight, ref)
	require.NoError(t, err)
	second, err := CompareAverage("w", series, models.Weight, ref)
	require.NoError(t, err)

	assert.Equal(t, math.Float64bits(first.Current), math.Float64bits(second.Current))
	assert.Equal(t, math.Float64bits(first.Baseline), math.Float64bits(second.Baseline))
	assert.Equal(t, math.Float64bits(first.Delta), math.Float64bits(second.Delta))
	assert.Equal(t, first.Label, second.Label)
}

func TestCompareCount_PerYearBaseline(t *testing.T) {
	var intervals []models.EventInterval
	for i := 1; i <= 3; i++ {
		intervals = append(intervals, interval(2022, time.June, i, 1))
	}
	for i := 1; i <= 5; i++ {
		intervals = append(intervals, interval(2023, time.June, i, -1))
	}
	intervals = append(intervals,
		interval(2023, time.August, 1, 1),
		interval(2024, time.June, 3, 2),
		interval(2024, time.June, 9, -2),
	)
	ref := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

	result, err := CompareCount("Rapid weight changes", intervals, ref)
	require.NoError(t, err)

	assert.Equal(t, 2.0, result.Current)
	assert.Equal(t, 4.0, result.Baseline)
	assert.Equal(t, -2.0, result.Delta)
}

func TestCompareCount_NoPriorYears(t *testing.T) {
	intervals := []models.EventInterval{
		interval(2024, time.June, 3, 2),
	}
	ref := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

	result, err := CompareCount("Rapid weight changes", intervals, ref)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoBaselineData)

	assert.Equal(t, 1.0, result.Current)
	assert.False(t, result.BaselineDefined())
	assert.False(t, result.DeltaDefined())
}

func TestCompareCount_ZeroCurrentIsACount(t *testing.T) {
	intervals := []models.EventInterval{
		interval(2023, time.June, 3, 2),
	}
	ref := time.Date(2024, time.June, 30, 0, 0, 0, 0, time.UTC)

	result, err := CompareCount("Rapid weight changes", intervals, ref)
	require.NoError(t, err)

	assert.True(t, result.CurrentDefined())
	assert.Equal(t, 0.0, result.Current)
	assert.Equal(t, -1.0, result.Delta)
}
