// Package analytics holds the seasonal metric comparison and the interval
// overlay selection behind the dashboard. Everything here is a pure function
// over in-memory data.
package analytics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
)

// ErrNoBaselineData is returned by CompareCount when no year before the
// reference year has data for the reference month.
var ErrNoBaselineData = errors.New("no baseline data")

// CompareAverage compares the mean of field in the reference (month, year)
// with the pooled mean of the same month across all earlier years.
// Missing current or baseline rows yield NaN, not an error.
func CompareAverage(label string, observations []models.Observation, field models.Field, ref time.Time) (models.MetricResult, error) {
	result := undefinedResult(label)
	if !field.Valid() {
		return result, fmt.Errorf("%w: unknown field %q", ErrInvalidInput, field)
	}
	if err := checkReference(ref); err != nil {
		return result, err
	}

	loc := ref.Location()
	refYear, refMonth := ref.Year(), ref.Month()

	var current, baseline accumulator
	for i, o := range observations {
		if o.CreatedAt.IsZero() {
			return result, fmt.Errorf("%w: observation %d has no timestamp", ErrInvalidInput, i)
		}
		t := o.CreatedAt.In(loc)
		if t.Month() != refMonth {
			continue
		}
		v, _ := o.Value(field)
		switch year := t.Year(); {
		case year == refYear:
			current.add(v)
		case year < refYear:
			baseline.add(v)
		}
	}

	result.Current = current.mean()
	result.Baseline = baseline.mean()
	result.Delta = result.Current - result.Baseline
	return result, nil
}

// CompareCount compares the number of intervals starting in the reference
// (month, year) with the per-year average for that month in earlier years.
// The baseline divides by the number of distinct earlier years that have
// data, so years without any events in that month do not count.
func CompareCount(label string, intervals []models.EventInterval, ref time.Time) (models.MetricResult, error) {
	result := undefinedResult(label)
	if err := checkReference(ref); err != nil {
		return result, err
	}

	loc := ref.Location()
	refYear, refMonth := ref.Year(), ref.Month()

	current, prior := 0, 0
	years := make(map[int]struct{})
	for i, iv := range intervals {
		if iv.CreatedAt.IsZero() {
			return result, fmt.Errorf("%w: interval %d has no start", ErrInvalidInput, i)
		}
		t := iv.CreatedAt.In(loc)
		if t.Month() != refMonth {
			continue
		}
		switch year := t.Year(); {
		case year == refYear:
			current++
		case year < refYear:
			prior++
			years[year] = struct{}{}
		}
	}

	result.Current = float64(current)
	if len(years) == 0 {
		return result, fmt.Errorf("%w: no %s data before %d", ErrNoBaselineData, refMonth, refYear)
	}
	result.Baseline = float64(prior) / float64(len(years))
	result.Delta = result.Current - result.Baseline
	return result, nil
}

// accumulator sums values for a pooled mean. NaN readings are skipped.
type accumulator struct {
	sum   float64
	count int
}

func (a *accumulator) add(v float64) {
	if math.IsNaN(v) {
		return
	}
	a.sum += v
	a.count++
}

func (a *accumulator) mean() float64 {
	if a.count == 0 {
		return math.NaN()
	}
	return a.sum / float64(a.count)
}

func undefinedResult(label string) models.MetricResult {
	return models.MetricResult{
		Label:    label,
		Current:  math.NaN(),
		Baseline: math.NaN(),
		Delta:    math.NaN(),
	}
}
