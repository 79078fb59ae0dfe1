package analytics

import (
	"fmt"
	"time"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
)

// SelectOverlapping returns the intervals that overlap [windowStart, windowEnd]
// in their input order, each tagged with its trend. An interval touching a
// window bound counts as overlapping.
func SelectOverlapping(intervals []models.EventInterval, windowStart, windowEnd time.Time) ([]models.OverlayBand, error) {
	if err := checkWindow(windowStart, windowEnd); err != nil {
		return nil, err
	}

	bands := []models.OverlayBand{}
	for i, iv := range intervals {
		if iv.CreatedAt.IsZero() || iv.EndDate.IsZero() {
			return nil, fmt.Errorf("%w: interval %d is missing a bound", ErrInvalidInput, i)
		}
		if iv.EndDate.Before(windowStart) || iv.CreatedAt.After(windowEnd) {
			continue
		}
		bands = append(bands, models.OverlayBand{
			Interval: iv,
			Trend:    Classify(iv.WeightDiff),
		})
	}
	return bands, nil
}

// Classify maps a weight difference to a trend. Zero is falling.
func Classify(weightDiff float64) models.Trend {
	if weightDiff > 0 {
		return models.Rising
	}
	return models.Falling
}

// ObservationsInWindow returns the observations with start <= created_at <= end
func ObservationsInWindow(observations []models.Observation, start, end time.Time) ([]models.Observation, error) {
	if err := checkWindow(start, end); err != nil {
		return nil, err
	}

	out := []models.Observation{}
	for _, o := range observations {
		if o.CreatedAt.Before(start) || o.CreatedAt.After(end) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}
