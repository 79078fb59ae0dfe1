package dashservice

import (
	"context"
	stderrors "errors"
	"math"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/analytics"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	LabelRapidWeightChanges = "Rapid weight changes"

	WarningInsufficientHistory = "insufficient historical data"
)

var fieldLabels = map[models.Field]string{
	models.Weight:      "Average weight",
	models.Temperature: "Average temperature",
	models.Humidity:    "Average humidity",
}

// Metrics compares the month of the window end against the same month of
// earlier years, one result per selected field plus the rapid change count.
func (s *DashService) Metrics(ctx context.Context, sel models.Selection) ([]models.MetricResult, error) {
	observations, err := s.Observations.Get(ctx)
	if err != nil {
		return nil, loadError("failed to load observations", err)
	}
	intervals, err := s.Intervals.Get(ctx)
	if err != nil {
		return nil, loadError("failed to load weight change intervals", err)
	}
	sel, err = s.resolveSelection(sel, observations)
	if err != nil {
		return nil, err
	}

	ref := sel.WindowEnd
	results := make([]models.MetricResult, 0, len(sel.Fields)+1)
	for _, field := range sel.Fields {
		res, err := analytics.CompareAverage(fieldLabels[field], observations, field, ref)
		if err != nil {
			return nil, errors.From("failed to compare "+string(field), err)
		}
		if !res.BaselineDefined() {
			res.Warning = WarningInsufficientHistory
		}
		results = append(results, res)
	}

	count, err := analytics.CompareCount(LabelRapidWeightChanges, intervals, ref)
	switch {
	case stderrors.Is(err, analytics.ErrNoBaselineData):
		count.Warning = WarningInsufficientHistory
	case err != nil:
		return nil, errors.From("failed to compare rapid weight changes", err)
	}
	results = append(results, count)

	return results, nil
}

// Series returns the observations inside the window reduced to the selected fields
func (s *DashService) Series(ctx context.Context, sel models.Selection) ([]models.SeriesPoint, error) {
	observations, err := s.Observations.Get(ctx)
	if err != nil {
		return nil, loadError("failed to load observations", err)
	}
	sel, err = s.resolveSelection(sel, observations)
	if err != nil {
		return nil, err
	}

	inWindow, err := analytics.ObservationsInWindow(observations, sel.WindowStart, sel.WindowEnd)
	if err != nil {
		return nil, errors.From("invalid window", err)
	}

	points := make([]models.SeriesPoint, 0, len(inWindow))
	for _, o := range inWindow {
		values := make(map[models.Field]float64, len(sel.Fields))
		for _, field := range sel.Fields {
			// missing readings are left out of the point
			if v, ok := o.Value(field); ok && !math.IsNaN(v) {
				values[field] = v
			}
		}
		points = append(points, models.SeriesPoint{CreatedAt: o.CreatedAt, Values: values})
	}
	return points, nil
}

// Overlay returns the weight change intervals overlapping the window
func (s *DashService) Overlay(ctx context.Context, sel models.Selection) ([]models.OverlayBand, error) {
	observations, err := s.Observations.Get(ctx)
	if err != nil {
		return nil, loadError("failed to load observations", err)
	}
	intervals, err := s.Intervals.Get(ctx)
	if err != nil {
		return nil, loadError("failed to load weight change intervals", err)
	}
	sel, err = s.resolveSelection(sel, observations)
	if err != nil {
		return nil, err
	}

	bands, err := analytics.SelectOverlapping(intervals, sel.WindowStart, sel.WindowEnd)
	if err != nil {
		return nil, errors.From("failed to select overlapping intervals", err)
	}
	return bands, nil
}

// ReloadDatasets drops the cached observations and intervals
func (s *DashService) ReloadDatasets(ctx context.Context) error {
	for _, ds := range []interface {
		Identity() string
		Invalidate(ctx context.Context) error
	}{s.Observations, s.Intervals} {
		if err := ds.Invalidate(ctx); err != nil {
			nuts.L.Errorf("[DashService] Failed to invalidate %s: %v", ds.Identity(), err)
			return errors.NewInternalError("failed to invalidate "+ds.Identity(), err)
		}
		nuts.L.Infof("[DashService] Invalidated dataset %s", ds.Identity())
		s.emit(EventDatasetInvalidated, ds.Identity())
	}
	return nil
}

// resolveSelection fills in default fields and a missing window. A missing
// end is now, a missing start is the first observation.
func (s *DashService) resolveSelection(sel models.Selection, observations []models.Observation) (models.Selection, error) {
	if len(sel.Fields) == 0 {
		sel.Fields = s.opts.DefaultFields
	}
	for _, field := range sel.Fields {
		if !field.Valid() {
			return sel, errors.NewValidationError("unknown field: "+string(field), nil)
		}
	}

	if sel.WindowEnd.IsZero() {
		sel.WindowEnd = s.now()
	}
	if sel.WindowStart.IsZero() {
		sel.WindowStart = sel.WindowEnd
		if len(observations) > 0 && observations[0].CreatedAt.Before(sel.WindowEnd) {
			sel.WindowStart = observations[0].CreatedAt
		}
	}
	if sel.WindowStart.After(sel.WindowEnd) {
		return sel, errors.NewValidationError("window start is after window end", nil)
	}
	return sel, nil
}

// loadError reports a dataset that cannot be read as unavailable, even when
// the cause is malformed content, since the caller cannot fix it.
func loadError(msg string, err error) error {
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return errors.NewUnavailableError(msg, err)
}
