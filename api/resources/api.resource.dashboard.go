// FilePath: server/dashboard/api/resources/api.resource.dashboard.go
package resources

import (
	"net/http"

	"github.com/itsatony/w4b_v3/server/dashboard/internal/dashservice"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// DashboardHandlers encapsulates the chart and metric HTTP handlers
type DashboardHandlers struct {
	dashservice *dashservice.DashService
}

type selectionQuery struct {
	Start  string   `schema:"start"`
	End    string   `schema:"end"`
	Fields []string `schema:"fields"`
}

func (q selectionQuery) selection() (models.Selection, *errors.APIError) {
	var sel models.Selection
	var apiErr *errors.APIError
	if sel.WindowStart, apiErr = parseOptionalTime("start", q.Start); apiErr != nil {
		return sel, apiErr
	}
	if sel.WindowEnd, apiErr = parseOptionalTime("end", q.End); apiErr != nil {
		return sel, apiErr
	}
	for _, f := range splitList(q.Fields) {
		sel.Fields = append(sel.Fields, models.Field(f))
	}
	return sel, nil
}

func parseSelection(r *http.Request) (models.Selection, *errors.APIError) {
	var q selectionQuery
	if apiErr := decodeQuery(&q, r); apiErr != nil {
		return models.Selection{}, apiErr
	}
	return q.selection()
}

// @Summary Seasonal metrics
// @Description Compare the month of the window end against the same month in earlier years
// @Tags dashboard
// @Produce json
// @Param start query string false "Window start (RFC3339 with offset, percent-encode a + offset as %2B)"
// @Param end query string false "Window end and reference date (RFC3339 with offset, percent-encode a + offset as %2B)"
// @Param fields query string false "Comma separated fields: weight, temperature, humidity"
// @Success 200 {array} models.MetricResult
// @Failure 400 {object} errors.APIError
// @Router /dashboard/metrics [get]
func (h *DashboardHandlers) GetMetrics(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	sel, apiErr := parseSelection(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	results, err := h.dashservice.Metrics(r.Context(), sel)
	if err != nil {
		respondWithError(w, errors.From("failed to compute metrics", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}

// @Summary Observation series
// @Description Observations inside the window reduced to the selected fields
// @Tags dashboard
// @Produce json
// @Param start query string false "Window start (RFC3339 with offset, percent-encode a + offset as %2B)"
// @Param end query string false "Window end (RFC3339 with offset, percent-encode a + offset as %2B)"
// @Param fields query string false "Comma separated fields: weight, temperature, humidity"
// @Success 200 {array} models.SeriesPoint
// @Failure 400 {object} errors.APIError
// @Router /dashboard/series [get]
func (h *DashboardHandlers) GetSeries(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	sel, apiErr := parseSelection(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	points, err := h.dashservice.Series(r.Context(), sel)
	if err != nil {
		respondWithError(w, errors.From("failed to load series", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, points)
}

// @Summary Weight change overlay
// @Description Rapid weight change intervals overlapping the window, tagged rising or falling
// @Tags dashboard
// @Produce json
// @Param start query string false "Window start (RFC3339 with offset, percent-encode a + offset as %2B)"
// @Param end query string false "Window end (RFC3339 with offset, percent-encode a + offset as %2B)"
// @Success 200 {array} models.OverlayBand
// @Failure 400 {object} errors.APIError
// @Router /dashboard/overlay [get]
func (h *DashboardHandlers) GetOverlay(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	sel, apiErr := parseSelection(r)
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	bands, err := h.dashservice.Overlay(r.Context(), sel)
	if err != nil {
		respondWithError(w, errors.From("failed to compute overlay", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, bands)
}

// @Summary Reload datasets
// @Description Drop the cached observations and intervals so the next request reloads them
// @Tags dashboard
// @Success 204 "No Content"
// @Failure 500 {object} errors.APIError
// @Router /dashboard/reload [post]
func (h *DashboardHandlers) ReloadDatasets(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	if err := h.dashservice.ReloadDatasets(r.Context()); err != nil {
		respondWithError(w, errors.From("failed to reload datasets", err).WithRequestID(requestID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
