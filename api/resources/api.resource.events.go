// FilePath: server/dashboard/api/resources/api.resource.events.go
package resources

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/dashservice"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// multipart overhead allowed on top of the image itself
const formOverhead = 1 << 20

// EventHandlers encapsulates the uploaded event HTTP handlers
type EventHandlers struct {
	dashservice   *dashservice.DashService
	maxUploadSize int64
}

type eventsQuery struct {
	Start  string `schema:"start"`
	End    string `schema:"end"`
	Type   string `schema:"type"`
	Offset int    `schema:"offset"`
	Limit  int    `schema:"limit"`
}

// @Summary Upload an event
// @Description Record a manually observed hive event with an optional image
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Param event_time formData string true "Event time (RFC3339 with offset)"
// @Param event_type formData string true "feeding, box change, harvest, treatment or other"
// @Param description formData string false "Free text description"
// @Param image formData file false "Photo of the event"
// @Success 201 {object} models.UploadedEvent
// @Failure 400 {object} errors.APIError
// @Router /events [post]
func (h *EventHandlers) UploadEvent(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(h.maxUploadSize + formOverhead); err != nil {
		respondWithError(w, errors.NewValidationError("invalid or oversized form", err).WithRequestID(requestID))
		return
	}

	if r.FormValue("event_time") == "" {
		respondWithError(w, errors.NewValidationError("event_time is required", nil).WithRequestID(requestID))
		return
	}
	eventTime, err := parseOptionalTime("event_time", r.FormValue("event_time"))
	if err != nil {
		respondWithError(w, err.WithRequestID(requestID))
		return
	}

	req := &models.EventUploadRequest{
		EventTime:   eventTime,
		EventType:   r.FormValue("event_type"),
		Description: r.FormValue("description"),
	}

	image, readErr := readFormFile(r, "image", h.maxUploadSize)
	if readErr != nil {
		respondWithError(w, readErr.WithRequestID(requestID))
		return
	}
	req.Image = image

	event, uploadErr := h.dashservice.UploadEvent(r.Context(), req)
	if uploadErr != nil {
		respondWithError(w, errors.From("failed to store event", uploadErr).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusCreated, event)
}

// @Summary List events
// @Description Uploaded events ordered by event time
// @Tags events
// @Produce json
// @Param start query string false "Earliest event time (RFC3339 with offset)"
// @Param end query string false "Latest event time (RFC3339 with offset)"
// @Param type query string false "Event type filter"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {array} models.UploadedEvent
// @Failure 400 {object} errors.APIError
// @Router /events [get]
func (h *EventHandlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	requestID := nuts.NID("req", 12)

	var q eventsQuery
	if apiErr := decodeQuery(&q, r); apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	filters, apiErr := q.filters()
	if apiErr != nil {
		respondWithError(w, apiErr.WithRequestID(requestID))
		return
	}

	events, err := h.dashservice.ListEvents(r.Context(), filters, q.Offset, q.Limit)
	if err != nil {
		respondWithError(w, errors.From("failed to list events", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, events)
}

// @Summary Get an event
// @Description Metadata of one uploaded event
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} models.UploadedEvent
// @Failure 404 {object} errors.APIError
// @Router /events/{id} [get]
func (h *EventHandlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	event, err := h.dashservice.GetEvent(r.Context(), id)
	if err != nil {
		respondWithError(w, errors.From("failed to get event", err).WithRequestID(requestID))
		return
	}

	respondWithJSON(w, http.StatusOK, event)
}

// @Summary Get an event image
// @Description Raw image bytes of one uploaded event
// @Tags events
// @Produce image/png,image/jpeg
// @Param id path string true "Event ID"
// @Success 200 {file} file
// @Failure 404 {object} errors.APIError
// @Router /events/{id}/image [get]
func (h *EventHandlers) GetEventImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id := vars["id"]
	requestID := nuts.NID("req", 12)

	image, mime, err := h.dashservice.EventImage(r.Context(), id)
	if err != nil {
		respondWithError(w, errors.From("failed to get event image", err).WithRequestID(requestID))
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(image)))
	if _, err := w.Write(image); err != nil {
		nuts.L.Errorf("[EventHandler] Failed to write image of %s: %v", id, err)
	}
}

func (q eventsQuery) filters() (models.EventFilters, *errors.APIError) {
	filters := models.EventFilters{Type: models.EventType(q.Type)}

	start, apiErr := parseOptionalTime("start", q.Start)
	if apiErr != nil {
		return filters, apiErr
	}
	end, apiErr := parseOptionalTime("end", q.End)
	if apiErr != nil {
		return filters, apiErr
	}
	if start.IsZero() && end.IsZero() {
		return filters, nil
	}

	filters.EventTime = &models.TimeRange{}
	if !start.IsZero() {
		filters.EventTime.Start = &start
	}
	if !end.IsZero() {
		filters.EventTime.End = &end
	}
	return filters, nil
}

// readFormFile returns the bytes of an optional form file, at most limit+1
// of them so the service can reject oversized images.
func readFormFile(r *http.Request, name string, limit int64) ([]byte, *errors.APIError) {
	file, _, err := r.FormFile(name)
	if stderrors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewValidationError("invalid "+name+" upload", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, errors.NewValidationError("failed to read "+name, err)
	}
	return data, nil
}
