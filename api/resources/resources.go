// FilePath: server/dashboard/api/resources/resources.go
package resources

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/schema"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/analytics"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/dashservice"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

// Resources holds all HTTP resource handlers
type Resources struct {
	Dashboard   *DashboardHandlers
	Events      *EventHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance. maxUploadSize bounds the
// multipart body of an event upload.
func NewResources(svc *dashservice.DashService, maxUploadSize int64) *Resources {
	return &Resources{
		Dashboard: &DashboardHandlers{dashservice: svc},
		Events:    &EventHandlers{dashservice: svc, maxUploadSize: maxUploadSize},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}

// Helper functions

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

func decodeQuery(dst interface{}, r *http.Request) *errors.APIError {
	if err := queryDecoder.Decode(dst, r.URL.Query()); err != nil {
		return errors.NewValidationError("invalid query parameters", err)
	}
	return nil
}

// parseOptionalTime parses a zoned timestamp, returning the zero time for ""
func parseOptionalTime(name, value string) (time.Time, *errors.APIError) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := analytics.ParseZoned(value)
	if err != nil {
		return time.Time{}, errors.NewValidationError(name+" must be a timestamp with a UTC offset", err)
	}
	return t, nil
}

// splitList accepts both repeated and comma separated query values
func splitList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func respondWithError(w http.ResponseWriter, err *errors.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	if err.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", err.Error())
	} else {
		nuts.L.Warnf("[API] %s", err.Error())
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
