package middleware

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"
)

// HTTPConfig configures the middleware stack around the API router
type HTTPConfig struct {
	AllowedOrigins []string
}

// Wrap applies panic recovery, CORS and request logging to h
func Wrap(h http.Handler, config HTTPConfig) http.Handler {
	origins := config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept"}),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, logRequest)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}), handlers.PrintRecoveryStack(true))(h)
	return h
}

func logRequest(_ io.Writer, params handlers.LogFormatterParams) {
	nuts.L.Infof("[HTTP] %s %s -> %d (%d bytes)",
		params.Request.Method, params.URL.RequestURI(), params.StatusCode, params.Size)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	nuts.L.Errorf("[HTTP] Recovered from panic: %v", v)
}
