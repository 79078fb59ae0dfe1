package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/itsatony/w4b_v3/server/dashboard/api/middleware"
	"github.com/itsatony/w4b_v3/server/dashboard/api/resources"
)

type Router struct {
	router    *mux.Router
	handler   http.Handler
	resources *resources.Resources
}

func NewRouter(res *resources.Resources, httpConfig middleware.HTTPConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: res,
	}

	r.setupRoutes()
	r.handler = middleware.Wrap(r.router, httpConfig)
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Operational routes
	if r.resources.HealthCheck != nil {
		api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	}
	if r.resources.Metrics != nil {
		api.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)
	}

	// Dashboard
	dashboard := api.PathPrefix("/dashboard").Subrouter()
	dashboard.HandleFunc("/metrics", r.resources.Dashboard.GetMetrics).Methods(http.MethodGet)
	dashboard.HandleFunc("/series", r.resources.Dashboard.GetSeries).Methods(http.MethodGet)
	dashboard.HandleFunc("/overlay", r.resources.Dashboard.GetOverlay).Methods(http.MethodGet)
	dashboard.HandleFunc("/reload", r.resources.Dashboard.ReloadDatasets).Methods(http.MethodPost)

	// Events
	events := api.PathPrefix("/events").Subrouter()
	events.HandleFunc("", r.resources.Events.ListEvents).Methods(http.MethodGet)
	events.HandleFunc("", r.resources.Events.UploadEvent).Methods(http.MethodPost)
	events.HandleFunc("/{id}", r.resources.Events.GetEvent).Methods(http.MethodGet)
	events.HandleFunc("/{id}/image", r.resources.Events.GetEventImage).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
