// FilePath: server/dashboard/internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itsatony/w4b_v3/server/dashboard/api"
	"github.com/itsatony/w4b_v3/server/dashboard/api/middleware"
	"github.com/itsatony/w4b_v3/server/dashboard/api/resources"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/cache"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/config"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/dashservice"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/database"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/dataset"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/models"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/monitoring"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/repository"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/repository/csvfile"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/repository/mongodb"
	"github.com/itsatony/w4b_v3/server/dashboard/internal/repository/timescale"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config      *config.Config
	srv         *http.Server
	dashservice *dashservice.DashService
	monitoring  *monitoring.Service
	checks      []healthCheck
	closers     []func(context.Context) error
}

// healthCheck pings one backing store
type healthCheck struct {
	name string
	ping func(ctx context.Context) error
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		srv:        srv,
		monitoring: monitoring.NewService(),
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	ctx := context.Background()

	// Initialize services
	s.initializeDashService(ctx)
	if err := s.dashservice.Validate(); err != nil {
		return err
	}

	// Set up service event handlers
	s.setupEventHandlers()

	// Setup routes
	s.srv.Handler = s.setupRoutes()

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	for _, closeFn := range s.closers {
		if err := closeFn(ctx); err != nil {
			nuts.L.Warnf("[Server] Error closing connection: %v", err)
		}
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// setupRoutes configures all routes for the server
func (s *Server) setupRoutes() http.Handler {
	res := resources.NewResources(s.dashservice, s.config.Uploads.MaxImageSize)
	res.SetHealthCheck(s.handleHealth())
	res.SetMetrics(s.handleMetrics())

	return api.NewRouter(res, middleware.HTTPConfig{
		AllowedOrigins: s.config.Server.AllowedOrigins,
	})
}

// handleHealth reports the version and the reachability of every backing store
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		checks := make(map[string]string, len(s.checks))
		for _, check := range s.checks {
			if err := check.ping(ctx); err != nil {
				checks[check.name] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			checks[check.name] = "ok"
		}

		writeJSON(w, code, map[string]interface{}{
			"status":  status,
			"version": nuts.GetVersion(),
			"source":  s.config.Dashboard.Source,
			"checks":  checks,
		})
	}
}

// handleMetrics exposes the recorded service events
func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var window time.Duration
		if raw := r.URL.Query().Get("window"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "window must be a duration like 1h"})
				return
			}
			window = d
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"uptime_seconds": int64(s.monitoring.Uptime().Seconds()),
			"events":         s.monitoring.GetEventMetrics(r.URL.Query().Get("event"), window),
		})
	}
}

func (s *Server) setupEventHandlers() {
	// Handle event uploads
	if err := s.dashservice.OnEvent(dashservice.EventUploaded, func(id string) {
		s.monitoring.RecordEvent("event_upload", nil, id)
	}); err != nil {
		nuts.L.Warnf("[Server] Failed to register upload handler: %v", err)
	}

	// Handle dataset invalidations
	if err := s.dashservice.OnEvent(dashservice.EventDatasetInvalidated, func(id string) {
		s.monitoring.RecordEvent("dataset_invalidation", map[string]string{
			"dataset": id,
		}, id)
	}); err != nil {
		nuts.L.Warnf("[Server] Failed to register invalidation handler: %v", err)
	}
}

// initializeDashService creates and configures the dashboard service
func (s *Server) initializeDashService(ctx context.Context) {
	store := s.initCacheStore(ctx)
	observations, intervals := s.initSources()
	events := s.initEventRepository(ctx)

	defaultFields := make([]models.Field, 0, len(s.config.Dashboard.DefaultFields))
	for _, f := range s.config.Dashboard.DefaultFields {
		defaultFields = append(defaultFields, models.Field(f))
	}

	s.dashservice = dashservice.New(
		dataset.NewCached[models.Observation](observations, store),
		dataset.NewCached[models.EventInterval](intervals, store),
		events,
		dashservice.Options{
			DefaultFields:    defaultFields,
			MaxImageSize:     s.config.Uploads.MaxImageSize,
			AllowedMimeTypes: s.config.Uploads.AllowedMimeTypes,
		},
	)
}

func (s *Server) initCacheStore(ctx context.Context) cache.Store {
	if s.config.Cache.Store != config.CacheRedis {
		nuts.L.Infof("[Server] Caching datasets in memory (ttl %v)", s.config.Cache.TTL)
		return cache.NewMemoryStore(s.config.Cache.TTL)
	}

	client, err := database.NewRedisClient(ctx, s.config.Redis)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to Redis: %v", err)
	}
	s.checks = append(s.checks, healthCheck{"redis", func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}})
	s.closers = append(s.closers, func(context.Context) error { return client.Close() })

	nuts.L.Infof("[Server] Caching datasets in Redis (ttl %v)", s.config.Cache.TTL)
	return cache.NewRedisStore(client, s.config.Cache.TTL)
}

func (s *Server) initSources() (repository.ObservationSource, repository.IntervalSource) {
	if s.config.Dashboard.Source == config.SourceCSV {
		nuts.L.Infof("[Server] Reading observations from %s and intervals from %s",
			s.config.Dashboard.ObservationsCSV, s.config.Dashboard.IntervalsCSV)
		return csvfile.NewObservationFile(s.config.Dashboard.ObservationsCSV),
			csvfile.NewIntervalFile(s.config.Dashboard.IntervalsCSV)
	}

	tsdb := initTimescaleDB(s.config.Database.TimescaleDB)
	observations, err := timescale.NewObservationRepository(tsdb)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize observation repository: %v", err)
	}
	intervals, err := timescale.NewIntervalRepository(tsdb)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize interval repository: %v", err)
	}
	s.checks = append(s.checks, healthCheck{"timescaledb", observations.Ping})
	s.closers = append(s.closers, func(context.Context) error { return observations.Close() })
	return observations, intervals
}

func (s *Server) initEventRepository(ctx context.Context) repository.EventRepository {
	client, err := database.NewMongoClient(ctx, s.config.Mongo)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to MongoDB: %v", err)
	}
	events, err := mongodb.NewEventRepository(ctx, client, s.config.Mongo.Database, s.config.Mongo.Collection)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize event repository: %v", err)
	}
	s.checks = append(s.checks, healthCheck{"mongodb", events.Ping})
	s.closers = append(s.closers, client.Disconnect)
	return events
}

func initTimescaleDB(cfg config.PostgresConfig) database.DB {
	db, err := database.NewTimescaleDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to TimescaleDB: %v", err)
	}
	// Set up connection timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping TimescaleDB: %v", err)
	}
	return db
}
