// Package api exposes the patchbay editor over HTTP: device and cable
// CRUD, connection validation, cycle checks, setup audits, layout,
// project persistence and exports.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/dd0wney/cluso-patchbay/pkg/auth"
	"github.com/dd0wney/cluso-patchbay/pkg/checks"
	"github.com/dd0wney/cluso-patchbay/pkg/events"
	"github.com/dd0wney/cluso-patchbay/pkg/graphql"
	"github.com/dd0wney/cluso-patchbay/pkg/health"
	"github.com/dd0wney/cluso-patchbay/pkg/history"
	"github.com/dd0wney/cluso-patchbay/pkg/library"
	"github.com/dd0wney/cluso-patchbay/pkg/logging"
	"github.com/dd0wney/cluso-patchbay/pkg/metrics"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/project"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20 // 1 MiB, patch documents are small

// Options configures the optional collaborators of a Server. Nil
// fields disable the corresponding surface: no Projects means no
// persistence endpoints, no JWTManager means auth is not enforced.
type Options struct {
	Auditor      *checks.Auditor
	Library      *library.Library
	Projects     project.Store
	Users        *auth.UserStore
	JWTManager   *auth.JWTManager
	Metrics      *metrics.Registry
	Logger       logging.Logger
	Bus          *events.Bus
	RejectCycles bool // refuse cables that would close a feedback loop
	Version      string
}

// Server represents the HTTP API server
type Server struct {
	store          *patch.Store
	auditor        *checks.Auditor
	library        *library.Library
	projects       project.Store
	users          *auth.UserStore
	jwtManager     *auth.JWTManager
	metrics        *metrics.Registry
	logger         logging.Logger
	bus            *events.Bus
	health         *health.Checker
	history        *history.Stack
	graphqlHandler *graphql.GraphQLHandler
	rejectCycles   bool
	startTime      time.Time
	version        string
}

// NewServer creates a new API server
func NewServer(store *patch.Store, opts Options) *Server {
	if opts.Auditor == nil {
		opts.Auditor = checks.NewAuditor()
	}
	if opts.Library == nil {
		opts.Library = library.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Bus == nil {
		opts.Bus = events.New()
	}

	s := &Server{
		store:        store,
		auditor:      opts.Auditor,
		library:      opts.Library,
		projects:     opts.Projects,
		users:        opts.Users,
		jwtManager:   opts.JWTManager,
		metrics:      opts.Metrics,
		logger:       opts.Logger.With(logging.Component("api")),
		bus:          opts.Bus,
		history:      history.NewStack(0),
		rejectCycles: opts.RejectCycles,
		startTime:    time.Now(),
		version:      opts.Version,
	}
	s.health = s.buildHealthChecker()

	schema, err := graphql.GenerateSchema(store, s.auditor)
	if err != nil {
		s.logger.Warn("failed to generate GraphQL schema", logging.Error(err))
	} else {
		s.graphqlHandler = graphql.NewGraphQLHandler(schema)
	}
	return s
}

// Handler builds the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health and metrics
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/health/live", s.health.LivenessHandler())
	mux.HandleFunc("/health/ready", s.health.ReadinessHandler())
	mux.HandleFunc("/stats", s.handleStats)
	mux.Handle("/metrics", promhttp.HandlerFor(
		s.metrics.GetPrometheusRegistry(),
		promhttp.HandlerOpts{},
	))

	// Patch graph
	mux.HandleFunc("/devices", s.handleDevices)
	mux.HandleFunc("/devices/", s.handleDevice) // /devices/{id}
	mux.HandleFunc("/cables", s.handleCables)
	mux.HandleFunc("/cables/", s.handleCable) // /cables/{id}

	// Validation and audit
	mux.HandleFunc("/validate", s.handleValidate)
	mux.HandleFunc("/cycle-check", s.handleCycleCheck)
	mux.HandleFunc("/audit", s.handleAudit)

	// Library and layout
	mux.HandleFunc("/templates", s.handleTemplates)
	mux.HandleFunc("/templates/place", s.handlePlaceTemplate)
	mux.HandleFunc("/layout", s.handleLayout)

	// Exports
	mux.HandleFunc("/export/render", s.handleExportRender)
	mux.HandleFunc("/export/dot", s.handleExportDot)

	// Undo/redo
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/history/undo", s.handleUndo)
	mux.HandleFunc("/history/redo", s.handleRedo)

	// Projects
	mux.HandleFunc("/projects", s.handleProjects)
	mux.HandleFunc("/projects/", s.handleProject) // /projects/{name}

	// GraphQL and live updates
	mux.HandleFunc("/graphql", s.handleGraphQL)
	mux.HandleFunc("/events", s.handleEvents)

	// Auth
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/me", s.handleWhoAmI)

	var handler http.Handler = mux
	handler = s.bodySizeLimitMiddleware(handler, maxBodyBytes)
	handler = s.corsMiddleware(handler)
	handler = s.metricsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = s.panicRecoveryMiddleware(handler)
	return handler
}

func (s *Server) buildHealthChecker() *health.Checker {
	hc := health.NewChecker()
	hc.RegisterLiveness("memory", health.MemoryCheck(func() (uint64, uint64) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return m.Alloc, m.Sys
	}))
	hc.RegisterReadiness("graph", health.GraphCheck(func() (int, int) {
		var errCount, warnCount int
		for _, issue := range s.auditor.Audit(s.store.Snapshot()) {
			switch issue.Severity {
			case checks.Error:
				errCount++
			case checks.Warning:
				warnCount++
			}
		}
		return errCount, warnCount
	}))
	if s.projects != nil {
		hc.RegisterReadiness("project_store", health.ProjectStoreCheck(func(ctx context.Context) error {
			_, err := s.projects.List(ctx)
			return err
		}))
	}
	return hc
}

// Close releases the server's event bus, disconnecting any /events
// streams.
func (s *Server) Close() {
	s.bus.Close()
}

// handleEvents streams graph change notifications as server-sent
// events. The stream ends when the client disconnects or the bus
// shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	sub := s.bus.Subscribe(r.Context())
	if sub == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Event stream shutting down")
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for ev := range sub.Events() {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("error encoding event", logging.Error(err))
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, payload)
		flusher.Flush()
	}
}

func (s *Server) publish(ev events.Event) {
	s.bus.Publish(ev)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.store.GetStatistics()
	s.metrics.UpdateGraphSize(stats.DeviceCount, stats.CableCount, stats.PortCount)
	s.respondJSON(w, http.StatusOK, StatsResponse{
		DeviceCount: stats.DeviceCount,
		CableCount:  stats.CableCount,
		PortCount:   stats.PortCount,
		Uptime:      time.Since(s.startTime).String(),
	})
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if s.graphqlHandler == nil {
		s.respondError(w, http.StatusServiceUnavailable, "GraphQL endpoint not available")
		return
	}
	s.graphqlHandler.ServeHTTP(w, r)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("error encoding JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
