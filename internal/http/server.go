// Package http serves the clinic screens: login, Add, List/Export/Delete and
// the yearly Summary, plus health, readiness and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"consultas/internal/auth"
	"consultas/internal/core"
	applog "consultas/internal/log"
	"consultas/internal/metrics"
	"consultas/internal/middleware/ratelimit"
	"consultas/internal/middleware/security"
	"consultas/internal/middleware/trace"
	"consultas/internal/services"
	appweb "consultas/web"
)

const (
	loginPath = "/login"
	homePath  = "/"
)

// AppointmentService is what the screens need from the service layer.
type AppointmentService interface {
	Now() time.Time
	Record(ctx context.Context, req services.RecordRequest) (core.Appointment, error)
	List(ctx context.Context) ([]core.Appointment, error)
	Get(ctx context.Context, id int64) (core.Appointment, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
	CurrentYearSummary(ctx context.Context) (core.YearSummary, error)
}

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the HTTP settings taken from config.Config.
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	LoginPerMinute int
	ClinicName     string
}

// Deps are the collaborators the server is wired with.
type Deps struct {
	Appointments AppointmentService
	Store        Pinger
	Gate         *auth.Gate
	Sessions     *auth.Sessions
	Metrics      *metrics.Metrics
	Logger       *applog.Logger
}

type Server struct {
	http.Server

	appointments AppointmentService
	store        Pinger
	gate         *auth.Gate
	sessions     *auth.Sessions
	metrics      *metrics.Metrics
	logger       *applog.Logger
	events       *applog.StructuredLogger
	templates    *template.Template
	loginLimiter *ratelimit.Limiter
	detector     *security.Detector

	requestTimeout time.Duration
	clinicName     string
	started        time.Time
}

// NewServer parses the embedded templates and mounts every route.
func NewServer(cfg Config, deps Deps) (*Server, error) {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 7 * time.Second
	}

	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		appointments:   deps.Appointments,
		store:          deps.Store,
		gate:           deps.Gate,
		sessions:       deps.Sessions,
		metrics:        deps.Metrics,
		logger:         deps.Logger.WithComponent(applog.ComponentHTTP),
		events:         applog.NewStructuredLogger(deps.Logger),
		templates:      t,
		loginLimiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.LoginPerMinute}),
		detector:       security.NewDetector(),
		requestTimeout: cfg.RequestTimeout,
		clinicName:     cfg.ClinicName,
		started:        time.Now(),
	}

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	limitLogin := s.loginLimiter.Middleware(s.detector.ClientIP, s.handleLoginLimited)
	s.route(mux, "GET /login", http.HandlerFunc(s.handleLoginPage))
	s.route(mux, "POST /login", limitLogin(http.HandlerFunc(s.handleLogin)))
	s.route(mux, "POST /logout", http.HandlerFunc(s.handleLogout))

	s.protected(mux, "GET /{$}", s.handleAddPage)
	s.protected(mux, "GET /appointments/new", s.handleAddPage)
	s.protected(mux, "POST /appointments", s.handleCreateAppointment)
	s.protected(mux, "GET /appointments", s.handleListAppointments)
	s.protected(mux, "GET /appointments/export.xlsx", s.handleExportXLSX)
	s.protected(mux, "POST /appointments/delete", s.handleDeleteAppointments)
	s.protected(mux, "GET /appointments/{id}/receipt.pdf", s.handleReceipt)
	s.protected(mux, "GET /summary", s.handleSummary)
	s.protected(mux, "GET /ui/national-id", s.handleNationalID)

	tracer := trace.NewMiddleware(deps.Logger, s.detector.ClientIP)
	var handler http.Handler = mux
	handler = s.detector.Middleware(func(*http.Request) { s.metrics.SuspiciousRequests.Inc() })(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = applog.Middleware(deps.Logger, trace.GetRequestID)(handler)
	handler = tracer.Handler(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s, nil
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(pattern, s.metrics.Instrument(pattern, h))
}

func (s *Server) protected(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	s.route(mux, pattern, s.sessions.Require(loginPath, h))
}

// Shutdown stops the login limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.loginLimiter.Stop()
	return s.Server.Shutdown(ctx)
}

// requestContext bounds the store work of one request.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the templates and the SQLite store.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]string{"templates": "ok", "storage": "ok"}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	if s.store == nil {
		checks["storage"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
