package server

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hrportal/internal/domain/access"
	"hrportal/internal/domain/audit"
	"hrportal/internal/domain/setup"
	"hrportal/internal/domain/users"
	"hrportal/internal/platform/config"
	"hrportal/internal/platform/metrics"
	accesshandler "hrportal/internal/transport/http/handlers/access"
	audithandler "hrportal/internal/transport/http/handlers/audit"
	authhandler "hrportal/internal/transport/http/handlers/auth"
	healthhandler "hrportal/internal/transport/http/handlers/health"
	permissionshandler "hrportal/internal/transport/http/handlers/permissions"
	setuphandler "hrportal/internal/transport/http/handlers/setup"
	usershandler "hrportal/internal/transport/http/handlers/users"
	"hrportal/internal/transport/http/middleware"
)

type AuditService interface {
	audit.Recorder
	audithandler.Lister
}

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Config     config.Config
	Logger     *slog.Logger
	Authorizer *access.Authorizer
	Drafts     *access.DraftRegistry
	Users      *users.Service
	Setup      *setup.Service
	Audit      AuditService
	Metrics    *metrics.Collector
	Pingers    map[string]healthhandler.Pinger
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	secureCookie := cfg.IsProduction()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(d.Logger))
	if d.Metrics != nil {
		router.Use(middleware.Metrics(d.Metrics))
	}
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, d.Users))

	healthhandler.NewHandler(d.Authorizer, d.Pingers).RegisterRoutes(router)
	if d.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthRateLimit(cfg.RateLimitPerMinute, time.Minute))
			authhandler.NewHandler(d.Users, cfg.JWTSecret, cfg.TokenTTL, secureCookie).RegisterRoutes(r)
			setuphandler.NewHandler(d.Setup, cfg.JWTSecret, cfg.TokenTTL, secureCookie).RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
			accesshandler.NewHandler(d.Authorizer).RegisterRoutes(r)
			permissionshandler.NewHandler(d.Authorizer, d.Drafts, d.Audit).RegisterRoutes(r)
			audithandler.NewHandler(d.Audit, d.Authorizer).RegisterRoutes(r)
			usershandler.NewHandler(d.Users, d.Authorizer, d.Audit).RegisterRoutes(r)
		})
	})

	spa := spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"}
	router.Mount("/", middleware.PageGuard(d.Authorizer)(spa))
	return router
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean("/"+r.URL.Path))
	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if err == nil || os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
