package healthhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/access"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type StateReporter interface {
	State() access.State
}

// Handler serves liveness and readiness probes. Pingers are optional
// dependencies such as the database pool or the redis client.
type Handler struct {
	Authorizer StateReporter
	Pingers    map[string]Pinger
	Timeout    time.Duration
}

func NewHandler(authorizer StateReporter, pingers map[string]Pinger) *Handler {
	return &Handler{Authorizer: authorizer, Pingers: pingers, Timeout: 2 * time.Second}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()
	for name, p := range h.Pingers {
		if err := p.Ping(ctx); err != nil {
			http.Error(w, name+" not ready", http.StatusServiceUnavailable)
			return
		}
	}
	if h.Authorizer.State() != access.StateReady {
		http.Error(w, "permissions not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
