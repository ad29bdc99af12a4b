package accesshandler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/access"
	"hrportal/internal/domain/navigation"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

// Authorizer answers both the asynchronous guard check and the synchronous
// menu filter.
type Authorizer interface {
	navigation.Checker
	navigation.Decider
}

type Handler struct {
	Access Authorizer
}

func NewHandler(authorizer Authorizer) *Handler {
	return &Handler{Access: authorizer}
}

type checkResponse struct {
	Path string `json:"path"`
	navigation.Decision
}

type navigationResponse struct {
	Role     string            `json:"role"`
	RoleName string            `json:"roleName"`
	Items    []navigation.Item `json:"items"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/access/check", h.handleCheck)
	r.With(middleware.RequireAuth).Get("/navigation", h.handleNavigation)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	path := strings.TrimSpace(r.URL.Query().Get("path"))

	validator := shared.NewValidator()
	if path == "" {
		validator.Add("path", "is required")
	} else if !strings.HasPrefix(path, "/") {
		validator.Add("path", "must start with /")
	}
	if validator.Reject(w, reqID) {
		return
	}

	user, _ := middleware.GetUser(r.Context())
	decision, err := navigation.Guard(r.Context(), h.Access, user, path)
	if err != nil {
		slog.Warn("access check failed", "path", path, "err", err)
		api.Fail(w, http.StatusServiceUnavailable, "permissions_unavailable", "page permissions are still loading", reqID)
		return
	}
	api.Success(w, checkResponse{Path: path, Decision: decision}, reqID)
}

func (h *Handler) handleNavigation(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, navigationResponse{
		Role:     user.Role,
		RoleName: access.RoleName(user.Role),
		Items:    navigation.Menu(h.Access, user),
	}, middleware.GetRequestID(r.Context()))
}
