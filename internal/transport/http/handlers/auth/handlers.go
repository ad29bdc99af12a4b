package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/access"
	"hrportal/internal/domain/users"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (users.User, error)
	Profile(ctx context.Context, id string) (users.User, error)
}

type Handler struct {
	Users        Authenticator
	Secret       string
	TTL          time.Duration
	SecureCookie bool
}

func NewHandler(usersSvc Authenticator, secret string, ttl time.Duration, secureCookie bool) *Handler {
	return &Handler{Users: usersSvc, Secret: secret, TTL: ttl, SecureCookie: secureCookie}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	middleware.Session
	User     users.User `json:"user"`
	RoleName string     `json:"roleName"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
		r.With(middleware.RequireAuth).Get("/me", h.HandleMe)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	payload.Email = strings.TrimSpace(payload.Email)

	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, reqID) {
		return
	}

	user, err := h.Users.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
			return
		}
		slog.Error("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", reqID)
		return
	}

	session, err := middleware.StartSession(w, h.Secret, user.ID, h.TTL, h.SecureCookie)
	if err != nil {
		slog.Error("token issue failed", "userId", user.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}
	api.Success(w, sessionResponse{Session: session, User: user, RoleName: access.RoleName(user.Role)}, reqID)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	middleware.EndSession(w, h.SecureCookie)
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, _ := middleware.GetUser(r.Context())
	user, err := h.Users.Profile(r.Context(), principal.ID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "profile_failed", "failed to load profile", reqID)
		return
	}
	api.Success(w, map[string]any{"user": user, "roleName": access.RoleName(user.Role)}, reqID)
}
