package setuphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/setup"
	"hrportal/internal/domain/users"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

type Service interface {
	Status(ctx context.Context) (setup.Status, error)
	FirstSignup(ctx context.Context, in setup.FirstSignupInput) (users.User, error)
}

type Handler struct {
	Setup        Service
	Secret       string
	TTL          time.Duration
	SecureCookie bool
}

func NewHandler(service Service, secret string, ttl time.Duration, secureCookie bool) *Handler {
	return &Handler{Setup: service, Secret: secret, TTL: ttl, SecureCookie: secureCookie}
}

type firstSignupRequest struct {
	Name            string `json:"name" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/setup", func(r chi.Router) {
		r.Get("/status", h.handleStatus)
		r.Post("/first-signup", h.handleFirstSignup)
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	status, err := h.Setup.Status(r.Context())
	if err != nil {
		slog.Warn("setup status failed", "err", err)
		api.Fail(w, http.StatusServiceUnavailable, "status_unavailable", "system status unavailable", reqID)
		return
	}
	api.Success(w, status, reqID)
}

func (h *Handler) handleFirstSignup(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload firstSignupRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	payload.Email = strings.TrimSpace(payload.Email)

	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, reqID) {
		return
	}

	user, err := h.Setup.FirstSignup(r.Context(), setup.FirstSignupInput{
		Name:            payload.Name,
		Email:           payload.Email,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
		RequestID:       reqID,
		IP:              middleware.ClientIP(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword):
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "password", Reason: "must be at least 6 characters"}})
		case errors.Is(err, auth.ErrPasswordMismatch):
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "confirmPassword", Reason: "must match password"}})
		case errors.Is(err, setup.ErrAlreadyInitialized):
			api.Fail(w, http.StatusConflict, "already_initialized", "system already initialized", reqID)
		case errors.Is(err, users.ErrEmailTaken):
			api.Fail(w, http.StatusConflict, "email_taken", "email already registered", reqID)
		default:
			slog.Error("first signup failed", "err", err)
			api.Fail(w, http.StatusInternalServerError, "signup_failed", "first signup failed", reqID)
		}
		return
	}

	session, err := middleware.StartSession(w, h.Secret, user.ID, h.TTL, h.SecureCookie)
	if err != nil {
		slog.Error("token issue failed", "userId", user.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}
	api.Created(w, map[string]any{
		"token":     session.Token,
		"expiresAt": session.ExpiresAt,
		"user":      user,
	}, reqID)
}
