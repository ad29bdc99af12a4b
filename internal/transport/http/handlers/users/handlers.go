package usershandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/access"
	"hrportal/internal/domain/audit"
	"hrportal/internal/domain/navigation"
	"hrportal/internal/domain/users"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

type Service interface {
	List(ctx context.Context, filter users.ListFilter) ([]users.User, int, error)
	SetRole(ctx context.Context, actor *access.Principal, id, role string) (users.User, users.User, error)
}

type Handler struct {
	Users   Service
	Checker navigation.Checker
	Audit   audit.Recorder
}

func NewHandler(service Service, checker navigation.Checker, recorder audit.Recorder) *Handler {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Handler{Users: service, Checker: checker, Audit: recorder}
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequirePage(h.Checker, navigation.UsersPath))
		r.Get("/", h.handleList)
		r.Put("/{userID}/role", h.handleSetRole)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	out, total, err := h.Users.List(r.Context(), users.ListFilter{
		Query:  strings.TrimSpace(r.URL.Query().Get("q")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		slog.Error("list users failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "users_list_failed", "failed to list users", reqID)
		return
	}
	shared.SetTotal(w, total)
	api.Success(w, out, reqID)
}

func (h *Handler) handleSetRole(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")

	var payload roleRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	payload.Role = strings.ToLower(strings.TrimSpace(payload.Role))

	validator := shared.NewValidator()
	validator.Struct(payload)
	validator.Enum("role", payload.Role, access.Roles(), "must be one of user, manager, admin, super admin")
	if validator.Reject(w, reqID) {
		return
	}

	before, after, err := h.Users.SetRole(r.Context(), actor, userID, payload.Role)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
		case errors.Is(err, users.ErrInvalidRole):
			api.Fail(w, http.StatusBadRequest, "invalid_role", "invalid role", reqID)
		case errors.Is(err, users.ErrRoleNotAssignable):
			api.Fail(w, http.StatusForbidden, "role_not_assignable", "you may not assign this role", reqID)
		default:
			slog.Error("set role failed", "userId", userID, "err", err)
			api.Fail(w, http.StatusInternalServerError, "set_role_failed", "failed to update role", reqID)
		}
		return
	}

	if before.Role != after.Role {
		if err := h.Audit.Record(r.Context(), audit.Entry{
			ActorID:    actor.ID,
			Action:     audit.ActionRoleChanged,
			EntityType: audit.EntityUser,
			EntityID:   userID,
			RequestID:  reqID,
			IP:         middleware.ClientIP(r),
			Before:     map[string]string{"role": before.Role},
			After:      map[string]string{"role": after.Role},
		}); err != nil {
			slog.Warn("audit role change failed", "err", err)
		}
	}
	api.Success(w, after, reqID)
}
