package permissionshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrportal/internal/domain/access"
	"hrportal/internal/domain/audit"
	"hrportal/internal/domain/navigation"
	"hrportal/internal/domain/reports"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
	"hrportal/internal/transport/http/shared"
)

// Drafts stages per-administrator edits of the live table.
type Drafts interface {
	Get(principalID string) access.DraftView
	Toggle(principalID, pageID, role string) (access.DraftView, error)
	Commit(ctx context.Context, principalID string) (access.Table, error)
	Discard(principalID string)
}

type Live interface {
	navigation.Checker
	Snapshot() access.Table
	State() access.State
	LastError() error
}

type Handler struct {
	Access Live
	Drafts Drafts
	Audit  audit.Recorder
}

func NewHandler(live Live, drafts Drafts, recorder audit.Recorder) *Handler {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Handler{Access: live, Drafts: drafts, Audit: recorder}
}

type roleOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type liveResponse struct {
	Table     access.Table  `json:"table"`
	Pages     []access.Page `json:"pages"`
	Roles     []roleOption  `json:"roles"`
	State     string        `json:"state"`
	LastError string        `json:"lastError,omitempty"`
}

type toggleRequest struct {
	PageID string `json:"pageId" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/page-permissions", func(r chi.Router) {
		r.Use(middleware.RequirePage(h.Access, navigation.RolesPath))
		r.Get("/", h.handleLive)
		r.Get("/export.pdf", h.handleExport)
		r.Get("/draft", h.handleDraft)
		r.Delete("/draft", h.handleDiscard)
		r.Post("/draft/toggle", h.handleToggle)
		r.Post("/draft/commit", h.handleCommit)
	})
}

func (h *Handler) handleLive(w http.ResponseWriter, r *http.Request) {
	roles := make([]roleOption, 0, len(access.Roles()))
	for _, role := range access.Roles() {
		roles = append(roles, roleOption{ID: role, Name: access.RoleName(role)})
	}
	resp := liveResponse{
		Table: h.Access.Snapshot(),
		Pages: access.SystemPages(),
		Roles: roles,
		State: h.Access.State().String(),
	}
	if err := h.Access.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	api.Success(w, resp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDraft(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	api.Success(w, h.Drafts.Get(user.ID), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDiscard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	h.Drafts.Discard(user.ID)
	api.Success(w, h.Drafts.Get(user.ID), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload toggleRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	payload.PageID = strings.TrimSpace(payload.PageID)
	payload.Role = strings.ToLower(strings.TrimSpace(payload.Role))

	validator := shared.NewValidator()
	validator.Struct(payload)
	validator.Enum("role", payload.Role, access.Roles(), "must be one of user, manager, admin, super admin")
	if validator.Reject(w, reqID) {
		return
	}

	view, err := h.Drafts.Toggle(user.ID, payload.PageID, payload.Role)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrPageNotFound):
			api.Fail(w, http.StatusNotFound, "page_not_found", "page not found", reqID)
		case errors.Is(err, access.ErrInvalidRole):
			api.Fail(w, http.StatusBadRequest, "invalid_role", "invalid role", reqID)
		case errors.Is(err, access.ErrSuperAdminLocked):
			api.Fail(w, http.StatusConflict, "super_admin_locked", "super admin access cannot be removed", reqID)
		case errors.Is(err, access.ErrLastRole):
			api.Fail(w, http.StatusConflict, "last_role", "a page needs at least one role", reqID)
		default:
			api.Fail(w, http.StatusInternalServerError, "toggle_failed", "failed to update draft", reqID)
		}
		return
	}
	api.Success(w, view, reqID)
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	before := h.Access.Snapshot()
	after, err := h.Drafts.Commit(r.Context(), user.ID)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrStoreWrite):
			slog.Error("permission commit failed", "userId", user.ID, "err", err)
			api.Fail(w, http.StatusServiceUnavailable, "store_unavailable", "failed to save page permissions", reqID)
		case errors.Is(err, access.ErrAmbiguousPath), errors.Is(err, access.ErrInvalidTable):
			api.Fail(w, http.StatusUnprocessableEntity, "invalid_table", err.Error(), reqID)
		default:
			slog.Error("permission commit failed", "userId", user.ID, "err", err)
			api.Fail(w, http.StatusInternalServerError, "commit_failed", "failed to save page permissions", reqID)
		}
		return
	}

	if err := h.Audit.Record(r.Context(), audit.Entry{
		ActorID:    user.ID,
		Action:     audit.ActionPermissionsCommit,
		EntityType: audit.EntityPagePermissions,
		EntityID:   access.PermissionsKey,
		RequestID:  reqID,
		IP:         middleware.ClientIP(r),
		Before:     before,
		After:      after,
	}); err != nil {
		slog.Warn("audit permission commit failed", "err", err)
	}
	api.Success(w, h.Drafts.Get(user.ID), reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	table := h.Access.Snapshot()
	if r.URL.Query().Get("source") == "draft" {
		table = h.Drafts.Get(user.ID).Table
	}
	doc, err := reports.AccessMatrixPDF(table, reports.MatrixOptions{GeneratedBy: user.Email, GeneratedAt: time.Now()})
	if err != nil {
		slog.Error("access matrix export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render access matrix", reqID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=page-access-matrix.pdf")
	if _, err := w.Write(doc); err != nil {
		slog.Warn("access matrix write failed", "err", err)
	}
}
