package setup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"hrportal/internal/domain/access"
	"hrportal/internal/domain/audit"
	"hrportal/internal/domain/auth"
	"hrportal/internal/domain/users"
)

// StatusKey is the record marking a system that has its first super admin.
const StatusKey = "system/initialized"

var ErrAlreadyInitialized = errors.New("system already initialized")

type Status struct {
	Initialized   bool       `json:"initialized"`
	InitializedAt *time.Time `json:"initializedAt,omitempty"`
	InitializedBy string     `json:"initializedBy,omitempty"`
}

type UserDirectory interface {
	Create(ctx context.Context, in users.NewUser) (users.User, error)
	ByEmail(ctx context.Context, email string) (users.User, error)
	Delete(ctx context.Context, id string) error
}

type PermissionWriter interface {
	Commit(ctx context.Context, t access.Table) error
}

type FirstSignupInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	RequestID       string
	IP              string
}

type Service struct {
	Records     access.Records
	Users       UserDirectory
	Permissions PermissionWriter
	Audit       audit.Recorder

	mu  sync.Mutex
	now func() time.Time
}

func NewService(records access.Records, usersSvc UserDirectory, permissions PermissionWriter, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Service{
		Records:     records,
		Users:       usersSvc,
		Permissions: permissions,
		Audit:       recorder,
		now:         time.Now,
	}
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	raw, ok, err := s.Records.Get(ctx, StatusKey)
	if err != nil {
		return Status{}, err
	}
	if !ok {
		return Status{}, nil
	}
	var out Status
	if err := json.Unmarshal(raw, &out); err != nil {
		return Status{}, fmt.Errorf("decode system status: %w", err)
	}
	return out, nil
}

// FirstSignup creates the first super admin, writes the default permission
// table and marks the system initialized. It fails with
// ErrAlreadyInitialized once that has completed. If a later step fails the
// new account is removed again so the sign-up can be retried.
func (s *Service) FirstSignup(ctx context.Context, in FirstSignupInput) (users.User, error) {
	if err := auth.ValidatePassword(in.Password, in.ConfirmPassword); err != nil {
		return users.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status, err := s.Status(ctx)
	if err != nil {
		return users.User{}, err
	}
	if status.Initialized {
		return users.User{}, ErrAlreadyInitialized
	}

	u, err := s.Users.Create(ctx, users.NewUser{
		Email:       in.Email,
		DisplayName: in.Name,
		Password:    in.Password,
		Role:        access.RoleSuperAdmin,
	})
	if err != nil {
		return users.User{}, err
	}

	if err := s.Permissions.Commit(ctx, access.DefaultTable()); err != nil {
		s.discard(ctx, u)
		return users.User{}, err
	}
	status, err = s.markInitialized(ctx, u.ID)
	if err != nil {
		s.discard(ctx, u)
		return users.User{}, err
	}

	if err := s.Audit.Record(ctx, audit.Entry{
		ActorID:    u.ID,
		Action:     audit.ActionFirstSignup,
		EntityType: audit.EntitySystem,
		EntityID:   StatusKey,
		RequestID:  in.RequestID,
		IP:         in.IP,
		After:      status,
	}); err != nil {
		slog.Warn("audit first signup failed", "err", err)
	}
	return u, nil
}

type SeedAdmin struct {
	Email      string
	Password   string
	Name       string
	Department string
}

// EnsureSuperAdmin provisions a super admin outside the sign-up flow. An
// already registered email is left as is and the system is still marked
// initialized by that account.
func (s *Service) EnsureSuperAdmin(ctx context.Context, seed SeedAdmin) error {
	if strings.TrimSpace(seed.Email) == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Users.Create(ctx, users.NewUser{
		Email:       seed.Email,
		DisplayName: seed.Name,
		Password:    seed.Password,
		Role:        access.RoleSuperAdmin,
		Department:  seed.Department,
	})
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		u, err = s.Users.ByEmail(ctx, seed.Email)
		if err != nil {
			return fmt.Errorf("look up seed super admin: %w", err)
		}
		slog.Info("seed super admin already exists", "userId", u.ID)
	case err != nil:
		return err
	default:
		slog.Info("seed super admin created", "userId", u.ID)
	}

	status, err := s.Status(ctx)
	if err != nil {
		return err
	}
	if status.Initialized {
		return nil
	}
	_, err = s.markInitialized(ctx, u.ID)
	return err
}

func (s *Service) discard(ctx context.Context, u users.User) {
	if err := s.Users.Delete(context.WithoutCancel(ctx), u.ID); err != nil {
		slog.Warn("remove incomplete first signup account failed", "userId", u.ID, "err", err)
	}
}

func (s *Service) markInitialized(ctx context.Context, userID string) (Status, error) {
	now := s.now().UTC()
	status := Status{Initialized: true, InitializedAt: &now, InitializedBy: userID}
	raw, err := json.Marshal(status)
	if err != nil {
		return Status{}, err
	}
	if err := s.Records.Set(ctx, StatusKey, raw); err != nil {
		return Status{}, fmt.Errorf("write system status: %w", err)
	}
	return status, nil
}
