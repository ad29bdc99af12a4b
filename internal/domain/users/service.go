package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"hrportal/internal/domain/access"
	"hrportal/internal/domain/auth"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Service struct {
	Store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{Store: store}
}

// Create registers a user with a hashed password. An empty role becomes
// access.RoleUser.
func (s *Service) Create(ctx context.Context, in NewUser) (User, error) {
	role := access.NormalizeRole(in.Role)
	if !access.ValidRole(role) {
		return User{}, fmt.Errorf("%w: %q", ErrInvalidRole, in.Role)
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return User{}, errors.New("email required")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, err
	}
	return s.Store.Create(ctx, User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Role:         role,
		Department:   strings.TrimSpace(in.Department),
		PasswordHash: hash,
	})
}

// Authenticate checks email and password. Unknown emails and wrong
// passwords both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.Store.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if err := s.Store.TouchLastLogin(ctx, u.ID); err != nil {
		slog.Warn("last login update failed", "userId", u.ID, "err", err)
	}
	u.Role = access.NormalizeRole(u.Role)
	return u, nil
}

// Profile returns the stored profile with its role normalized.
func (s *Service) Profile(ctx context.Context, id string) (User, error) {
	u, err := s.Store.ByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	u.Role = access.NormalizeRole(u.Role)
	return u, nil
}

// ByEmail looks a user up by email, ignoring case and surrounding space.
func (s *Service) ByEmail(ctx context.Context, email string) (User, error) {
	u, err := s.Store.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, err
	}
	u.Role = access.NormalizeRole(u.Role)
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Store.Delete(ctx, id)
}

// Principal resolves a token subject to the principal used for decisions.
func (s *Service) Principal(ctx context.Context, id string) (*access.Principal, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Principal(), nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	out, total, err := s.Store.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Role = access.NormalizeRole(out[i].Role)
	}
	return out, total, nil
}

// SetRole changes the role of user id on behalf of actor and returns the
// profile before and after the change. The actor must be allowed to grant
// both the current and the new role, so an admin can neither promote to nor
// demote from super admin.
func (s *Service) SetRole(ctx context.Context, actor *access.Principal, id, role string) (User, User, error) {
	role = access.NormalizeRole(role)
	if !access.ValidRole(role) {
		return User{}, User{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if actor == nil {
		return User{}, User{}, ErrRoleNotAssignable
	}
	before, err := s.Profile(ctx, id)
	if err != nil {
		return User{}, User{}, err
	}
	if !access.CanAssign(actor.Role, role) || !access.CanAssign(actor.Role, before.Role) {
		return User{}, User{}, ErrRoleNotAssignable
	}
	if before.Role == role {
		return before, before, nil
	}
	if err := s.Store.UpdateRole(ctx, id, role); err != nil {
		return User{}, User{}, err
	}
	after := before
	after.Role = role
	return before, after, nil
}
