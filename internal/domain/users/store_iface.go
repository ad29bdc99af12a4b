package users

import "context"

type StoreAPI interface {
	Create(ctx context.Context, u User) (User, error)
	ByID(ctx context.Context, id string) (User, error)
	ByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	UpdateRole(ctx context.Context, id, role string) error
	TouchLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
