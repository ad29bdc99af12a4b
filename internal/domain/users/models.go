package users

import (
	"time"

	"hrportal/internal/domain/access"
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	DisplayName  string     `json:"name"`
	Role         string     `json:"role"`
	Department   string     `json:"department"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Principal is the identity the authorizer decides for.
func (u User) Principal() *access.Principal {
	return &access.Principal{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Role:        access.NormalizeRole(u.Role),
		Department:  u.Department,
	}
}

type NewUser struct {
	Email       string
	DisplayName string
	Password    string
	Role        string
	Department  string
}

type ListFilter struct {
	Query  string
	Limit  int
	Offset int
}
