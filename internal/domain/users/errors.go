package users

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrRoleNotAssignable  = errors.New("role not assignable")
	ErrInvalidRole        = errors.New("invalid role")
)
