package access

import "errors"

var (
	ErrStoreRead        = errors.New("permission store read failed")
	ErrStoreWrite       = errors.New("permission store write failed")
	ErrAmbiguousPath    = errors.New("ambiguous page path")
	ErrInvalidTable     = errors.New("invalid permission table")
	ErrPageNotFound     = errors.New("page not found")
	ErrInvalidRole      = errors.New("invalid role")
	ErrLastRole         = errors.New("cannot remove the last role of a page")
	ErrSuperAdminLocked = errors.New("super admin access cannot be removed")
	ErrAlreadyStarted   = errors.New("authorizer already started")
	ErrClosed           = errors.New("authorizer closed")
)

// PersistenceError wraps a Permission Store failure. It matches Kind
// (ErrStoreRead or ErrStoreWrite) and the underlying cause with errors.Is.
type PersistenceError struct {
	Kind error
	Err  error
}

func (e *PersistenceError) Error() string {
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
