package access

import "context"

// Update is one delivery from a live permission table subscription.
type Update struct {
	Table  Table
	Exists bool
	Err    error
}

type PermissionStore interface {
	// Load returns the stored table and whether one exists.
	Load(ctx context.Context) (Table, bool, error)
	// Save replaces the whole table in a single write.
	Save(ctx context.Context, t Table) error
	// Watch delivers every change made after it returns until the returned
	// cancel func is called.
	Watch(ctx context.Context, fn func(Update)) (func(), error)
}

// Records is a keyed single-record store with change notification.
type Records interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Watch(ctx context.Context, key string, fn func(value []byte, exists bool, err error)) (func(), error)
}
