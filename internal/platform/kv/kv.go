// Package kv provides keyed single-record stores with change notification.
// Each record is written whole; watchers see every change made after Watch
// returns.
package kv

import (
	"context"
	"errors"
)

var ErrClosed = errors.New("kv: store closed")

// WatchFunc receives the new value of a record, whether the record exists,
// or an error when the change could not be read back.
type WatchFunc = func(value []byte, exists bool, err error)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Watch(ctx context.Context, key string, fn WatchFunc) (func(), error)
}
