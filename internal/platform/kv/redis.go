package kv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis stores each record under its key and announces writes on the
// kv:<key> channel. SET and PUBLISH run in one MULTI block; the published
// payload is the new value, so watchers never re-read.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func channelFor(key string) string {
	return "kv:" + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, 0)
		pipe.Publish(ctx, channelFor(key), value)
		return nil
	})
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Watch(ctx context.Context, key string, fn WatchFunc) (func(), error) {
	sub := r.client.Subscribe(ctx, channelFor(key))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("kv subscribe %s: %w", key, err)
	}

	done := make(chan struct{})
	messages := sub.Channel()
	go func() {
		defer close(done)
		for msg := range messages {
			fn([]byte(msg.Payload), true, nil)
		}
	}()

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = sub.Close()
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
		<-done
	}, nil
}
