package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notifyChannel = "kv_records"

// Postgres stores records as JSONB rows in kv_records. Set notifies the
// kv_records channel with the key inside the writing transaction, so
// listeners only hear about committed values.
type Postgres struct {
	DB      *pgxpool.Pool
	Backoff time.Duration
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{DB: db, Backoff: time.Second}
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := p.DB.QueryRow(ctx, "SELECT value::text FROM kv_records WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	tx, err := p.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO kv_records (key, value)
    VALUES ($1, $2::jsonb)
    ON CONFLICT (key) DO UPDATE
      SET value = EXCLUDED.value,
          updated_at = now()
  `, key, string(value)); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	if _, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, key); err != nil {
		return fmt.Errorf("kv notify %s: %w", key, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("kv set %s: %w", key, err)
	}
	return nil
}

// Watch listens on a dedicated pooled connection until ctx is done or the
// returned func is called. After a dropped connection it reconnects with
// backoff and re-reads the record, since notifications sent while
// disconnected are lost.
func (p *Postgres) Watch(ctx context.Context, key string, fn WatchFunc) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	conn, err := p.listenConn(ctx)
	if err != nil {
		cancel()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.listenLoop(ctx, conn, key, fn)
	}()
	return func() {
		cancel()
		<-done
	}, nil
}

func (p *Postgres) listenConn(ctx context.Context) (*pgxpool.Conn, error) {
	conn, err := p.DB.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("kv listen acquire: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{notifyChannel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("kv listen: %w", err)
	}
	return conn, nil
}

func (p *Postgres) listenLoop(ctx context.Context, conn *pgxpool.Conn, key string, fn WatchFunc) {
	for {
		err := p.waitLoop(ctx, conn, key, fn)
		releaseListener(conn)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("kv listener dropped", "key", key, "err", err)

		for {
			timer := time.NewTimer(p.backoff())
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			conn, err = p.listenConn(ctx)
			if err == nil {
				break
			}
			slog.Warn("kv listener reconnect failed", "key", key, "err", err)
		}
		p.deliver(ctx, key, fn)
	}
}

func (p *Postgres) waitLoop(ctx context.Context, conn *pgxpool.Conn, key string, fn WatchFunc) error {
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Channel != notifyChannel || n.Payload != key {
			continue
		}
		p.deliver(ctx, key, fn)
	}
}

func (p *Postgres) deliver(ctx context.Context, key string, fn WatchFunc) {
	value, ok, err := p.Get(ctx, key)
	if ctx.Err() != nil {
		return
	}
	fn(value, ok, err)
}

func releaseListener(conn *pgxpool.Conn) {
	if !conn.Conn().IsClosed() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, _ = conn.Exec(ctx, "UNLISTEN *")
		cancel()
	}
	conn.Release()
}

func (p *Postgres) backoff() time.Duration {
	if p.Backoff <= 0 {
		return time.Second
	}
	return p.Backoff
}
