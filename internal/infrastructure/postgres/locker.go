package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"

	"finboard/internal/domain/banksync"
)

// AdvisoryLocker serializes work on a key across processes with Postgres
// session-level advisory locks. Each held lock pins one pooled connection,
// and the context TryLock returns routes the holder's statements onto it.
type AdvisoryLocker struct {
	db *DB
}

func NewAdvisoryLocker(db *DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

// TryLock returns banksync.ErrSyncInProgress when another session holds key.
func (l *AdvisoryLocker) TryLock(ctx context.Context, key string) (context.Context, func(), error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire lock connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, key).Scan(&acquired); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return nil, nil, banksync.ErrSyncInProgress
	}

	return withConn(ctx, conn), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, key); err != nil {
			slog.Warn("failed to release advisory lock", "key", key, "error", err)
			// Drop the session so the lock dies with it.
			_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		}
		conn.Close()
	}, nil
}
