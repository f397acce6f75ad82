package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"go.uber.org/zap"

	"github.com/genixhq/genix/internal/payout"
)

const unlockTimeout = 5 * time.Second

func runLockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("genix"))
	h.Write([]byte{0})
	h.Write([]byte(name))

	return int64(h.Sum64())
}

// RunLock is a session-level Postgres advisory lock held on a dedicated
// connection for the duration of a payout run.
type RunLock struct {
	db     *sql.DB
	key    int64
	logger *zap.Logger
}

func NewRunLock(db *sql.DB, name string, logger *zap.Logger) *RunLock {
	return &RunLock{db: db, key: runLockKey(name), logger: logger}
}

// Acquire returns a context that is cancelled on release.
func (l *RunLock) Acquire(ctx context.Context) (context.Context, func(), error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("reserving lock connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&acquired); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("acquiring payout run lock: %w", err)
	}

	if !acquired {
		conn.Close()
		return nil, nil, payout.ErrRunInProgress
	}

	lockCtx, done := context.WithCancel(ctx)

	release := func() {
		done()

		ctx, cancel := context.WithTimeout(context.Background(), unlockTimeout)
		defer cancel()

		if err := l.unlock(ctx, conn); err != nil {
			l.logger.Warn("failed to release payout run lock", zap.Int64("key", l.key), zap.Error(err))
		}
	}

	return lockCtx, release, nil
}

// unlock releases the advisory lock and returns the connection to the pool.
// pg_advisory_unlock reports false when this session did not hold the lock.
func (l *RunLock) unlock(ctx context.Context, conn *sql.Conn) error {
	defer conn.Close()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.key).Scan(&released); err != nil {
		return fmt.Errorf("unlocking payout run lock: %w", err)
	}

	if !released {
		return errors.New("payout run lock was not held by this session")
	}

	return nil
}
