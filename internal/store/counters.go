package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"autosort/internal/services"
)

const metaTotalMoved = "total_files_moved"

// IncrementMoved bumps the all-time moved-file counter and returns the new value.
func (s *Store) IncrementMoved(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var total int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := readCounter(ctx, tx, metaTotalMoved)
		if err != nil {
			return err
		}
		total = current + 1
		return setMeta(ctx, tx, metaTotalMoved, strconv.FormatInt(total, 10))
	})
	if err != nil {
		return 0, services.Wrap(services.ErrStore, "store", "increment counter", metaTotalMoved, err)
	}
	return total, nil
}

// TotalMoved returns the all-time moved-file counter. History eviction and
// clearing do not reduce it.
func (s *Store) TotalMoved(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var total int64
	err := retryOnBusy(ctx, func() error {
		var readErr error
		total, readErr = readCounter(ctx, s.db, metaTotalMoved)
		return readErr
	})
	if err != nil {
		return 0, services.Wrap(services.ErrStore, "store", "read counter", metaTotalMoved, err)
	}
	return total, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readCounter(ctx context.Context, q queryRower, key string) (int64, error) {
	var raw string
	err := q.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}
