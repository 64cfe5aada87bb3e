package store

import (
	"context"
	"database/sql"
	"time"

	"autosort/internal/history"
	"autosort/internal/services"
)

// LoadHistory returns the stored move records, newest first.
func (s *Store) LoadHistory(ctx context.Context) ([]history.Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT id, original_path, new_path, rule_name, moved_at, file_size, can_undo
		FROM history ORDER BY position`)
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "load history", "", err)
	}
	defer rows.Close()

	var out []history.Record
	for rows.Next() {
		var (
			rec     history.Record
			movedAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.OriginalPath, &rec.NewPath, &rec.RuleName, &movedAt, &rec.FileSize, &rec.CanUndo); err != nil {
			return nil, services.Wrap(services.ErrStore, "store", "load history", "scan", err)
		}
		rec.Timestamp = time.UnixMilli(movedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "load history", "", err)
	}
	return out, nil
}

// SaveHistory replaces the stored records with records, preserving order.
func (s *Store) SaveHistory(ctx context.Context, records []history.Record) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM history"); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO history
			(id, position, original_path, new_path, rule_name, moved_at, file_size, can_undo)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, rec := range records {
			if _, err := stmt.ExecContext(ctx,
				rec.ID, i, rec.OriginalPath, rec.NewPath, rec.RuleName,
				rec.Timestamp.UnixMilli(), rec.FileSize, rec.CanUndo,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "save history", "", err)
	}
	return nil
}
