package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"autosort/internal/rules"
	"autosort/internal/services"
)

const metaRulesSeeded = "rules_seeded"

// ListRules returns the stored rules in their saved order.
func (s *Store) ListRules(ctx context.Context) ([]rules.Rule, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, enabled, priority, conditions, destination_folder, is_default
		FROM rules ORDER BY position`)
	if err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "list rules", "", err)
	}
	defer rows.Close()

	var out []rules.Rule
	for rows.Next() {
		var (
			r          rules.Rule
			conditions string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Enabled, &r.Priority, &conditions, &r.DestinationFolder, &r.IsDefault); err != nil {
			return nil, services.Wrap(services.ErrStore, "store", "list rules", "scan", err)
		}
		if err := json.Unmarshal([]byte(conditions), &r.Conditions); err != nil {
			return nil, services.Wrap(services.ErrStore, "store", "list rules", "decode conditions for "+r.Name, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStore, "store", "list rules", "", err)
	}
	return out, nil
}

// ReplaceRules stores list as the complete rule set, in order.
func (s *Store) ReplaceRules(ctx context.Context, list []rules.Rule) error {
	encoded := make([]string, len(list))
	for i, r := range list {
		data, err := json.Marshal(r.Conditions)
		if err != nil {
			return services.Wrap(services.ErrStore, "store", "replace rules", "encode conditions for "+r.Name, err)
		}
		encoded[i] = string(data)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM rules"); err != nil {
			return err
		}
		for i, r := range list {
			if _, err := tx.ExecContext(ctx, `INSERT INTO rules
				(id, position, name, enabled, priority, conditions, destination_folder, is_default)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				r.ID, i, r.Name, r.Enabled, r.Priority, encoded[i], r.DestinationFolder, r.IsDefault,
			); err != nil {
				return err
			}
		}
		return setMeta(ctx, tx, metaRulesSeeded, "1")
	})
	if err != nil {
		return services.Wrap(services.ErrStore, "store", "replace rules", "", err)
	}
	return nil
}

// EnsureDefaultRules installs defaults the first time the database is used.
// Once any rule set has been saved, an empty list stays empty. It reports
// whether defaults were installed.
func (s *Store) EnsureDefaultRules(ctx context.Context, defaults []rules.Rule) (bool, error) {
	ctx = ensureContext(ctx)
	var seeded string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaRulesSeeded).Scan(&seeded)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, sql.ErrNoRows):
	default:
		return false, services.Wrap(services.ErrStore, "store", "seed rules", "", err)
	}
	if err := s.ReplaceRules(ctx, defaults); err != nil {
		return false, err
	}
	return true, nil
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}
