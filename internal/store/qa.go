package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Simplici0/edmtrack/internal/qa"
)

// Progress returns the derived QA state of every unit of a setting.
func (s *Store) Progress(ctx context.Context, settingID string) (qa.Progress, error) {
	setting, err := s.GetSetting(ctx, settingID)
	if err != nil {
		return qa.Progress{}, err
	}
	return progress(ctx, s.DB, settingID, setting.Quantity)
}

// SetQA records an override for each selected unit. Units already SENT_TO_QA are
// never reselected.
func (s *Store) SetQA(ctx context.Context, actor, settingID string, units []int, state qa.State) (qa.Progress, error) {
	var quantity int
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		setting, err := getSetting(ctx, tx, settingID)
		if err != nil {
			return err
		}
		quantity = setting.Quantity
		parsed, ok := qa.ParseState(string(state))
		if !ok {
			return invalid("unknown QA state %q", state)
		}
		state = parsed
		if len(units) == 0 {
			return invalid("no units selected")
		}
		for _, n := range units {
			if n < 1 || n > quantity {
				return invalid("unit %d outside 1..%d", n, quantity)
			}
		}
		current, err := loadOverrides(ctx, tx, settingID)
		if err != nil {
			return err
		}
		if _, err := qa.ApplyOverride(current, quantity, units, state); err != nil {
			return err
		}

		ts := s.stamp()
		for _, n := range units {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO qa_states (setting_id, unit, state, updated_by, updated_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT (setting_id, unit) DO UPDATE SET
					state = excluded.state,
					updated_by = excluded.updated_by,
					updated_at = excluded.updated_at
			`, settingID, n, string(state), actor, ts); err != nil {
				return fmt.Errorf("upsert qa state: %w", err)
			}
		}
		return s.activity().Append(ctx, tx, actor, ActionQAUpdated, settingID, Details{"units": units, "state": string(state)})
	})
	if err != nil {
		return qa.Progress{}, err
	}
	return progress(ctx, s.DB, settingID, quantity)
}

func progress(ctx context.Context, q queryer, settingID string, quantity int) (qa.Progress, error) {
	captures, err := listCaptures(ctx, q, settingID)
	if err != nil {
		return qa.Progress{}, err
	}
	overrides, err := loadOverrides(ctx, q, settingID)
	if err != nil {
		return qa.Progress{}, err
	}
	return qa.Derive(quantity, captureRanges(captures), overrides), nil
}

func loadOverrides(ctx context.Context, q queryer, settingID string) (qa.Overrides, error) {
	rows, err := q.QueryContext(ctx, `SELECT unit, state FROM qa_states WHERE setting_id = ?`, settingID)
	if err != nil {
		return nil, fmt.Errorf("query qa states: %w", err)
	}
	defer rows.Close()

	overrides := qa.Overrides{}
	for rows.Next() {
		var (
			unit  int
			state string
		)
		if err := rows.Scan(&unit, &state); err != nil {
			return nil, fmt.Errorf("scan qa state: %w", err)
		}
		overrides[unit] = qa.State(state)
	}
	return overrides, rows.Err()
}
