package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Activity actions.
const (
	ActionSettingCreated  = "setting.created"
	ActionSettingUpdated  = "setting.updated"
	ActionCaptureCreated  = "capture.created"
	ActionCaptureReplaced = "capture.replaced"
	ActionQAUpdated       = "qa.updated"
	ActionTimer           = "timer."
)

// Details is the free-form payload of an activity entry.
type Details map[string]any

// Writer appends activity entries inside the caller's transaction.
type Writer struct {
	Now func() time.Time
}

// Append records one entry.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, actor, action, settingID string, details Details) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	if details == nil {
		details = Details{}
	}
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal activity details: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO activity(id,ts,actor,action,setting_id,details) VALUES (?,?,?,?,?,?)`,
		uuid.NewString(), w.Now().UTC().Format(time.RFC3339), actor, action, nullable(settingID), string(data))
	if err != nil {
		return fmt.Errorf("append activity %s: %w", action, err)
	}
	return nil
}

// ActivityEntry is one row of the activity log.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	SettingID string    `json:"setting_id,omitempty"`
	Details   Details   `json:"details"`
}

// ActivityFilter narrows ListActivity. Zero values match everything.
type ActivityFilter struct {
	Actor     string
	SettingID string
	Limit     int
}

// ListActivity returns entries newest first.
func (s *Store) ListActivity(ctx context.Context, f ActivityFilter) ([]ActivityEntry, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, ts, actor, action, COALESCE(setting_id, ''), details
		FROM activity
		WHERE (? = '' OR actor = ?) AND (? = '' OR setting_id = ?)
		ORDER BY ts DESC, rowid DESC
		LIMIT ?`, f.Actor, f.Actor, f.SettingID, f.SettingID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	entries := []ActivityEntry{}
	for rows.Next() {
		var (
			e       ActivityEntry
			ts, raw string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Actor, &e.Action, &e.SettingID, &raw); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, ts)
		if err := json.Unmarshal([]byte(raw), &e.Details); err != nil {
			return nil, fmt.Errorf("decode activity details: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
