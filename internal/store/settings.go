package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/edmtrack/internal/pricing"
	"github.com/Simplici0/edmtrack/internal/qa"
)

// JobSetting is one priced cut of a job. The document is kept as submitted.
type JobSetting struct {
	ID        string           `json:"id"`
	JobName   string           `json:"job_name"`
	Document  pricing.Document `json:"document"`
	Quantity  int              `json:"quantity"`
	CreatedBy string           `json:"created_by"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Setting reads the typed setting from the document.
func (j JobSetting) Setting() (pricing.Setting, []pricing.Coercion) {
	return pricing.FromDocument(j.Document)
}

// CreateSetting stores a new setting document.
func (s *Store) CreateSetting(ctx context.Context, actor, jobName string, doc pricing.Document) (JobSetting, error) {
	jobName = strings.TrimSpace(jobName)
	if jobName == "" {
		return JobSetting{}, invalid("job name required")
	}
	setting, _ := pricing.FromDocument(doc)
	if err := checkQuantity(setting.Quantity); err != nil {
		return JobSetting{}, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return JobSetting{}, fmt.Errorf("marshal setting document: %w", err)
	}

	ts := s.stamp()
	id := uuid.NewString()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO job_settings (id, job_name, document, quantity, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, jobName, string(raw), setting.Quantity, actor, ts, ts); err != nil {
			return fmt.Errorf("insert job setting: %w", err)
		}
		return s.activity().Append(ctx, tx, actor, ActionSettingCreated, id, Details{"job_name": jobName, "quantity": setting.Quantity})
	})
	if err != nil {
		return JobSetting{}, err
	}
	return s.GetSetting(ctx, id)
}

// UpdateSetting replaces the document. The quantity may not shrink below an
// existing capture, QA override or timer.
func (s *Store) UpdateSetting(ctx context.Context, actor, id, jobName string, doc pricing.Document) (JobSetting, error) {
	setting, _ := pricing.FromDocument(doc)
	if err := checkQuantity(setting.Quantity); err != nil {
		return JobSetting{}, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return JobSetting{}, fmt.Errorf("marshal setting document: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getSetting(ctx, tx, id)
		if err != nil {
			return err
		}
		if strings.TrimSpace(jobName) == "" {
			jobName = current.JobName
		}
		var highest int
		if err := tx.QueryRowContext(ctx, `
			SELECT MAX(
				COALESCE((SELECT MAX(to_qty) FROM captures WHERE setting_id = ?), 0),
				COALESCE((SELECT MAX(unit) FROM qa_states WHERE setting_id = ?), 0),
				COALESCE((SELECT MAX(unit) FROM unit_timers WHERE setting_id = ?), 0)
			)`, id, id, id).Scan(&highest); err != nil {
			return fmt.Errorf("check recorded units: %w", err)
		}
		if setting.Quantity < highest {
			return invalid("quantity %d is below recorded unit %d", setting.Quantity, highest)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE job_settings SET job_name = ?, document = ?, quantity = ?, updated_at = ? WHERE id = ?
		`, jobName, string(raw), setting.Quantity, s.stamp(), id); err != nil {
			return fmt.Errorf("update job setting: %w", err)
		}
		return s.activity().Append(ctx, tx, actor, ActionSettingUpdated, id, Details{"job_name": jobName, "quantity": setting.Quantity})
	})
	if err != nil {
		return JobSetting{}, err
	}
	return s.GetSetting(ctx, id)
}

func checkQuantity(n int) error {
	if n < 1 || n > qa.MaxQuantity {
		return invalid("quantity must be in 1..%d", qa.MaxQuantity)
	}
	return nil
}

// GetSetting loads one setting.
func (s *Store) GetSetting(ctx context.Context, id string) (JobSetting, error) {
	return getSetting(ctx, s.DB, id)
}

// ListSettings returns all settings, newest first.
func (s *Store) ListSettings(ctx context.Context) ([]JobSetting, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, job_name, document, quantity, created_by, created_at, updated_at
		FROM job_settings ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query job settings: %w", err)
	}
	defer rows.Close()

	settings := []JobSetting{}
	for rows.Next() {
		j, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, j)
	}
	return settings, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func getSetting(ctx context.Context, q queryer, id string) (JobSetting, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, job_name, document, quantity, created_by, created_at, updated_at
		FROM job_settings WHERE id = ?`, id)
	j, err := scanSetting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return JobSetting{}, fmt.Errorf("setting %s: %w", id, ErrNotFound)
	}
	return j, err
}

func scanSetting(row scanner) (JobSetting, error) {
	var (
		j                         JobSetting
		raw, createdAt, updatedAt string
	)
	if err := row.Scan(&j.ID, &j.JobName, &raw, &j.Quantity, &j.CreatedBy, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return JobSetting{}, err
		}
		return JobSetting{}, fmt.Errorf("scan job setting: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &j.Document); err != nil {
		return JobSetting{}, fmt.Errorf("decode setting document %s: %w", j.ID, err)
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return j, nil
}
