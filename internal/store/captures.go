package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/edmtrack/internal/machinehours"
	"github.com/Simplici0/edmtrack/internal/qa"
	"github.com/Simplici0/edmtrack/internal/timecalc"
)

// Capture is an operator work interval covering a contiguous quantity range.
type Capture struct {
	ID            string    `json:"id"`
	SettingID     string    `json:"setting_id"`
	From          int       `json:"from"`
	To            int       `json:"to"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	IdleTime      string    `json:"idle_time"`
	MachineHours  string    `json:"machine_hours"`
	MachineNumber string    `json:"machine_number"`
	Operators     []string  `json:"operators"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Range returns the covered quantity range.
func (c Capture) Range() qa.Range {
	return qa.Range{From: c.From, To: c.To}
}

// CaptureInput is a new capture as entered by an operator.
type CaptureInput struct {
	From          int
	To            int
	StartTime     string
	EndTime       string
	IdleTime      string
	MachineNumber string
	Operators     []string
	// Overwrite replaces overlapping captures instead of failing with ErrOverlap.
	Overwrite bool
}

// OverlapError lists the existing ranges a new capture collides with.
type OverlapError struct {
	Ranges []qa.Range
}

func (e *OverlapError) Error() string {
	parts := make([]string, 0, len(e.Ranges))
	for _, r := range e.Ranges {
		parts = append(parts, r.String())
	}
	return fmt.Sprintf("%v: %s", ErrOverlap, strings.Join(parts, ", "))
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// CreateCapture validates and stores a capture. Machine hours are computed in
// add mode from the start, end and idle texts. It returns the new capture and any
// captures it replaced.
func (s *Store) CreateCapture(ctx context.Context, actor, settingID string, in CaptureInput) (Capture, []Capture, error) {
	span := timecalc.SpanFromText(in.StartTime, in.EndTime)
	switch {
	case span.StartMillis == nil:
		return Capture{}, nil, fmt.Errorf("%w: start time must be DD/MM/YYYY HH:MM", ErrIncomplete)
	case span.EndMillis == nil:
		return Capture{}, nil, fmt.Errorf("%w: end time must be DD/MM/YYYY HH:MM", ErrIncomplete)
	case !span.Complete():
		return Capture{}, nil, invalid("end time is before start time")
	}

	idle := strings.TrimSpace(in.IdleTime)
	if idle != "" {
		idle = machinehours.FormatIdle(machinehours.ParseIdle(idle))
	}
	operators := make([]string, 0, len(in.Operators))
	for _, name := range in.Operators {
		if name = strings.TrimSpace(name); name != "" {
			operators = append(operators, name)
		}
	}
	c := Capture{
		ID:            uuid.NewString(),
		SettingID:     settingID,
		From:          in.From,
		To:            in.To,
		StartTime:     strings.TrimSpace(in.StartTime),
		EndTime:       strings.TrimSpace(in.EndTime),
		IdleTime:      idle,
		MachineHours:  machinehours.Compute(in.StartTime, in.EndTime, idle, machinehours.Add, 0).String(),
		MachineNumber: strings.TrimSpace(in.MachineNumber),
		Operators:     operators,
		CreatedBy:     actor,
		CreatedAt:     s.now().UTC().Truncate(time.Second),
	}

	var replaced []Capture
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		setting, err := getSetting(ctx, tx, settingID)
		if err != nil {
			return err
		}
		r := c.Range()
		if !r.Valid(setting.Quantity) {
			return invalid("range %s outside 1..%d", r, setting.Quantity)
		}

		overrides, err := loadOverrides(ctx, tx, settingID)
		if err != nil {
			return err
		}
		if units := qa.DispatchedIn(r, overrides); len(units) > 0 {
			return fmt.Errorf("units %v: %w", units, ErrDispatched)
		}

		existing, err := listCaptures(ctx, tx, settingID)
		if err != nil {
			return err
		}
		for _, other := range existing {
			if r.Overlaps(other.Range()) {
				replaced = append(replaced, other)
			}
		}
		if len(replaced) > 0 {
			if !in.Overwrite {
				conflict := &OverlapError{}
				for _, other := range replaced {
					conflict.Ranges = append(conflict.Ranges, other.Range())
				}
				return conflict
			}
			for _, other := range replaced {
				if _, err := tx.ExecContext(ctx, `DELETE FROM captures WHERE id = ?`, other.ID); err != nil {
					return fmt.Errorf("delete overlapping capture: %w", err)
				}
				if err := s.activity().Append(ctx, tx, actor, ActionCaptureReplaced, settingID, Details{
					"capture_id": other.ID, "range": other.Range().String(), "replaced_by": c.ID,
				}); err != nil {
					return err
				}
			}
		}

		if err := insertCapture(ctx, tx, c); err != nil {
			return err
		}
		return s.activity().Append(ctx, tx, actor, ActionCaptureCreated, settingID, Details{
			"capture_id": c.ID, "range": r.String(), "machine_hours": c.MachineHours,
		})
	})
	if err != nil {
		return Capture{}, nil, err
	}
	return c, replaced, nil
}

func insertCapture(ctx context.Context, tx *sql.Tx, c Capture) error {
	if c.Operators == nil {
		c.Operators = []string{}
	}
	operators, err := json.Marshal(c.Operators)
	if err != nil {
		return fmt.Errorf("marshal operators: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO captures (id, setting_id, from_qty, to_qty, start_time, end_time, idle_time,
			machine_hours, machine_number, operators, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.SettingID, c.From, c.To, c.StartTime, c.EndTime, c.IdleTime,
		c.MachineHours, c.MachineNumber, string(operators), c.CreatedBy, c.CreatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert capture: %w", err)
	}
	return nil
}

// ListCaptures returns the captures of a setting ordered by range.
func (s *Store) ListCaptures(ctx context.Context, settingID string) ([]Capture, error) {
	if _, err := s.GetSetting(ctx, settingID); err != nil {
		return nil, err
	}
	return listCaptures(ctx, s.DB, settingID)
}

func listCaptures(ctx context.Context, q queryer, settingID string) ([]Capture, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, setting_id, from_qty, to_qty, start_time, end_time, idle_time,
			machine_hours, machine_number, operators, created_by, created_at
		FROM captures WHERE setting_id = ? ORDER BY from_qty, to_qty, created_at`, settingID)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	captures := []Capture{}
	for rows.Next() {
		var (
			c                    Capture
			operators, createdAt string
		)
		if err := rows.Scan(&c.ID, &c.SettingID, &c.From, &c.To, &c.StartTime, &c.EndTime, &c.IdleTime,
			&c.MachineHours, &c.MachineNumber, &operators, &c.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		if err := json.Unmarshal([]byte(operators), &c.Operators); err != nil {
			return nil, fmt.Errorf("decode capture operators: %w", err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

func captureRanges(captures []Capture) []qa.Range {
	ranges := make([]qa.Range, 0, len(captures))
	for _, c := range captures {
		ranges = append(ranges, c.Range())
	}
	return ranges
}
