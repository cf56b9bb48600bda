package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/edmtrack/internal/machinehours"
	"github.com/Simplici0/edmtrack/internal/pause"
	"github.com/Simplici0/edmtrack/internal/qa"
	"github.com/Simplici0/edmtrack/internal/timecalc"
)

// UnitTimer is the persisted live timer of one quantity-unit. StartTime is set
// when the timer starts and never changes; EndTime and MachineHours are set once
// it ends.
type UnitTimer struct {
	SettingID    string      `json:"setting_id"`
	Unit         int         `json:"unit"`
	Timer        pause.State `json:"timer"`
	StartTime    string      `json:"start_time"`
	EndTime      string      `json:"end_time,omitempty"`
	MachineHours string      `json:"machine_hours,omitempty"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// GetTimer loads the timer of a unit.
func (s *Store) GetTimer(ctx context.Context, settingID string, unit int) (UnitTimer, error) {
	return getTimer(ctx, s.DB, settingID, unit)
}

// StartTimer starts the clock of a unit. A unit can be started only once.
func (s *Store) StartTimer(ctx context.Context, actor, settingID string, unit int) (UnitTimer, error) {
	now := s.now()
	var t UnitTimer
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		setting, err := getSetting(ctx, tx, settingID)
		if err != nil {
			return err
		}
		if unit < 1 || unit > setting.Quantity {
			return invalid("unit %d outside 1..%d", unit, setting.Quantity)
		}
		if _, err := getTimer(ctx, tx, settingID, unit); err == nil {
			return fmt.Errorf("unit %d: %w", unit, ErrLocked)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		overrides, err := loadOverrides(ctx, tx, settingID)
		if err != nil {
			return err
		}
		if !qa.CanDispatch(overrides[unit]) {
			return fmt.Errorf("unit %d: %w", unit, ErrDispatched)
		}

		t = UnitTimer{
			SettingID: settingID,
			Unit:      unit,
			Timer:     pause.Start(now.UnixMilli()),
			StartTime: timecalc.FormatTimestamp(now.UnixMilli()),
			UpdatedAt: now.UTC().Truncate(time.Second),
		}
		if err := putTimer(ctx, tx, t); err != nil {
			return err
		}
		return s.activity().Append(ctx, tx, actor, ActionTimer+"start", settingID, Details{"unit": unit, "start_time": t.StartTime})
	})
	if err != nil {
		return UnitTimer{}, err
	}
	return t, nil
}

// ApplyTimer runs a pause, resume or end action on a started unit. Ending stores
// the end time and the machine hours net of all pauses.
func (s *Store) ApplyTimer(ctx context.Context, actor, settingID string, unit int, action pause.Action) (UnitTimer, error) {
	now := s.now()
	var t UnitTimer
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getTimer(ctx, tx, settingID, unit)
		if err != nil {
			return err
		}
		next, err := pause.Transition(current.Timer, action, now.UnixMilli())
		if err != nil {
			return err
		}
		t = current
		t.Timer = next
		t.UpdatedAt = now.UTC().Truncate(time.Second)
		details := Details{"unit": unit}
		if p, ok := action.(pause.Pause); ok {
			details["reason"] = p.Reason
		}
		if next.Status() == pause.Ended {
			end := *next.EndedAt
			t.EndTime = timecalc.FormatTimestamp(end)
			t.MachineHours = machinehours.Compute(t.StartTime, t.EndTime, "", machinehours.SubtractPause, next.TotalPausedSeconds(end)).String()
			details["end_time"] = t.EndTime
			details["machine_hours"] = t.MachineHours
			if err := s.captureEndedUnit(ctx, tx, actor, t); err != nil {
				return err
			}
		}
		if err := putTimer(ctx, tx, t); err != nil {
			return err
		}
		return s.activity().Append(ctx, tx, actor, ActionTimer+action.Name(), settingID, details)
	})
	if err != nil {
		return UnitTimer{}, err
	}
	return t, nil
}

func getTimer(ctx context.Context, q queryer, settingID string, unit int) (UnitTimer, error) {
	var (
		t              UnitTimer
		raw, updatedAt string
	)
	err := q.QueryRowContext(ctx, `
		SELECT setting_id, unit, timer, start_time, end_time, machine_hours, updated_at
		FROM unit_timers WHERE setting_id = ? AND unit = ?`, settingID, unit).
		Scan(&t.SettingID, &t.Unit, &raw, &t.StartTime, &t.EndTime, &t.MachineHours, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return UnitTimer{}, fmt.Errorf("timer for unit %d: %w", unit, ErrNotFound)
	}
	if err != nil {
		return UnitTimer{}, fmt.Errorf("query unit timer: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &t.Timer); err != nil {
		return UnitTimer{}, fmt.Errorf("decode unit timer: %w", err)
	}
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

func putTimer(ctx context.Context, tx *sql.Tx, t UnitTimer) error {
	raw, err := json.Marshal(t.Timer)
	if err != nil {
		return fmt.Errorf("marshal unit timer: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO unit_timers (setting_id, unit, timer, start_time, end_time, machine_hours, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (setting_id, unit) DO UPDATE SET
			timer = excluded.timer,
			end_time = excluded.end_time,
			machine_hours = excluded.machine_hours,
			updated_at = excluded.updated_at
	`, t.SettingID, t.Unit, string(raw), t.StartTime, t.EndTime, t.MachineHours, t.UpdatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("save unit timer: %w", err)
	}
	return nil
}

// captureEndedUnit logs an ended unit as a single-unit capture unless a capture
// already covers it or the unit was sent to QA while the timer ran.
func (s *Store) captureEndedUnit(ctx context.Context, tx *sql.Tx, actor string, t UnitTimer) error {
	overrides, err := loadOverrides(ctx, tx, t.SettingID)
	if err != nil {
		return err
	}
	if !qa.CanDispatch(overrides[t.Unit]) {
		return nil
	}
	existing, err := listCaptures(ctx, tx, t.SettingID)
	if err != nil {
		return err
	}
	for _, c := range existing {
		if c.Range().Contains(t.Unit) {
			return nil
		}
	}
	c := Capture{
		ID:           uuid.NewString(),
		SettingID:    t.SettingID,
		From:         t.Unit,
		To:           t.Unit,
		StartTime:    t.StartTime,
		EndTime:      t.EndTime,
		MachineHours: t.MachineHours,
		CreatedBy:    actor,
		CreatedAt:    t.UpdatedAt,
	}
	if err := insertCapture(ctx, tx, c); err != nil {
		return err
	}
	return s.activity().Append(ctx, tx, actor, ActionCaptureCreated, t.SettingID, Details{
		"capture_id": c.ID, "range": c.Range().String(), "machine_hours": c.MachineHours,
	})
}
