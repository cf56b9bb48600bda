package store

import (
	"context"
	"fmt"

	"github.com/Simplici0/edmtrack/internal/machinehours"
	"github.com/Simplici0/edmtrack/internal/pricing"
	"github.com/Simplici0/edmtrack/internal/qa"
)

// IdleReasons returns the active pause reasons in insertion order.
func (s *Store) IdleReasons(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT label FROM idle_reasons WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query idle reasons: %w", err)
	}
	defer rows.Close()

	reasons := []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scan idle reason: %w", err)
		}
		reasons = append(reasons, label)
	}
	return reasons, rows.Err()
}

// SettingReport is the per-setting line of an Overview.
type SettingReport struct {
	ID          string             `json:"id"`
	JobName     string             `json:"job_name"`
	Totals      pricing.Totals     `json:"totals"`
	LoggedHours float64            `json:"logged_hours"`
	Counts      qa.Counts          `json:"counts"`
	Coercions   []pricing.Coercion `json:"coercions,omitempty"`
}

// Overview aggregates estimated cost and logged machine hours across settings.
type Overview struct {
	Estimate    pricing.Summary `json:"estimate"`
	LoggedHours float64         `json:"logged_hours"`
	Counts      qa.Counts       `json:"counts"`
	Settings    []SettingReport `json:"settings"`
}

// Summarize builds the administrator report.
func (s *Store) Summarize(ctx context.Context) (Overview, error) {
	settings, err := s.ListSettings(ctx)
	if err != nil {
		return Overview{}, err
	}

	sum := Overview{Settings: []SettingReport{}}
	typed := make([]pricing.Setting, 0, len(settings))
	for _, j := range settings {
		setting, coerced := j.Setting()
		typed = append(typed, setting)

		captures, err := listCaptures(ctx, s.DB, j.ID)
		if err != nil {
			return Overview{}, err
		}
		overrides, err := loadOverrides(ctx, s.DB, j.ID)
		if err != nil {
			return Overview{}, err
		}
		report := SettingReport{
			ID:        j.ID,
			JobName:   j.JobName,
			Totals:    pricing.Calculate(setting).Totals,
			Counts:    qa.Derive(j.Quantity, captureRanges(captures), overrides).Counts,
			Coercions: coerced,
		}
		for _, c := range captures {
			if h, ok := machinehours.ParseHours(c.MachineHours); ok {
				report.LoggedHours += h.Value()
			}
		}
		sum.LoggedHours += report.LoggedHours
		sum.Counts.Saved += report.Counts.Saved
		sum.Counts.Ready += report.Counts.Ready
		sum.Counts.Sent += report.Counts.Sent
		sum.Counts.Empty += report.Counts.Empty
		sum.Settings = append(sum.Settings, report)
	}
	sum.Estimate = pricing.Summarize(typed)
	return sum, nil
}
