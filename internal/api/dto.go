package api

import (
	"time"

	"github.com/Simplici0/edmtrack/internal/auth"
	"github.com/Simplici0/edmtrack/internal/pause"
	"github.com/Simplici0/edmtrack/internal/pricing"
	"github.com/Simplici0/edmtrack/internal/store"
)

// Request payloads

type LoginRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password" minLength:"1"`
}

type MachineHoursRequest struct {
	StartTime     string `json:"start_time" example:"01/03/2024 08:00"`
	EndTime       string `json:"end_time" example:"01/03/2024 10:30"`
	IdleTime      string `json:"idle_time,omitempty" example:"00:30"`
	Mode          string `json:"mode,omitempty" enum:"add,subtract_pause"`
	PausedSeconds int64  `json:"paused_seconds,omitempty" minimum:"0"`
	Legacy        bool   `json:"legacy,omitempty" doc:"Times are bare HH:MM clocks; a finish before the start rolls over midnight."`
}

type SettingRequest struct {
	JobName  string         `json:"job_name,omitempty"`
	Document map[string]any `json:"document"`
}

type CaptureRequest struct {
	From          int      `json:"from" minimum:"1"`
	To            int      `json:"to" minimum:"1"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	IdleTime      string   `json:"idle_time,omitempty"`
	MachineNumber string   `json:"machine_number,omitempty"`
	Operators     []string `json:"operators,omitempty"`
	Overwrite     bool     `json:"overwrite,omitempty"`
}

type QARequest struct {
	Units     []int  `json:"units,omitempty" maxItems:"100000"`
	Selection string `json:"selection,omitempty" example:"1-3,5"`
	State     string `json:"state" enum:"SAVED,READY_FOR_QA,SENT_TO_QA"`
}

type TimerActionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Response payloads

type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      auth.Principal `json:"user"`
}

type CostResponse struct {
	Setting   pricing.Setting    `json:"setting"`
	Result    pricing.Result     `json:"result"`
	Coercions []pricing.Coercion `json:"coercions"`
}

type MachineHoursResponse struct {
	MachineHours string  `json:"machine_hours"`
	Hours        float64 `json:"hours"`
	BaseHours    float64 `json:"base_hours"`
	Display      string  `json:"display"`
	Complete     bool    `json:"complete"`
}

type SettingResponse struct {
	store.JobSetting
	Result    pricing.Result     `json:"result"`
	Coercions []pricing.Coercion `json:"coercions"`
}

type CaptureResponse struct {
	Capture  store.Capture   `json:"capture"`
	Replaced []store.Capture `json:"replaced"`
}

type TimerResponse struct {
	store.UnitTimer
	Snapshot pause.Snapshot `json:"snapshot"`
}

func settingResponse(j store.JobSetting) SettingResponse {
	setting, coerced := j.Setting()
	if coerced == nil {
		coerced = []pricing.Coercion{}
	}
	return SettingResponse{JobSetting: j, Result: pricing.Calculate(setting), Coercions: coerced}
}
