// Package pause tracks machine time for one quantity-unit across pause/resume cycles.
//
// State values are immutable: Transition returns a new State and never mutates its input.
// Callers own the clock and pass the current instant in epoch milliseconds.
package pause

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/edmtrack/internal/timecalc"
)

// EndedWhilePaused is recorded on a pause session closed by End.
const EndedWhilePaused = "Ended while paused"

// ErrInvalidTransition is matched by every rejected transition.
var ErrInvalidTransition = errors.New("invalid transition")

// Status of a unit timer.
type Status string

const (
	Running Status = "RUNNING"
	Paused  Status = "PAUSED"
	Ended   Status = "ENDED"
)

// Session is a completed pause interval.
type Session struct {
	PauseStart      int64  `json:"pause_start"`
	PauseEnd        int64  `json:"pause_end"`
	DurationSeconds int64  `json:"duration_seconds"`
	Reason          string `json:"reason"`
}

// State is the timer of one quantity-unit.
type State struct {
	StartedAt         int64     `json:"started_at"`
	EndedAt           *int64    `json:"ended_at,omitempty"`
	Sessions          []Session `json:"sessions"`
	CurrentPauseStart *int64    `json:"current_pause_start,omitempty"`
	CurrentReason     string    `json:"current_reason,omitempty"`
}

// Start returns a running timer started at now.
func Start(now int64) State {
	return State{StartedAt: now, Sessions: []Session{}}
}

// Status derives the current status.
func (s State) Status() Status {
	switch {
	case s.EndedAt != nil:
		return Ended
	case s.CurrentPauseStart != nil:
		return Paused
	default:
		return Running
	}
}

// Span exposes the start/end pair; it is locked once the timer has ended.
func (s State) Span() timecalc.TimeSpan {
	start := s.StartedAt
	span := timecalc.TimeSpan{StartMillis: &start}
	if s.EndedAt != nil {
		end := *s.EndedAt
		span.EndMillis = &end
	}
	return span
}

// TransitionError describes a rejected action.
type TransitionError struct {
	From   Status
	Action string
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a %s timer: %s", e.Action, strings.ToLower(string(e.From)), e.Reason)
}

// Is makes every TransitionError match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// Action is one of Pause, Resume or End.
type Action interface {
	Name() string
	apply(s State, now int64) (State, error)
}

// Pause stops the clock; Reason is mandatory.
type Pause struct {
	Reason string
}

// Resume restarts a paused clock.
type Resume struct{}

// End finishes the unit at At (or at now when At is zero).
type End struct {
	At int64
}

func (Pause) Name() string  { return "pause" }
func (Resume) Name() string { return "resume" }
func (End) Name() string    { return "end" }

// ParseAction builds an action from its name ("pause", "resume" or "end").
func ParseAction(name, reason string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pause":
		return Pause{Reason: reason}, nil
	case "resume":
		return Resume{}, nil
	case "end":
		return End{}, nil
	}
	return nil, fmt.Errorf("unknown timer action %q", name)
}

// Transition applies a to s at instant now.
func Transition(s State, a Action, now int64) (State, error) {
	if s.Status() == Ended {
		return s, &TransitionError{From: Ended, Action: a.Name(), Reason: "timer has ended"}
	}
	return a.apply(s, now)
}

func (p Pause) apply(s State, now int64) (State, error) {
	if s.Status() == Paused {
		return s, &TransitionError{From: Paused, Action: "pause", Reason: "already paused"}
	}
	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		return s, &TransitionError{From: s.Status(), Action: "pause", Reason: "a pause reason is required"}
	}
	next := s.clone()
	at := now
	next.CurrentPauseStart = &at
	next.CurrentReason = reason
	return next, nil
}

func (Resume) apply(s State, now int64) (State, error) {
	if s.Status() != Paused {
		return s, &TransitionError{From: s.Status(), Action: "resume", Reason: "timer is not paused"}
	}
	next := s.clone()
	next.Sessions = append(next.Sessions, closeSession(*s.CurrentPauseStart, now, s.CurrentReason))
	next.CurrentPauseStart = nil
	next.CurrentReason = ""
	return next, nil
}

func (e End) apply(s State, now int64) (State, error) {
	at := e.At
	if at == 0 {
		at = now
	}
	next := s.clone()
	if s.CurrentPauseStart != nil {
		reason := s.CurrentReason
		if strings.TrimSpace(reason) == "" {
			reason = EndedWhilePaused
		}
		next.Sessions = append(next.Sessions, closeSession(*s.CurrentPauseStart, at, reason))
		next.CurrentPauseStart = nil
		next.CurrentReason = ""
	}
	next.EndedAt = &at
	return next, nil
}

func closeSession(start, end int64, reason string) Session {
	if end < start {
		end = start
	}
	return Session{
		PauseStart:      start,
		PauseEnd:        end,
		DurationSeconds: timecalc.ElapsedSeconds(start, end),
		Reason:          reason,
	}
}

func (s State) clone() State {
	out := s
	out.Sessions = make([]Session, len(s.Sessions), len(s.Sessions)+1)
	copy(out.Sessions, s.Sessions)
	return out
}

// ClosedPausedSeconds sums completed sessions.
func (s State) ClosedPausedSeconds() int64 {
	var total int64
	for _, sess := range s.Sessions {
		total += sess.DurationSeconds
	}
	return total
}

// LivePauseSeconds is the length of the open pause, zero when not paused.
func (s State) LivePauseSeconds(now int64) int64 {
	if s.CurrentPauseStart == nil {
		return 0
	}
	return timecalc.ElapsedSeconds(*s.CurrentPauseStart, now)
}

// TotalPausedSeconds is closed sessions plus the open pause.
func (s State) TotalPausedSeconds(now int64) int64 {
	return s.ClosedPausedSeconds() + s.LivePauseSeconds(now)
}

// ElapsedSeconds is working time excluding pauses. It is frozen while paused and after End.
func (s State) ElapsedSeconds(now int64) int64 {
	var until int64
	switch s.Status() {
	case Ended:
		until = *s.EndedAt
	case Paused:
		until = *s.CurrentPauseStart
	default:
		until = now
	}
	elapsed := timecalc.ElapsedSeconds(s.StartedAt, until) - s.ClosedPausedSeconds()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Snapshot is the render-ready view of a timer at one instant.
type Snapshot struct {
	Status         Status    `json:"status"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	Elapsed        string    `json:"elapsed"`
	PausedSeconds  int64     `json:"paused_seconds"`
	PauseTimer     string    `json:"pause_timer"`
	PauseReason    string    `json:"pause_reason,omitempty"`
	Sessions       []Session `json:"sessions"`
}

// Snapshot renders s at now.
func (s State) Snapshot(now int64) Snapshot {
	elapsed := s.ElapsedSeconds(now)
	live := s.LivePauseSeconds(now)
	sessions := s.Sessions
	if sessions == nil {
		sessions = []Session{}
	}
	return Snapshot{
		Status:         s.Status(),
		ElapsedSeconds: elapsed,
		Elapsed:        timecalc.FormatHHMMSS(elapsed),
		PausedSeconds:  s.TotalPausedSeconds(now),
		PauseTimer:     timecalc.FormatHHMMSS(live),
		PauseReason:    s.CurrentReason,
		Sessions:       sessions,
	}
}
