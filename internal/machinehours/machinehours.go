// Package machinehours derives the machine-hours figure logged against a capture.
package machinehours

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Simplici0/edmtrack/internal/timecalc"
)

const millisPerHour = 3_600_000

// Mode selects how idle or paused time adjusts the base hours.
type Mode int

const (
	// Add adds the operator-entered idle time to the logged hours.
	Add Mode = iota
	// SubtractPause removes accumulated pause time from the logged hours.
	SubtractPause
)

func (m Mode) String() string {
	switch m {
	case Add:
		return "add"
	case SubtractPause:
		return "subtract_pause"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the names produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "add":
		return Add, nil
	case "subtract_pause", "subtract", "pause":
		return SubtractPause, nil
	default:
		return Add, fmt.Errorf("unknown machine hours mode %q", s)
	}
}

// Hours is a machine-hours value. Persisted and compared as a 3-decimal string.
type Hours float64

// Value returns the numeric hours.
func (h Hours) Value() float64 { return float64(h) }

// String returns the persisted 3-decimal representation.
func (h Hours) String() string { return strconv.FormatFloat(float64(h), 'f', 3, 64) }

// ParseHours reads a persisted machine-hours string.
func ParseHours(s string) (Hours, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return Hours(v), true
}

var (
	idleClockPattern   = regexp.MustCompile(`^(\d{1,3}):([0-5]\d)$`)
	idleMinutesPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*min$`)
)

// ParseIdle converts an idle-time descriptor to hours.
// HH:MM and the legacy "<N>min" form are understood; anything else is zero.
func ParseIdle(text string) float64 {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return 0
	}
	if m := idleClockPattern.FindStringSubmatch(text); m != nil {
		h, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		return float64(h) + float64(mins)/60
	}
	if m := idleMinutesPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0
		}
		return n / 60
	}
	return 0
}

// FormatIdle renders hours in the persisted HH:MM idle form.
func FormatIdle(hours float64) string {
	return timecalc.FormatDecimalHours(hours)
}

// BaseHours is (end - start) in hours using the strict timestamp parser.
// It is zero if either side does not parse.
func BaseHours(startText, endText string) float64 {
	start, ok := timecalc.Parse(startText)
	if !ok {
		return 0
	}
	end, ok := timecalc.Parse(endText)
	if !ok {
		return 0
	}
	return float64(end-start) / millisPerHour
}

// Compute derives machine hours from full DD/MM/YYYY HH:MM timestamps.
// In Add mode idleText is added and pausedSeconds ignored; in SubtractPause mode
// pausedSeconds is removed (floored at zero) and idleText ignored.
func Compute(startText, endText, idleText string, mode Mode, pausedSeconds int64) Hours {
	return adjust(BaseHours(startText, endText), idleText, mode, pausedSeconds)
}

// ComputeLegacy is Compute for captures stored as bare HH:MM clocks.
// A finish earlier than the start is taken to be past midnight.
func ComputeLegacy(startClock, endClock, idleText string, mode Mode, pausedSeconds int64) Hours {
	return adjust(legacyBaseHours(startClock, endClock), idleText, mode, pausedSeconds)
}

func legacyBaseHours(startClock, endClock string) float64 {
	sh, sm, ok := timecalc.ParseClock(startClock)
	if !ok {
		return 0
	}
	eh, em, ok := timecalc.ParseClock(endClock)
	if !ok {
		return 0
	}
	diff := (eh*60 + em) - (sh*60 + sm)
	if diff < 0 {
		diff += 24 * 60
	}
	return float64(diff) / 60
}

func adjust(base float64, idleText string, mode Mode, pausedSeconds int64) Hours {
	switch mode {
	case SubtractPause:
		h := base - float64(pausedSeconds)/3600
		if h < 0 {
			h = 0
		}
		return Hours(h)
	default:
		return Hours(base + ParseIdle(idleText))
	}
}
