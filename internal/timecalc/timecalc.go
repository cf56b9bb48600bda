package timecalc

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the persisted timestamp format (DD/MM/YYYY HH:MM, 24-hour clock).
const Layout = "02/01/2006 15:04"

var (
	timestampPattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4} \d{2}:\d{2}$`)
	clockPattern     = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
)

// Parse converts a DD/MM/YYYY HH:MM timestamp in the local zone to epoch milliseconds.
// Any other shape, including a bare HH:MM, is rejected.
func Parse(text string) (int64, bool) {
	return ParseIn(text, time.Local)
}

// ParseIn is Parse with an explicit location.
func ParseIn(text string, loc *time.Location) (int64, bool) {
	text = strings.TrimSpace(text)
	if !timestampPattern.MatchString(text) {
		return 0, false
	}
	t, err := time.ParseInLocation(Layout, text, loc)
	if err != nil {
		return 0, false
	}
	return t.UnixMilli(), true
}

// ParseLegacyClock reads a bare HH:MM as that time on the day of now.
// Older captures were stored without a date; callers must opt in to this reading.
func ParseLegacyClock(text string, now time.Time) (int64, bool) {
	h, m, ok := ParseClock(text)
	if !ok {
		return 0, false
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	return day.UnixMilli(), true
}

// ParseClock splits a bare HH:MM into hour and minute.
func ParseClock(text string) (int, int, bool) {
	match := clockPattern.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return 0, 0, false
	}
	h, _ := strconv.Atoi(match[1])
	m, _ := strconv.Atoi(match[2])
	if h > 23 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// FormatTimestamp renders epoch milliseconds in the persisted layout.
func FormatTimestamp(ms int64) string {
	return FormatTimestampIn(ms, time.Local)
}

// FormatTimestampIn is FormatTimestamp with an explicit location.
func FormatTimestampIn(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format(Layout)
}

// ElapsedSeconds returns whole seconds between two instants, clamped at zero for clock skew.
func ElapsedSeconds(startMillis, endMillis int64) int64 {
	diff := endMillis - startMillis
	if diff <= 0 {
		return 0
	}
	return diff / 1000
}

// FormatHHMMSS renders seconds as zero-padded HH:MM:SS. Hours do not wrap at 24.
func FormatHHMMSS(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseHHMMSS is the inverse of FormatHHMMSS.
func ParseHHMMSS(text string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q: want HH:MM:SS", text)
	}
	values := make([]int64, 3)
	for i, p := range parts {
		if len(p) < 2 {
			return 0, fmt.Errorf("invalid duration %q: fields must be zero-padded", text)
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid duration %q", text)
		}
		values[i] = v
	}
	if values[1] > 59 || values[2] > 59 {
		return 0, fmt.Errorf("invalid duration %q: minutes and seconds must be below 60", text)
	}
	return values[0]*3600 + values[1]*60 + values[2], nil
}

// FormatDecimalHours renders decimal hours as HH:MM rounded to the nearest minute.
func FormatDecimalHours(hours float64) string {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return "00:00"
	}
	minutes := int64(math.Round(hours * 60))
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TimeSpan is the start/end pair of one quantity-unit of work.
// Zero-valued ends are unset.
type TimeSpan struct {
	StartMillis *int64 `json:"start_ms,omitempty"`
	EndMillis   *int64 `json:"end_ms,omitempty"`
}

// Locked reports whether both ends are recorded; the caller must then refuse edits.
func (s TimeSpan) Locked() bool {
	return s.StartMillis != nil && s.EndMillis != nil
}

// Complete reports whether the span can be finalized.
func (s TimeSpan) Complete() bool {
	return s.Locked() && *s.EndMillis >= *s.StartMillis
}

// Seconds returns the clamped span length; zero if either end is missing.
func (s TimeSpan) Seconds() int64 {
	if !s.Locked() {
		return 0
	}
	return ElapsedSeconds(*s.StartMillis, *s.EndMillis)
}

// SpanFromText parses both ends with the strict parser; unparsable ends stay unset.
func SpanFromText(start, end string) TimeSpan {
	var span TimeSpan
	if ms, ok := Parse(start); ok {
		span.StartMillis = &ms
	}
	if ms, ok := Parse(end); ok {
		span.EndMillis = &ms
	}
	return span
}
