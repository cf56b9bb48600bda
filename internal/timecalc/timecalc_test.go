package timecalc

import (
	"math"
	"testing"
	"time"
)

func TestParse_AcceptsOnlyFullTimestamp(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"05/03/2024 14:30", true},
		{"31/12/2024 23:59", true},
		{"14:30", false},
		{"5/3/2024 14:30", false},
		{"2024-03-05 14:30", false},
		{"05/03/2024 24:00", false},
		{"31/02/2024 10:00", false},
		{"", false},
	}
	for _, tc := range cases {
		_, ok := Parse(tc.in)
		if ok != tc.ok {
			t.Fatalf("Parse(%q) ok=%v, want %v", tc.in, ok, tc.ok)
		}
	}
}

func TestParseIn_ProducesEpochMillis(t *testing.T) {
	got, ok := ParseIn("05/03/2024 14:30", time.UTC)
	if !ok {
		t.Fatalf("expected parse success")
	}
	want := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC).UnixMilli()
	if got != want {
		t.Fatalf("ParseIn = %d, want %d", got, want)
	}
	if s := FormatTimestampIn(got, time.UTC); s != "05/03/2024 14:30" {
		t.Fatalf("FormatTimestampIn = %q", s)
	}
}

func TestParseLegacyClock_UsesToday(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	got, ok := ParseLegacyClock("21:15", now)
	if !ok {
		t.Fatalf("expected legacy parse success")
	}
	want := time.Date(2024, 6, 1, 21, 15, 0, 0, time.UTC).UnixMilli()
	if got != want {
		t.Fatalf("ParseLegacyClock = %d, want %d", got, want)
	}
	if _, ok := ParseLegacyClock("01/06/2024 21:15", now); ok {
		t.Fatalf("legacy parser must not accept full timestamps")
	}
}

func TestElapsedSeconds_ClampsNegative(t *testing.T) {
	if got := ElapsedSeconds(10_000, 4_000); got != 0 {
		t.Fatalf("ElapsedSeconds negative = %d, want 0", got)
	}
	if got := ElapsedSeconds(1_000, 62_999); got != 61 {
		t.Fatalf("ElapsedSeconds = %d, want 61", got)
	}
}

func TestFormatHHMMSS(t *testing.T) {
	cases := map[int64]string{
		0:      "00:00:00",
		59:     "00:00:59",
		3661:   "01:01:01",
		90000:  "25:00:00",
		360000: "100:00:00",
		-5:     "00:00:00",
	}
	for in, want := range cases {
		if got := FormatHHMMSS(in); got != want {
			t.Fatalf("FormatHHMMSS(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatHHMMSS_RoundTripAndMonotonic(t *testing.T) {
	prev := ""
	for s := int64(0); s < 200_000; s += 37 {
		text := FormatHHMMSS(s)
		back, err := ParseHHMMSS(text)
		if err != nil {
			t.Fatalf("ParseHHMMSS(%q): %v", text, err)
		}
		if back != s {
			t.Fatalf("round trip %d -> %q -> %d", s, text, back)
		}
		if prev != "" && len(text) == len(prev) && text < prev {
			t.Fatalf("not monotonic: %q after %q", text, prev)
		}
		prev = text
	}
}

func TestParseHHMMSS_RejectsMalformed(t *testing.T) {
	for _, in := range []string{"1:00:00", "00:60:00", "00:00", "aa:bb:cc"} {
		if _, err := ParseHHMMSS(in); err == nil {
			t.Fatalf("ParseHHMMSS(%q) expected error", in)
		}
	}
}

func TestFormatDecimalHours(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1.5, "01:30"},
		{0.999, "01:00"},
		{2.0083, "02:00"},
		{26.25, "26:15"},
		{0, "00:00"},
		{-1, "00:00"},
		{math.NaN(), "00:00"},
	}
	for _, tc := range cases {
		if got := FormatDecimalHours(tc.in); got != tc.want {
			t.Fatalf("FormatDecimalHours(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTimeSpan_Locked(t *testing.T) {
	span := SpanFromText("01/01/2024 08:00", "")
	if span.Locked() {
		t.Fatalf("span with only start must not be locked")
	}
	span = SpanFromText("01/01/2024 08:00", "01/01/2024 09:30")
	if !span.Locked() || !span.Complete() {
		t.Fatalf("span with both ends must be locked and complete")
	}
	if span.Seconds() != 5400 {
		t.Fatalf("Seconds = %d, want 5400", span.Seconds())
	}
}
