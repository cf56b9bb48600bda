package machinehours

import (
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestParseIdle(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"01:30", 1.5},
		{"00:45", 0.75},
		{"30min", 0.5},
		{"90 min", 1.5},
		{"", 0},
		{"abc", 0},
		{"1:75", 0},
	}
	for _, tc := range cases {
		nearlyEqual(t, "ParseIdle("+tc.in+")", ParseIdle(tc.in), tc.want)
	}
}

func TestCompute_AddModeWithoutIdleEqualsBase(t *testing.T) {
	pairs := [][2]string{
		{"01/01/2024 08:00", "01/01/2024 10:30"},
		{"31/01/2024 22:00", "01/02/2024 06:15"},
		{"28/02/2024 23:59", "01/03/2024 00:01"},
	}
	for _, p := range pairs {
		got := Compute(p[0], p[1], "00:00", Add, 0)
		want := BaseHours(p[0], p[1])
		if got.String() != Hours(want).String() {
			t.Fatalf("Compute(%s,%s) = %s, want %s", p[0], p[1], got, Hours(want))
		}
	}
	if got := Compute("01/01/2024 08:00", "01/01/2024 10:30", "", Add, 0).String(); got != "2.500" {
		t.Fatalf("Compute = %q, want 2.500", got)
	}
}

func TestCompute_IdleAddAndPauseSubtractSymmetry(t *testing.T) {
	start, end := "01/01/2024 08:00", "01/01/2024 12:00"
	base := Compute(start, end, "00:00", Add, 0).Value()

	withIdle := Compute(start, end, "01:15", Add, 0).Value()
	nearlyEqual(t, "idle difference", withIdle-base, 1.25)

	for _, paused := range []int64{0, 1800, 3600 * 5} {
		got := Compute(start, end, "00:00", SubtractPause, paused).Value()
		want := math.Max(0, base-float64(paused)/3600)
		nearlyEqual(t, "subtract pause", got, want)
	}
}

func TestCompute_SubtractPauseIgnoresIdle(t *testing.T) {
	got := Compute("01/01/2024 08:00", "01/01/2024 09:00", "02:00", SubtractPause, 900)
	if got.String() != "0.750" {
		t.Fatalf("Compute = %s, want 0.750", got)
	}
}

func TestCompute_UnparsableTimestampsGiveZeroBase(t *testing.T) {
	if got := Compute("08:00", "10:00", "", Add, 0).String(); got != "0.000" {
		t.Fatalf("bare clocks must not parse strictly, got %s", got)
	}
	if got := Compute("", "01/01/2024 10:00", "00:30", Add, 0).String(); got != "0.500" {
		t.Fatalf("idle only = %s, want 0.500", got)
	}
}

func TestComputeLegacy_RollsOverMidnight(t *testing.T) {
	if got := ComputeLegacy("22:00", "02:30", "", Add, 0).String(); got != "4.500" {
		t.Fatalf("legacy rollover = %s, want 4.500", got)
	}
	if got := ComputeLegacy("08:00", "09:00", "", Add, 0).String(); got != "1.000" {
		t.Fatalf("legacy same day = %s, want 1.000", got)
	}
}

func TestCompute_FullTimestampsNeverRollOver(t *testing.T) {
	got := Compute("01/01/2024 22:00", "01/01/2024 02:30", "", Add, 0)
	if got.Value() >= 0 {
		t.Fatalf("full timestamps with end before start must stay negative, got %s", got)
	}
}

func TestParseHoursAndMode(t *testing.T) {
	h, ok := ParseHours("2.125")
	if !ok || h.String() != "2.125" {
		t.Fatalf("ParseHours = %v %v", h, ok)
	}
	if _, ok := ParseHours("x"); ok {
		t.Fatalf("expected ParseHours failure")
	}
	if m, err := ParseMode("subtract_pause"); err != nil || m != SubtractPause {
		t.Fatalf("ParseMode = %v %v", m, err)
	}
	if _, err := ParseMode("multiply"); err == nil {
		t.Fatalf("expected ParseMode error")
	}
}
