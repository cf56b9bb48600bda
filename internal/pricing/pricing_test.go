package pricing

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

func TestCalculate_ThinPlateExample(t *testing.T) {
	s := Setting{
		CutLengthMm:  10,
		ThicknessMm:  5,
		PassLevel:    1,
		SettingLevel: 1,
		Quantity:     2,
		RatePerHour:  100,
	}

	result := Calculate(s)

	cut := 10.0 * 5 / 1017.44
	nearlyEqual(t, "thicknessDivisor", result.Breakdown.ThicknessDivisor, 1017.44)
	nearlyEqual(t, "cutHoursPerPiece", result.Breakdown.CutHoursPerPiece, cut)
	nearlyEqual(t, "settingHours", result.Breakdown.SettingHours, 0.5)
	nearlyEqual(t, "totalHoursPerPiece", result.Totals.TotalHoursPerPiece, cut+0.5)
	nearlyEqual(t, "wedmAmount", result.Totals.WedmAmount, (cut+0.5)*200)
	nearlyEqual(t, "sedmAmount", result.Totals.SedmAmount, 0)
	if math.Abs(result.Totals.TotalAmount-109.83) > 0.005 {
		t.Fatalf("totalAmount = %v, want ~109.83", result.Totals.TotalAmount)
	}
}

func TestThicknessDivisor_Boundaries(t *testing.T) {
	cases := []struct {
		thickness float64
		want      float64
	}{
		{0, 1017.44},
		{19.99, 1017.44},
		{20, 1465},
		{100, 1465},
		{100.5, 1183},
		{150, 1183},
		{150.01, 1000},
	}
	for _, tc := range cases {
		nearlyEqual(t, "divisor", ThicknessDivisor(tc.thickness), tc.want)
	}
}

func TestCalculate_PassCriticalAndPip(t *testing.T) {
	s := Setting{CutLengthMm: 1465, ThicknessMm: 50, PassLevel: 4, Quantity: 1, RatePerHour: 10, IsCritical: true, HasPipFinish: true}

	result := Calculate(s)

	nearlyEqual(t, "passMultiplier", result.Breakdown.PassMultiplier, 2.0)
	nearlyEqual(t, "cutHoursPerPiece", result.Breakdown.CutHoursPerPiece, 100)
	nearlyEqual(t, "extraHours", result.Breakdown.ExtraHours, 2)
	nearlyEqual(t, "total", result.Totals.TotalAmount, 1020)
}

func TestPassMultiplier_Table(t *testing.T) {
	want := map[int]float64{1: 1.0, 2: 1.5, 3: 1.75, 4: 2.0, 5: 2.5, 6: 2.75, 0: 1.0, 9: 1.0}
	for level, m := range want {
		nearlyEqual(t, "pass multiplier", PassMultiplier(level), m)
	}
}

func TestSedm_BracketBoundaryAt04And05(t *testing.T) {
	small, ok := FindSedmBracket(0.4)
	if !ok || small.MinMm != 0.3 {
		t.Fatalf("0.4 mm bracket = %+v, ok=%v", small, ok)
	}
	large, ok := FindSedmBracket(0.5)
	if !ok || large.MinMm != 0.5 {
		t.Fatalf("0.5 mm bracket = %+v, ok=%v", large, ok)
	}
	if small.BaseValueAt20mm == large.BaseValueAt20mm || small.PerMmAbove20 == large.PerMmAbove20 {
		t.Fatalf("adjacent brackets must price differently")
	}

	for _, b := range []SedmBracket{small, large} {
		size := b.MaxMm
		if b.MinMm == 0.5 {
			size = 0.5
		}
		at20 := SedmEntryAmount(SedmEntry{ThicknessMm: 20, ElectrodeSizeMm: size, HolesPerPiece: 2}, 3)
		nearlyEqual(t, "amount at 20mm", at20, b.BaseValueAt20mm*6)

		at25 := SedmEntryAmount(SedmEntry{ThicknessMm: 25, ElectrodeSizeMm: size, HolesPerPiece: 2}, 3)
		nearlyEqual(t, "amount at 25mm", at25, (b.BaseValueAt20mm+5*b.PerMmAbove20)*6)
	}
}

func TestSedm_ThinPlateUsesTwentyMillimetres(t *testing.T) {
	thin := SedmEntryAmount(SedmEntry{ThicknessMm: 8, ElectrodeSizeMm: 1.0, HolesPerPiece: 1}, 1)
	at20 := SedmEntryAmount(SedmEntry{ThicknessMm: 20, ElectrodeSizeMm: 1.0, HolesPerPiece: 1}, 1)
	nearlyEqual(t, "thin plate", thin, at20)
}

func TestSedm_UnmatchedSizeContributesZero(t *testing.T) {
	for _, size := range []float64{0.2, 0.45, 1.3, 2.1, 3.5} {
		if _, ok := FindSedmBracket(size); ok {
			t.Fatalf("size %v unexpectedly matched a bracket", size)
		}
	}
	s := Setting{
		Quantity: 4,
		Sedm: Sedm{Enabled: true, Entries: []SedmEntry{
			{ThicknessMm: 30, ElectrodeSizeMm: 1.3, HolesPerPiece: 5},
			{ThicknessMm: 30, ElectrodeSizeMm: 3.0, HolesPerPiece: 1},
		}},
	}
	result := Calculate(s)
	nearlyEqual(t, "sedm line 0", result.Breakdown.SedmLines[0], 0)
	nearlyEqual(t, "sedmAmount", result.Totals.SedmAmount, (28+10*1.5)*4)
	nearlyEqual(t, "totalAmount", result.Totals.TotalAmount, result.Totals.SedmAmount)
}

func TestSedm_DisabledIgnoresEntries(t *testing.T) {
	s := Setting{Quantity: 1, Sedm: Sedm{Enabled: false, Entries: []SedmEntry{{ThicknessMm: 20, ElectrodeSizeMm: 0.7, HolesPerPiece: 3}}}}
	nearlyEqual(t, "sedmAmount", Calculate(s).Totals.SedmAmount, 0)
}

func TestCalculate_Deterministic(t *testing.T) {
	s := Setting{CutLengthMm: 321.5, ThicknessMm: 120, PassLevel: 3, SettingLevel: 2, Quantity: 7, RatePerHour: 450, IsCritical: true}
	a, b := Calculate(s), Calculate(s)
	if a.Totals != b.Totals {
		t.Fatalf("Calculate not deterministic: %+v vs %+v", a.Totals, b.Totals)
	}
}

func TestSummarize(t *testing.T) {
	a := Setting{CutLengthMm: 10, ThicknessMm: 5, PassLevel: 1, SettingLevel: 1, Quantity: 2, RatePerHour: 100}
	b := Setting{SettingLevel: 2, Quantity: 3, RatePerHour: 10}
	sum := Summarize([]Setting{a, b})
	if sum.Settings != 2 || sum.Pieces != 5 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	ra, rb := Calculate(a), Calculate(b)
	nearlyEqual(t, "totalHours", sum.TotalHours, ra.Totals.TotalHoursPerPiece*2+rb.Totals.TotalHoursPerPiece*3)
	nearlyEqual(t, "totalAmount", sum.TotalAmount, ra.Totals.TotalAmount+rb.Totals.TotalAmount)
}
