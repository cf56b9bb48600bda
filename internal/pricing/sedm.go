package pricing

import "math"

// SedmBracket prices holes drilled with electrodes in [MinMm, MaxMm].
type SedmBracket struct {
	MinMm           float64 `json:"min_mm"`
	MaxMm           float64 `json:"max_mm"`
	BaseValueAt20mm float64 `json:"base_value_at_20mm"`
	PerMmAbove20    float64 `json:"per_mm_above_20"`
}

const (
	sedmBaseThicknessMm = 20
	sizeTolerance       = 1e-9
)

// SedmBrackets is the fixed electrode-size price list, smallest electrode first.
var SedmBrackets = []SedmBracket{
	{MinMm: 0.3, MaxMm: 0.4, BaseValueAt20mm: 25, PerMmAbove20: 1.5},
	{MinMm: 0.5, MaxMm: 0.6, BaseValueAt20mm: 20, PerMmAbove20: 1.2},
	{MinMm: 0.7, MaxMm: 0.7, BaseValueAt20mm: 18, PerMmAbove20: 1.0},
	{MinMm: 0.8, MaxMm: 1.2, BaseValueAt20mm: 15, PerMmAbove20: 0.8},
	{MinMm: 1.5, MaxMm: 2.0, BaseValueAt20mm: 18, PerMmAbove20: 1.0},
	{MinMm: 2.2, MaxMm: 2.5, BaseValueAt20mm: 22, PerMmAbove20: 1.2},
	{MinMm: 3.0, MaxMm: 3.0, BaseValueAt20mm: 28, PerMmAbove20: 1.5},
}

// FindSedmBracket returns the bracket containing the electrode size.
func FindSedmBracket(electrodeSizeMm float64) (SedmBracket, bool) {
	for _, b := range SedmBrackets {
		if electrodeSizeMm >= b.MinMm-sizeTolerance && electrodeSizeMm <= b.MaxMm+sizeTolerance {
			return b, true
		}
	}
	return SedmBracket{}, false
}

// SedmEntryAmount prices one entry; sizes outside every bracket contribute zero.
func SedmEntryAmount(e SedmEntry, quantity int) float64 {
	b, ok := FindSedmBracket(e.ElectrodeSizeMm)
	if !ok {
		return 0
	}
	thickness := math.Max(e.ThicknessMm, sedmBaseThicknessMm)
	perHole := b.BaseValueAt20mm + math.Max(0, thickness-sedmBaseThicknessMm)*b.PerMmAbove20
	return perHole * float64(e.HolesPerPiece) * float64(quantity)
}

func sedmAmount(s Sedm, quantity int) ([]float64, float64) {
	if !s.Enabled {
		return []float64{}, 0
	}
	lines := make([]float64, 0, len(s.Entries))
	total := 0.0
	for _, e := range s.Entries {
		amount := SedmEntryAmount(e, quantity)
		lines = append(lines, amount)
		total += amount
	}
	return lines, total
}
