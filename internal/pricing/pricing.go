package pricing

// SedmEntry is one secondary EDM drilling line of a setting.
type SedmEntry struct {
	ThicknessMm     float64 `json:"thickness_mm" yaml:"thickness_mm"`
	ElectrodeSizeMm float64 `json:"electrode_size_mm" yaml:"electrode_size_mm"`
	HolesPerPiece   int     `json:"holes_per_piece" yaml:"holes_per_piece"`
}

// Sedm groups the optional SEDM surcharge lines.
type Sedm struct {
	Enabled bool        `json:"enabled" yaml:"enabled"`
	Entries []SedmEntry `json:"entries" yaml:"entries"`
}

// Setting represents the job attributes of one cut used to estimate hours and cost.
type Setting struct {
	CutLengthMm  float64 `json:"cut_length_mm"`
	ThicknessMm  float64 `json:"thickness_mm"`
	PassLevel    int     `json:"pass_level"`
	SettingLevel float64 `json:"setting_level"`
	Quantity     int     `json:"quantity"`
	RatePerHour  float64 `json:"rate_per_hour"`
	IsCritical   bool    `json:"is_critical"`
	HasPipFinish bool    `json:"has_pip_finish"`
	Sedm         Sedm    `json:"sedm"`
}

// Breakdown contains all intermediate values of the hours calculation.
type Breakdown struct {
	ThicknessDivisor float64   `json:"thickness_divisor"`
	PassMultiplier   float64   `json:"pass_multiplier"`
	CutHoursPerPiece float64   `json:"cut_hours_per_piece"`
	SettingHours     float64   `json:"setting_hours"`
	ExtraHours       float64   `json:"extra_hours"`
	SedmLines        []float64 `json:"sedm_lines"`
}

// Totals contains roll-up values from the calculation.
type Totals struct {
	TotalHoursPerPiece float64 `json:"total_hours_per_piece"`
	WedmAmount         float64 `json:"wedm_amount"`
	SedmAmount         float64 `json:"sedm_amount"`
	TotalAmount        float64 `json:"total_amount"`
}

// Result groups the full pricing output, including detailed breakdown and totals.
type Result struct {
	Breakdown Breakdown `json:"breakdown"`
	Totals    Totals    `json:"totals"`
}

var passMultipliers = map[int]float64{
	1: 1.0,
	2: 1.5,
	3: 1.75,
	4: 2.0,
	5: 2.5,
	6: 2.75,
}

// PassMultiplier maps a pass level to its time multiplier. Unknown levels count as a single pass.
func PassMultiplier(level int) float64 {
	if m, ok := passMultipliers[level]; ok {
		return m
	}
	return 1.0
}

// ThicknessDivisor is the empirical cutting-rate divisor for a workpiece thickness.
func ThicknessDivisor(thicknessMm float64) float64 {
	switch {
	case thicknessMm < 20:
		return 1017.44
	case thicknessMm <= 100:
		return 1465
	case thicknessMm <= 150:
		return 1183
	default:
		return 1000
	}
}

// Calculate computes hours and amounts for one setting. It never fails.
func Calculate(s Setting) Result {
	divisor := ThicknessDivisor(s.ThicknessMm)
	multiplier := PassMultiplier(s.PassLevel)

	cutHours := (s.CutLengthMm * s.ThicknessMm / divisor) * multiplier
	settingHours := s.SettingLevel * 0.5
	extraHours := 0.0
	if s.IsCritical {
		extraHours++
	}
	if s.HasPipFinish {
		extraHours++
	}

	totalHours := cutHours + settingHours + extraHours
	quantity := float64(s.Quantity)
	wedm := totalHours * s.RatePerHour * quantity

	lines, sedm := sedmAmount(s.Sedm, s.Quantity)

	return Result{
		Breakdown: Breakdown{
			ThicknessDivisor: divisor,
			PassMultiplier:   multiplier,
			CutHoursPerPiece: cutHours,
			SettingHours:     settingHours,
			ExtraHours:       extraHours,
			SedmLines:        lines,
		},
		Totals: Totals{
			TotalHoursPerPiece: totalHours,
			WedmAmount:         wedm,
			SedmAmount:         sedm,
			TotalAmount:        wedm + sedm,
		},
	}
}

// Summary aggregates the totals of several settings.
type Summary struct {
	Settings    int     `json:"settings"`
	Pieces      int     `json:"pieces"`
	TotalHours  float64 `json:"total_hours"`
	WedmAmount  float64 `json:"wedm_amount"`
	SedmAmount  float64 `json:"sedm_amount"`
	TotalAmount float64 `json:"total_amount"`
}

// Summarize adds up hours (per piece times quantity) and amounts across settings.
func Summarize(settings []Setting) Summary {
	var sum Summary
	for _, s := range settings {
		r := Calculate(s)
		sum.Settings++
		sum.Pieces += s.Quantity
		sum.TotalHours += r.Totals.TotalHoursPerPiece * float64(s.Quantity)
		sum.WedmAmount += r.Totals.WedmAmount
		sum.SedmAmount += r.Totals.SedmAmount
		sum.TotalAmount += r.Totals.TotalAmount
	}
	return sum
}
