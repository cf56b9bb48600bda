// Package qa derives per-unit QA progress for a setting from its capture ranges
// and explicit operator overrides.
package qa

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// State is the progress of one quantity-unit.
type State string

const (
	Empty      State = "EMPTY"
	Saved      State = "SAVED"
	ReadyForQA State = "READY_FOR_QA"
	SentToQA   State = "SENT_TO_QA"
)

// MaxQuantity is the largest quantity a setting may track unit by unit.
const MaxQuantity = 100_000

// ErrAlreadyDispatched is returned when a SENT_TO_QA unit is selected again.
var ErrAlreadyDispatched = errors.New("unit already dispatched to QA")

// ParseState accepts the override states only; EMPTY is never stored.
func ParseState(s string) (State, bool) {
	switch State(strings.ToUpper(strings.TrimSpace(s))) {
	case Saved:
		return Saved, true
	case ReadyForQA:
		return ReadyForQA, true
	case SentToQA:
		return SentToQA, true
	}
	return "", false
}

// Label is the fixed display text for a state.
func (s State) Label() string {
	switch s {
	case Saved, ReadyForQA:
		return "Operation Logged"
	case SentToQA:
		return "QA Dispatched"
	default:
		return "Pending Input"
	}
}

// Range is an inclusive quantity range covered by a capture.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether unit n lies in the range.
func (r Range) Contains(n int) bool {
	return n >= r.From && n <= r.To
}

// Overlaps reports whether two ranges share at least one unit.
func (r Range) Overlaps(o Range) bool {
	return r.From <= o.To && o.From <= r.To
}

// Valid reports whether the range is well formed within 1..quantity.
func (r Range) Valid(quantity int) bool {
	return r.From >= 1 && r.From <= r.To && r.To <= quantity
}

func (r Range) String() string {
	if r.From == r.To {
		return strconv.Itoa(r.From)
	}
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// Overrides maps a unit number to its explicitly recorded state.
type Overrides map[int]State

// Unit is the derived state of one quantity-unit.
type Unit struct {
	Number int    `json:"unit"`
	State  State  `json:"state"`
	Label  string `json:"label"`
}

// Counts tallies units per state. The fields always sum to the quantity.
type Counts struct {
	Saved int `json:"saved"`
	Ready int `json:"ready"`
	Sent  int `json:"sent"`
	Empty int `json:"empty"`
}

// Total returns the number of units counted.
func (c Counts) Total() int {
	return c.Saved + c.Ready + c.Sent + c.Empty
}

// Progress is the result of Derive.
type Progress struct {
	Units  []Unit `json:"units"`
	Counts Counts `json:"counts"`
}

// Derive computes the state of every unit in 1..quantity. A valid override wins,
// then coverage by any capture range (ranges may overlap), then EMPTY. Overrides
// for units outside 1..quantity are ignored. Quantities above MaxQuantity are
// derived up to MaxQuantity.
func Derive(quantity int, ranges []Range, overrides Overrides) Progress {
	quantity = min(max(quantity, 0), MaxQuantity)
	p := Progress{Units: make([]Unit, 0, quantity)}
	for n := 1; n <= quantity; n++ {
		st := stateOf(n, ranges, overrides)
		p.Units = append(p.Units, Unit{Number: n, State: st, Label: st.Label()})
		switch st {
		case Saved:
			p.Counts.Saved++
		case ReadyForQA:
			p.Counts.Ready++
		case SentToQA:
			p.Counts.Sent++
		default:
			p.Counts.Empty++
		}
	}
	return p
}

func stateOf(n int, ranges []Range, overrides Overrides) State {
	if st, ok := overrides[n]; ok {
		switch st {
		case Saved, ReadyForQA, SentToQA:
			return st
		}
	}
	for _, r := range ranges {
		if r.Contains(n) {
			return Saved
		}
	}
	return Empty
}

// CanDispatch reports whether a unit may be selected for another QA action.
func CanDispatch(st State) bool {
	return st != SentToQA
}

// ApplyOverride returns a copy of overrides with units set to st. Units outside
// 1..quantity are rejected, and so is any unit already SENT_TO_QA.
func ApplyOverride(overrides Overrides, quantity int, units []int, st State) (Overrides, error) {
	switch st {
	case Saved, ReadyForQA, SentToQA:
	default:
		return nil, fmt.Errorf("invalid override state %q", st)
	}
	if len(units) == 0 {
		return nil, errors.New("no units selected")
	}
	out := make(Overrides, len(overrides)+len(units))
	for n, v := range overrides {
		out[n] = v
	}
	for _, n := range units {
		if n < 1 || n > quantity {
			return nil, fmt.Errorf("unit %d outside 1..%d", n, quantity)
		}
		if !CanDispatch(out[n]) {
			return nil, fmt.Errorf("unit %d: %w", n, ErrAlreadyDispatched)
		}
		out[n] = st
	}
	return out, nil
}

// DispatchedIn returns the SENT_TO_QA units inside r, ascending.
func DispatchedIn(r Range, overrides Overrides) []int {
	var units []int
	for n, st := range overrides {
		if st == SentToQA && r.Contains(n) {
			units = append(units, n)
		}
	}
	sort.Ints(units)
	return units
}

// OverlappingRanges returns the indexes of ranges sharing a unit with r.
func OverlappingRanges(r Range, ranges []Range) []int {
	var idx []int
	for i, o := range ranges {
		if r.Overlaps(o) {
			idx = append(idx, i)
		}
	}
	return idx
}

// ParseUnits reads a unit selection such as "1-3,5, 8". Every unit must lie in
// 1..quantity; bounds are checked before a range is expanded.
func ParseUnits(text string, quantity int) ([]int, error) {
	seen := map[int]bool{}
	var units []int
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("parse unit %q: %w", part, err)
		}
		to := from
		if isRange {
			if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("parse unit %q: %w", part, err)
			}
		}
		if to < from {
			return nil, fmt.Errorf("parse unit %q: reversed range", part)
		}
		if from < 1 || to > quantity {
			return nil, fmt.Errorf("parse unit %q: outside 1..%d", part, quantity)
		}
		for n := from; n <= to; n++ {
			if !seen[n] {
				seen[n] = true
				units = append(units, n)
			}
		}
	}
	sort.Ints(units)
	return units, nil
}
