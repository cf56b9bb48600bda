package pricing

import (
	"encoding/json"
	"testing"
)

func TestFromDocument_CoercesAndReports(t *testing.T) {
	doc := Document{
		KeyCutLength:    "10",
		KeyThickness:    5,
		KeyPass:         "1",
		KeySettingLevel: 1.0,
		KeyQuantity:     "2",
		KeyRate:         "abc",
		KeyCritical:     "false",
	}

	s, coerced := FromDocument(doc)

	if s.CutLengthMm != 10 || s.ThicknessMm != 5 || s.PassLevel != 1 || s.Quantity != 2 {
		t.Fatalf("unexpected setting: %+v", s)
	}
	if s.RatePerHour != 0 {
		t.Fatalf("rate = %v, want 0", s.RatePerHour)
	}
	if len(coerced) != 1 || coerced[0].Field != KeyRate || coerced[0].Value != "abc" {
		t.Fatalf("coerced = %+v", coerced)
	}
}

func TestFromDocument_MissingFieldsAreSilentZeroes(t *testing.T) {
	s, coerced := FromDocument(Document{})
	if len(coerced) != 0 {
		t.Fatalf("missing fields must not be reported, got %+v", coerced)
	}
	result := Calculate(s)
	if result.Totals.TotalAmount != 0 {
		t.Fatalf("empty document total = %v", result.Totals.TotalAmount)
	}
}

func TestFromDocument_ReadsSedmFromJSON(t *testing.T) {
	raw := `{"cutLength": 100, "thickness": 25, "pass": "2", "quantity": 3, "rate": 200,
		"sedm": {"enabled": true, "entries": [{"thickness": 25, "electrodeSize": "0.5", "holes": 2}, "bogus"]}}`
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	s, coerced := FromDocument(doc)

	if !s.Sedm.Enabled || len(s.Sedm.Entries) != 1 {
		t.Fatalf("unexpected sedm: %+v", s.Sedm)
	}
	if s.Sedm.Entries[0].ElectrodeSizeMm != 0.5 || s.Sedm.Entries[0].HolesPerPiece != 2 {
		t.Fatalf("unexpected entry: %+v", s.Sedm.Entries[0])
	}
	if len(coerced) != 1 || coerced[0].Field != "sedm.entries[1]" {
		t.Fatalf("coerced = %+v", coerced)
	}
	nearlyEqual(t, "sedmAmount", Calculate(s).Totals.SedmAmount, (20+5*1.2)*2*3)
}

func TestToDocument_ReadsBack(t *testing.T) {
	s := Setting{
		CutLengthMm: 42, ThicknessMm: 12, PassLevel: 5, SettingLevel: 3, Quantity: 9, RatePerHour: 350,
		IsCritical: true,
		Sedm:       Sedm{Enabled: true, Entries: []SedmEntry{{ThicknessMm: 12, ElectrodeSizeMm: 2.2, HolesPerPiece: 4}}},
	}
	back, coerced := FromDocument(ToDocument(s))
	if len(coerced) != 0 {
		t.Fatalf("unexpected coercions: %+v", coerced)
	}
	if Calculate(back).Totals != Calculate(s).Totals {
		t.Fatalf("totals differ after document round trip")
	}
}
