package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Simplici0/edmtrack/internal/pause"
	"github.com/Simplici0/edmtrack/internal/pricing"
	"github.com/Simplici0/edmtrack/internal/qa"
)

func TestReadDocument_YAMLWithSedm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setting.yaml")
	content := []byte(`cutLength: 100
thickness: 25
pass: "2"
quantity: 3
rate: 200
sedm:
  enabled: true
  entries:
    - thickness: 25
      electrodeSize: 0.5
      holes: 2
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	s, coerced := pricing.FromDocument(doc)
	if len(coerced) != 0 {
		t.Fatalf("unexpected coercions: %+v", coerced)
	}
	if s.PassLevel != 2 || s.Quantity != 3 || !s.Sedm.Enabled || len(s.Sedm.Entries) != 1 || s.Sedm.Entries[0].HolesPerPiece != 2 {
		t.Fatalf("setting = %+v", s)
	}

	var out bytes.Buffer
	renderCost(&out, s, pricing.Calculate(s))
	if !strings.Contains(out.String(), "SEDM 0.5mm x2 @ 25mm") {
		t.Fatalf("missing SEDM line:\n%s", out.String())
	}
}

func TestReadDocument_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setting.json")
	if err := os.WriteFile(path, []byte(`{"cutLength": "10", "thickness": 5, "quantity": 2}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := readDocument(path)
	if err != nil {
		t.Fatalf("readDocument: %v", err)
	}
	s, _ := pricing.FromDocument(doc)
	if s.CutLengthMm != 10 || s.Quantity != 2 {
		t.Fatalf("setting = %+v", s)
	}

	if _, err := readDocument(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseRangesAndOverrides(t *testing.T) {
	rs, err := parseRanges([]string{"1-3", "5"}, 6)
	if err != nil {
		t.Fatalf("parseRanges: %v", err)
	}
	if len(rs) != 2 || rs[0] != (qa.Range{From: 1, To: 3}) || rs[1] != (qa.Range{From: 5, To: 5}) {
		t.Fatalf("ranges = %+v", rs)
	}
	if _, err := parseRanges([]string{"1,3"}, 6); err == nil {
		t.Fatalf("expected error for a split range")
	}
	if _, err := parseRanges([]string{"5-9"}, 6); err == nil {
		t.Fatalf("expected error for a range past the quantity")
	}

	ov, err := parseOverrides([]string{"1-2=sent_to_qa", "4=READY_FOR_QA"}, 6)
	if err != nil {
		t.Fatalf("parseOverrides: %v", err)
	}
	p := qa.Derive(6, rs, ov)
	if p.Counts.Sent != 2 || p.Counts.Ready != 1 || p.Counts.Saved != 2 || p.Counts.Empty != 1 {
		t.Fatalf("counts = %+v", p.Counts)
	}

	if _, err := parseOverrides([]string{"1=SENT_TO_QA", "1=SAVED"}, 6); !errors.Is(err, qa.ErrAlreadyDispatched) {
		t.Fatalf("expected ErrAlreadyDispatched, got %v", err)
	}
	if _, err := parseOverrides([]string{"1=EMPTY"}, 6); err == nil {
		t.Fatalf("EMPTY is not an override state")
	}

	var out bytes.Buffer
	renderProgress(&out, p)
	if !strings.Contains(out.String(), "QA Dispatched") || !strings.Contains(strings.ToLower(out.String()), "empty 1") {
		t.Fatalf("progress table:\n%s", out.String())
	}
}

func TestEndSummary(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local).UnixMilli()
	s := pause.Start(start)
	var err error
	if s, err = pause.Transition(s, pause.Pause{Reason: "Break"}, start+30*60*1000); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if s, err = pause.Transition(s, pause.End{}, start+60*60*1000); err != nil {
		t.Fatalf("end: %v", err)
	}
	got := endSummary(s)
	want := "01/03/2024 08:00 -> 01/03/2024 09:00, paused 00:30:00, machine hours 0.500"
	if got != want {
		t.Fatalf("endSummary = %q, want %q", got, want)
	}
	if endSummary(pause.Start(start)) != "" {
		t.Fatalf("running timer has no summary")
	}
}

func TestSnapshotLine(t *testing.T) {
	s, err := pause.Transition(pause.Start(0), pause.Pause{Reason: "Wire break"}, 60_000)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	got := snapshotLine(3, s.Snapshot(120_000))
	want := "unit 3 PAUSED  elapsed 00:01:00 paused 00:01:00 (Wire break)"
	if got != want {
		t.Fatalf("snapshotLine = %q, want %q", got, want)
	}
}
