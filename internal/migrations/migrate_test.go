package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Simplici0/edmtrack/internal/db"
)

func TestUpIsRepeatable(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := Up(ctx, database); err != nil {
			t.Fatalf("up (run %d): %v", i, err)
		}
	}
	v, err := Version(ctx, database)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != 1 {
		t.Fatalf("version = %d, want 1", v)
	}

	for _, table := range []string{"users", "job_settings", "captures", "qa_states", "unit_timers", "idle_reasons", "activity"} {
		var name string
		if err := database.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name); err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}
