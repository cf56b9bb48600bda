package db

import (
	"path/filepath"
	"testing"
)

func TestOpen_EnablesForeignKeysAndCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "edm.db")
	database, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	var enabled int
	if err := database.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled); err != nil {
		t.Fatalf("read pragma: %v", err)
	}
	if enabled != 1 {
		t.Fatalf("foreign_keys = %d, want 1", enabled)
	}
}
