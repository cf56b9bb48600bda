package seed

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/Simplici0/edmtrack/internal/auth"
	"github.com/Simplici0/edmtrack/internal/db"
	"github.com/Simplici0/edmtrack/internal/migrations"
	"github.com/Simplici0/edmtrack/internal/store"
)

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(context.Background(), database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cfg := Config{
		AdminEmail:    "Admin@EDM.test",
		AdminPassword: "12345",
	}

	for i := 0; i < 5; i++ {
		stats, err := Run(database, cfg)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if want := 1 + len(DefaultIdleReasons); stats.Inserts != want {
				t.Fatalf("expected %d inserts in first run, got %d", want, stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	assertCount(t, database, `SELECT COUNT(*) FROM users WHERE email = ? AND role = 'admin'`, "admin@edm.test", 1)
	assertCount(t, database, `SELECT COUNT(*) FROM idle_reasons`, nil, len(DefaultIdleReasons))

	svc := auth.NewService(store.New(database), "secret", time.Hour)
	if _, _, p, err := svc.Login(context.Background(), "admin@edm.test", "12345"); err != nil || p.Role != store.RoleAdmin {
		t.Fatalf("admin login = %+v, %v", p, err)
	}
}

func TestRunSkipsAdminWithoutCredentials(t *testing.T) {
	t.Parallel()

	database, err := db.Open(filepath.Join(t.TempDir(), "seed-empty.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()
	if err := migrations.Up(context.Background(), database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	if _, err := Run(database, Config{}); err != nil {
		t.Fatalf("run seed: %v", err)
	}
	assertCount(t, database, `SELECT COUNT(*) FROM users`, nil, 0)
}

func assertCount(t *testing.T, database *sql.DB, query string, args any, expected int) {
	t.Helper()

	var count int
	var err error
	switch v := args.(type) {
	case nil:
		err = database.QueryRow(query).Scan(&count)
	case []any:
		err = database.QueryRow(query, v...).Scan(&count)
	default:
		err = database.QueryRow(query, v).Scan(&count)
	}
	if err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != expected {
		t.Fatalf("expected count %d, got %d", expected, count)
	}
}
