package seed

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Simplici0/edmtrack/internal/auth"
	"github.com/Simplici0/edmtrack/internal/store"
)

// DefaultIdleReasons are offered when an operator pauses a unit timer.
var DefaultIdleReasons = []string{
	"Wire break",
	"Wire change",
	"Setting change",
	"Power failure",
	"Machine maintenance",
	"Waiting for material",
	"Waiting for program",
	"Break",
}

// Config contains the values required by startup seed.
type Config struct {
	AdminEmail    string
	AdminPassword string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := seedAdmin(tx, cfg.AdminEmail, cfg.AdminPassword, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureIdleReasons(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func seedAdmin(tx *sql.Tx, email, password string, stats *Stats) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ? LIMIT 1)`, email).Scan(&exists); err != nil {
		return fmt.Errorf("check admin user existence: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO users (email, name, role, password_hash) VALUES (?, ?, ?, ?)`,
		email, "Administrator", store.RoleAdmin, hash); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureIdleReasons(tx *sql.Tx, stats *Stats) error {
	for _, label := range DefaultIdleReasons {
		res, err := tx.Exec(`INSERT OR IGNORE INTO idle_reasons (label) VALUES (?)`, label)
		if err != nil {
			return fmt.Errorf("insert idle reason %q: %w", label, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("count idle reason insert: %w", err)
		}
		stats.Inserts += int(n)
	}
	return nil
}
