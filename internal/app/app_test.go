package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Simplici0/edmtrack/internal/config"
	"github.com/Simplici0/edmtrack/internal/migrations"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		AdminEmail:    "admin@shop.test",
		AdminPassword: "admin-pass",
		SessionSecret: "secret",
		DBPath:        filepath.Join(t.TempDir(), "data", "edm.db"),
		AppEnv:        "dev",
		TokenTTL:      time.Hour,
	}
}

func TestOpen_MigratesSeedsAndServesLogin(t *testing.T) {
	a, err := Open(context.Background(), testConfig(t), Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()

	v, err := migrations.Version(context.Background(), a.DB)
	if err != nil || v != 1 {
		t.Fatalf("version = %d, err = %v", v, err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ADMIN@shop.test","password":"admin-pass"}`))
	req.Header.Set("Content-Type", "application/json")
	a.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Token == "" {
		t.Fatalf("login body %s: %v", rec.Body.String(), err)
	}
}

func TestOpen_RequiresSessionSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.SessionSecret = ""
	if _, err := Open(context.Background(), cfg, Options{}); err == nil {
		t.Fatalf("expected error without session secret")
	}
}

func TestServe_StopsWithContext(t *testing.T) {
	a, err := Open(context.Background(), testConfig(t), Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop")
	}
}
