package unit

import (
	"testing"
	"time"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg := config.Load()

	if cfg.Port != "8090" {
		t.Fatalf("default port = %q", cfg.Port)
	}
	if cfg.ApplicationName != "riTrack" {
		t.Fatalf("default application name = %q", cfg.ApplicationName)
	}
	if cfg.KeepaliveInterval != 30*time.Second {
		t.Fatalf("default keepalive = %s", cfg.KeepaliveInterval)
	}
	if cfg.Addr() != ":8090" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LOCATION_POLL_INTERVAL", "3s")
	t.Setenv("DB_MAX_CONNS", "7")

	cfg := config.Load()
	if cfg.Port != "9999" {
		t.Fatalf("port override = %q", cfg.Port)
	}
	if cfg.PollInterval != 3*time.Second {
		t.Fatalf("poll interval override = %s", cfg.PollInterval)
	}
	if cfg.DBMaxConns != 7 {
		t.Fatalf("db max conns override = %d", cfg.DBMaxConns)
	}
}

func TestLoadIgnoresInvalidDuration(t *testing.T) {
	t.Setenv("LOCATION_POLL_INTERVAL", "soon")

	cfg := config.Load()
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("expected fallback poll interval, got %s", cfg.PollInterval)
	}
}
