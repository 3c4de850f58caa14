package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadSweeper(t *testing.T) {
	t.Run("required variables", func(t *testing.T) {
		t.Setenv("MONETA_API_URL", "")
		t.Setenv("PIPELINE_API_KEY", "key")
		if _, err := LoadSweeper(); err == nil || !strings.Contains(err.Error(), "MONETA_API_URL") {
			t.Fatalf("expected MONETA_API_URL error, got %v", err)
		}

		t.Setenv("MONETA_API_URL", "http://api:8080")
		t.Setenv("PIPELINE_API_KEY", "")
		if _, err := LoadSweeper(); err == nil || !strings.Contains(err.Error(), "PIPELINE_API_KEY") {
			t.Fatalf("expected PIPELINE_API_KEY error, got %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		t.Setenv("MONETA_API_URL", "http://api:8080/")
		t.Setenv("PIPELINE_API_KEY", "key")

		cfg, err := LoadSweeper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.APIURL != "http://api:8080" {
			t.Errorf("expected trailing slash trimmed, got %q", cfg.APIURL)
		}
		if cfg.RequestTimeout != 30*time.Second {
			t.Errorf("expected 30s timeout, got %v", cfg.RequestTimeout)
		}
		if !cfg.RecordSnapshots {
			t.Error("expected snapshots on by default")
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("MONETA_API_URL", "http://api:8080")
		t.Setenv("PIPELINE_API_KEY", "key")
		t.Setenv("REQUEST_TIMEOUT", "5s")
		t.Setenv("RECORD_SNAPSHOTS", "0")

		cfg, err := LoadSweeper()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.RequestTimeout != 5*time.Second || cfg.RecordSnapshots {
			t.Errorf("overrides not applied: %+v", cfg)
		}
	})

	for _, tc := range []struct{ key, value string }{
		{"REQUEST_TIMEOUT", "soon"},
		{"REQUEST_TIMEOUT", "-1s"},
		{"RECORD_SNAPSHOTS", "maybe"},
	} {
		t.Run("invalid "+tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv("MONETA_API_URL", "http://api:8080")
			t.Setenv("PIPELINE_API_KEY", "key")
			t.Setenv(tc.key, tc.value)
			if _, err := LoadSweeper(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
