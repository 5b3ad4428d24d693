package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Limits.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.Limits.PageSize)
	}
	if cfg.Limits.ReportThreshold != 3 {
		t.Errorf("ReportThreshold = %d, want 3", cfg.Limits.ReportThreshold)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Errorf("Cache.TTL = %v, want 30s", cfg.Cache.TTL)
	}
	if cfg.DB.URL != "file.db" {
		t.Errorf("DB.URL = %q, want file.db", cfg.DB.URL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "DB_DRIVER", "mysql"},
		{"zero page size", "PAGE_SIZE", "0"},
		{"bad duration", "CACHE_TTL", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DRIVER", "sqlite")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s succeeded, want error", tt.key, tt.val)
			}
		})
	}
}
