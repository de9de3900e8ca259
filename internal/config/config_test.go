package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_DefaultPort(t *testing.T) {
	t.Setenv("PORT", "")

	cfg := Load()

	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
}

func TestLoad_PortFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
}

func TestLoad_InvalidPortFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"NotANumber", "eight thousand"},
		{"Negative", "-1"},
		{"Zero", "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("PORT", tc.value)

			cfg := Load()

			if cfg.Server.Port != 8000 {
				t.Errorf("expected fallback port 8000 for %q, got %d", tc.value, cfg.Server.Port)
			}
		})
	}
}

func TestLoad_DefaultHost(t *testing.T) {
	t.Setenv("HOST", "")

	cfg := Load()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected default host 0.0.0.0, got %s", cfg.Server.Host)
	}
}

func TestLoad_DefaultThreshold(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "")

	cfg := Load()

	if cfg.Match.Threshold != 0.33 {
		t.Errorf("expected default threshold 0.33, got %f", cfg.Match.Threshold)
	}
}

func TestLoad_ThresholdFromEnv(t *testing.T) {
	t.Setenv("MATCH_THRESHOLD", "0.5")

	cfg := Load()

	if cfg.Match.Threshold != 0.5 {
		t.Errorf("expected threshold 0.5, got %f", cfg.Match.Threshold)
	}
}

func TestVolumeConfig_WeightsDir(t *testing.T) {
	v := VolumeConfig{Path: "/data"}

	expected := filepath.Join("/data", "models", "deepface", "weights")
	if got := v.WeightsDir(); got != expected {
		t.Errorf("expected weights dir %s, got %s", expected, got)
	}
}

func TestVolumeConfig_ImagesDir(t *testing.T) {
	v := VolumeConfig{Path: "/data"}

	expected := filepath.Join("/data", "images")
	if got := v.ImagesDir(); got != expected {
		t.Errorf("expected images dir %s, got %s", expected, got)
	}
}

func TestEngineCacheDir_Override(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{CacheDir: "/tmp/cache"}}

	if got := cfg.EngineCacheDir(); got != "/tmp/cache" {
		t.Errorf("expected /tmp/cache, got %s", got)
	}
}

func TestLoad_DatabaseDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "")
	t.Setenv("DATABASE_MAX_IDLE_CONNS", "")

	cfg := Load()

	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected default driver postgres, got %s", cfg.Database.Driver)
	}
	if cfg.Database.MaxOpenConns != 25 {
		t.Errorf("expected 25 max open conns, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("expected 5 max idle conns, got %d", cfg.Database.MaxIdleConns)
	}
}
