package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnv sets variables for the duration of the test
func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.IsProduction() {
			t.Errorf("IsProduction() = true, want false")
		}
		if len(cfg.Acquisition.Sources) != 2 || cfg.Acquisition.Sources[0] != SourceCatalog {
			t.Errorf("Acquisition.Sources = %v, want [catalog openfoodfacts]", cfg.Acquisition.Sources)
		}
		if cfg.OpenFoodFacts.BaseURL != "https://world.openfoodfacts.org" {
			t.Errorf("OpenFoodFacts.BaseURL = %s", cfg.OpenFoodFacts.BaseURL)
		}
		if cfg.OpenFoodFacts.Timeout != 10*time.Second {
			t.Errorf("OpenFoodFacts.Timeout = %v, want 10s", cfg.OpenFoodFacts.Timeout)
		}
		if cfg.OpenFoodFacts.BreakerFailures != 5 {
			t.Errorf("OpenFoodFacts.BreakerFailures = %d, want 5", cfg.OpenFoodFacts.BreakerFailures)
		}
		if cfg.Vision.Enabled {
			t.Errorf("Vision.Enabled = true, want false")
		}
		if cfg.Vision.MaxRetries != 2 {
			t.Errorf("Vision.MaxRetries = %d, want 2", cfg.Vision.MaxRetries)
		}
		if cfg.Store.Type != "memory" {
			t.Errorf("Store.Type = %s, want memory", cfg.Store.Type)
		}
		if cfg.Store.Namespace != "allergenapp" {
			t.Errorf("Store.Namespace = %s, want allergenapp", cfg.Store.Namespace)
		}
		if cfg.History.DisplayLimit != 5 {
			t.Errorf("History.DisplayLimit = %d, want 5", cfg.History.DisplayLimit)
		}
		if cfg.RateLimit.PerIP != 60 {
			t.Errorf("RateLimit.PerIP = %d, want 60", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Level != "info" {
			t.Errorf("Log.Level = %s, want info", cfg.Log.Level)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		setEnv(t, map[string]string{
			"ALLERGENAPP_SERVER_PORT":            "9090",
			"ALLERGENAPP_SERVER_ENVIRONMENT":     "production",
			"ALLERGENAPP_SERVER_ALLOWED_ORIGINS": "https://app.example.com,https://*.example.org",
			"ALLERGENAPP_ACQUISITION_SOURCES":    "openfoodfacts",
			"ALLERGENAPP_OPENFOODFACTS_TIMEOUT":  "3s",
			"ALLERGENAPP_VISION_ENABLED":         "true",
			"ALLERGENAPP_VISION_API_KEY":         "sk-test",
			"ALLERGENAPP_VISION_MAX_RETRIES":     "0",
			"ALLERGENAPP_STORE_TYPE":             "sqlite",
			"ALLERGENAPP_STORE_SQLITE_PATH":      "/tmp/scans.db",
			"ALLERGENAPP_HISTORY_DISPLAY_LIMIT":  "10",
			"ALLERGENAPP_RATELIMIT_PER_IP":       "120",
			"ALLERGENAPP_LOG_LEVEL":              "debug",
		})

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if !cfg.IsProduction() {
			t.Errorf("IsProduction() = false, want true")
		}
		if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://*.example.org" {
			t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
		}
		if len(cfg.Acquisition.Sources) != 1 || cfg.Acquisition.Sources[0] != SourceOpenFoodFacts {
			t.Errorf("Acquisition.Sources = %v, want [openfoodfacts]", cfg.Acquisition.Sources)
		}
		if cfg.OpenFoodFacts.Timeout != 3*time.Second {
			t.Errorf("OpenFoodFacts.Timeout = %v, want 3s", cfg.OpenFoodFacts.Timeout)
		}
		if !cfg.Vision.Enabled || cfg.Vision.APIKey != "sk-test" {
			t.Errorf("Vision = %+v, want enabled with key", cfg.Vision)
		}
		if cfg.Vision.MaxRetries != 0 {
			t.Errorf("Vision.MaxRetries = %d, want 0", cfg.Vision.MaxRetries)
		}
		if cfg.Store.Type != "sqlite" || cfg.Store.SQLitePath != "/tmp/scans.db" {
			t.Errorf("Store = %+v", cfg.Store)
		}
		if cfg.History.DisplayLimit != 10 {
			t.Errorf("History.DisplayLimit = %d, want 10", cfg.History.DisplayLimit)
		}
		if cfg.RateLimit.PerIP != 120 {
			t.Errorf("RateLimit.PerIP = %d, want 120", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("Log.Level = %s, want debug", cfg.Log.Level)
		}
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		tests := []struct {
			name string
			env  map[string]string
		}{
			{"unknown store type", map[string]string{"ALLERGENAPP_STORE_TYPE": "mongodb"}},
			{"redis without url", map[string]string{"ALLERGENAPP_STORE_TYPE": "redis"}},
			{"vision without key", map[string]string{"ALLERGENAPP_VISION_ENABLED": "true"}},
			{"negative vision retries", map[string]string{"ALLERGENAPP_VISION_MAX_RETRIES": "-1"}},
			{"unknown source", map[string]string{"ALLERGENAPP_ACQUISITION_SOURCES": "catalog,usda"}},
			{"zero display limit", map[string]string{"ALLERGENAPP_HISTORY_DISPLAY_LIMIT": "0"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				setEnv(t, tt.env)
				if _, err := Load(); err == nil {
					t.Errorf("Load() error = nil, want validation error")
				}
			})
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Run("missing .env is fine", func(t *testing.T) {
		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil", err)
		}
	})

	t.Run(".env values do not override the environment", func(t *testing.T) {
		content := "ALLERGENAPP_SERVER_PORT=7070\nALLERGENAPP_LOG_LEVEL=warn\n"
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("ALLERGENAPP_LOG_LEVEL", "error")
		// Registered so t.Setenv restores (unsets) it after godotenv writes it
		t.Setenv("ALLERGENAPP_SERVER_PORT", "")
		os.Unsetenv("ALLERGENAPP_SERVER_PORT")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.Server.Port != "7070" {
			t.Errorf("Server.Port = %s, want 7070 from .env", cfg.Server.Port)
		}
		if cfg.Log.Level != "error" {
			t.Errorf("Log.Level = %s, want error from environment", cfg.Log.Level)
		}
	})
}
