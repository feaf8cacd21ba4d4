package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"alcyxob/nutrition-app/internal/config"
)

const sampleYAML = `
server:
  address: ":9090"
jwt:
  secret: "file-secret"
  expiration: "30m"
admin:
  emails:
    - Boss@Example.com
nutrition:
  deficit: 0.8
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigFileEnvAndDotenv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), sampleYAML)
	writeFile(t, filepath.Join(dir, ".env"), "LOG_LEVEL=debug\nLOG_FORMAT=json\n")
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	t.Setenv("SERVER_ADDRESS", ":7070")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Fatalf("env should override file, got %q", cfg.Server.Address)
	}
	if cfg.JWT.Expiration != 30*time.Minute || cfg.JWT.Secret != "file-secret" {
		t.Fatalf("unexpected jwt config %+v", cfg.JWT)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf(".env value not loaded, got %q", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Fatalf("process env should win over .env, got %q", cfg.Log.Format)
	}
	if !cfg.Admin.IsAdminEmail("boss@example.com") || cfg.Admin.IsAdminEmail("") {
		t.Fatalf("unexpected admin emails %v", cfg.Admin.Emails)
	}

	k := cfg.NutritionConstants()
	if k.Deficit != 0.8 || k.Thermogenesis != 1.10 || k.Portions.Carbs != 15 {
		t.Fatalf("unexpected constants %+v", k)
	}
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Address != ":8080" || cfg.JWT.Expiration != time.Hour || cfg.S3.ReportExpiry != 15*time.Minute {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Adherence.RiskThreshold != 0.4 || cfg.Adherence.DefaultRangeDays != 7 {
		t.Fatalf("unexpected adherence defaults %+v", cfg.Adherence)
	}
}
