package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadReadsYAML(t *testing.T) {
	path := writeConfig(t, `
port: "8090"
logLevel: debug
databaseURL: postgres://localhost/fitpro
jwtSecret: dev-secret
adminEmail: admin@example.com
adminPassword: Sup3r$ecret123
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8090" || cfg.DatabaseURL != "postgres://localhost/fitpro" || cfg.JWTSecret != "dev-secret" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
port: "8090"
databaseURL: postgres://localhost/fitpro
jwtSecret: file-secret
`)
	t.Setenv("FITAPI_JWT_SECRET", "env-secret")
	t.Setenv("DATABASE_URL", "postgres://db/fitpro")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret != "env-secret" || cfg.DatabaseURL != "postgres://db/fitpro" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsMissingPort(t *testing.T) {
	path := writeConfig(t, `
databaseURL: postgres://localhost/fitpro
jwtSecret: dev-secret
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing port")
	}
}

func TestLoadRequiresSessionBackend(t *testing.T) {
	path := writeConfig(t, `
port: "8090"
databaseURL: postgres://localhost/fitpro
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error without redisAddr or jwtSecret")
	}
}

func TestParseSessionTTL(t *testing.T) {
	d, err := ParseSessionTTL("")
	if err != nil || d != 24*time.Hour {
		t.Fatalf("default ttl = %v err=%v", d, err)
	}
	d, err = ParseSessionTTL("90m")
	if err != nil || d != 90*time.Minute {
		t.Fatalf("parsed ttl = %v err=%v", d, err)
	}
	if _, err := ParseSessionTTL("soon"); err == nil {
		t.Fatal("expected error for bad ttl")
	}
}
