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
port: "8080"
logLevel: info
upstreamURL: http://localhost:8090
redisAddr: localhost:6379
loginRateLimitPerMinute: 5
trustedProxyCidrs:
  - 10.0.0.0/8
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.UpstreamURL != "http://localhost:8090" || cfg.LoginRateLimitPerMinute != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.TrustedProxyCIDRs) != 1 || cfg.TrustedProxyCIDRs[0] != "10.0.0.0/8" {
		t.Fatalf("trusted proxies not parsed: %+v", cfg.TrustedProxyCIDRs)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
upstreamURL: http://localhost:8090
redisAddr: localhost:6379
`)
	t.Setenv("GATEWAY_UPSTREAM_URL", "http://fitapi:9000")
	t.Setenv("REDIS_ADDR", "redis:6379")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UpstreamURL != "http://fitapi:9000" || cfg.RedisAddr != "redis:6379" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsMissingUpstream(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
redisAddr: localhost:6379
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing upstreamURL")
	}
}

func TestLoadRejectsMissingRedis(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
upstreamURL: http://localhost:8090
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing redisAddr")
	}
}

func TestParseTokenLeeway(t *testing.T) {
	d, err := ParseTokenLeeway("")
	if err != nil || d != 0 {
		t.Fatalf("empty leeway = %v err=%v", d, err)
	}
	d, err = ParseTokenLeeway("45s")
	if err != nil || d != 45*time.Second {
		t.Fatalf("parsed leeway = %v err=%v", d, err)
	}
	if _, err := ParseTokenLeeway("later"); err == nil {
		t.Fatal("expected error for bad leeway")
	}
}
