package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "GIN_MODE", "TENANT_COOKIE", "SESSION_IDLE_TIMEOUT", "CLEANUP_INTERVAL", "LOG_VERBOSE"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Port != "8080" {
		t.Errorf("expected port 8080, got %s", c.Port)
	}
	if c.GinMode != "release" {
		t.Errorf("expected gin mode release, got %s", c.GinMode)
	}
	if c.TenantCookie != "wheel_tenant" {
		t.Errorf("expected cookie wheel_tenant, got %s", c.TenantCookie)
	}
	if c.SessionIdle != time.Hour {
		t.Errorf("expected idle timeout 1h, got %s", c.SessionIdle)
	}
	if c.CleanupInterval != 10*time.Minute {
		t.Errorf("expected cleanup interval 10m, got %s", c.CleanupInterval)
	}
	if c.Verbose {
		t.Error("expected verbose logging off")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("SESSION_IDLE_TIMEOUT", "30m")
	t.Setenv("CLEANUP_INTERVAL", "not-a-duration")
	t.Setenv("LOG_VERBOSE", "true")

	c := FromEnv()
	if c.Port != "3000" {
		t.Errorf("expected port 3000, got %s", c.Port)
	}
	if c.SessionIdle != 30*time.Minute {
		t.Errorf("expected idle timeout 30m, got %s", c.SessionIdle)
	}
	if c.CleanupInterval != 10*time.Minute {
		t.Errorf("invalid duration should fall back to default, got %s", c.CleanupInterval)
	}
	if !c.Verbose {
		t.Error("expected verbose logging on")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	t.Setenv("TENANT_COOKIE", "")
	os.Unsetenv("TENANT_COOKIE")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TENANT_COOKIE=from_file\n"), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}

	c := Load(path)
	if c.TenantCookie != "from_file" {
		t.Errorf("expected cookie from .env, got %s", c.TenantCookie)
	}
}
