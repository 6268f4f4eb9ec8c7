package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server settings read from the environment.
type Config struct {
	Port            string
	GinMode         string
	TenantCookie    string
	SessionIdle     time.Duration
	CleanupInterval time.Duration
	Verbose         bool
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) Config {
	// A missing .env is normal outside development.
	_ = godotenv.Load(files...)
	return FromEnv()
}

// FromEnv builds a Config from environment variables, falling back to defaults.
func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.GinMode = getenv("GIN_MODE", "release")
	c.TenantCookie = getenv("TENANT_COOKIE", "wheel_tenant")
	c.SessionIdle = getduration("SESSION_IDLE_TIMEOUT", time.Hour)
	c.CleanupInterval = getduration("CLEANUP_INTERVAL", 10*time.Minute)
	c.Verbose, _ = strconv.ParseBool(getenv("LOG_VERBOSE", "false"))
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
