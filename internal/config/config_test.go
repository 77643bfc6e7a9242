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

func TestLoadConfig(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := writeConfig(t, `
server:
  port: 9090
log:
  level: debug
  format: console
auth:
  mode: jwt
  jwt_secret: topsecret
agents:
  default: defi-analyst
  ids: [defi-analyst, yield-scout]
jobs:
  max_jobs: 50
  default_timeout: 10s
  max_timeout: 1m
  sweep_interval: 5s
  listener_grace: 2s
  evict_fraction: 0.25
`)
		cfg, err := LoadConfig(path, true)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Server.Port != 9090 || cfg.Log.Level != "debug" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.Auth.Mode != "jwt" || cfg.Auth.JWTSecret != "topsecret" {
			t.Fatalf("auth not parsed: %+v", cfg.Auth)
		}
		if cfg.Agents.Default != "defi-analyst" || len(cfg.Agents.IDs) != 2 {
			t.Fatalf("agents not parsed: %+v", cfg.Agents)
		}
		if cfg.Jobs.MaxJobs != 50 || cfg.Jobs.DefaultTimeout != 10*time.Second || cfg.Jobs.EvictFraction != 0.25 {
			t.Fatalf("jobs not parsed: %+v", cfg.Jobs)
		}
		if !cfg.Runtime.Dev {
			t.Fatalf("dev flag not carried")
		}
	})

	t.Run("defaults fill unset fields", func(t *testing.T) {
		path := writeConfig(t, `
agents:
  default: defi-analyst
`)
		cfg, err := LoadConfig(path, false)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Server.Port != 8080 || cfg.Log.Level != "info" || cfg.Log.Format != "json" {
			t.Fatalf("server/log defaults missing: %+v", cfg)
		}
		if cfg.Auth.Mode != "static" || cfg.Auth.StaticID != "anonymous" {
			t.Fatalf("auth defaults missing: %+v", cfg.Auth)
		}
		j := cfg.Jobs
		if j.MaxJobs != 1000 || j.DefaultTimeout != 30*time.Second || j.MaxTimeout != 5*time.Minute {
			t.Fatalf("job limits defaults missing: %+v", j)
		}
		if j.SweepInterval != 30*time.Second || j.ListenerGrace != 5*time.Second || j.EvictFraction != 0.10 {
			t.Fatalf("sweeper defaults missing: %+v", j)
		}
		if j.PollInterval != time.Second || j.PollMaxAttempts != 30 {
			t.Fatalf("poll defaults missing: %+v", j)
		}
	})

	t.Run("missing agents rejected", func(t *testing.T) {
		path := writeConfig(t, `server: {port: 8080}`)
		if _, err := LoadConfig(path, false); err == nil {
			t.Fatalf("want error for empty agent roster")
		}
	})

	t.Run("jwt mode without secret rejected", func(t *testing.T) {
		path := writeConfig(t, `
auth:
  mode: jwt
agents:
  default: defi-analyst
`)
		if _, err := LoadConfig(path, false); err == nil {
			t.Fatalf("want error for missing jwt secret")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
			t.Fatalf("want error for missing file")
		}
	})

	t.Run("out-of-range evict fraction normalized", func(t *testing.T) {
		path := writeConfig(t, `
agents:
  default: defi-analyst
jobs:
  evict_fraction: 3.5
`)
		cfg, err := LoadConfig(path, false)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if cfg.Jobs.EvictFraction != 0.10 {
			t.Fatalf("want normalized 0.10, got %v", cfg.Jobs.EvictFraction)
		}
	})
}
