package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AuthConfig struct {
	Mode      string `yaml:"mode"`       // jwt | static
	JWTSecret string `yaml:"jwt_secret"` // HMAC secret for jwt mode
	StaticID  string `yaml:"static_id"`  // fixed caller id for static mode
}

type AgentsConfig struct {
	Default string   `yaml:"default"`
	IDs     []string `yaml:"ids"`
}

type JobsConfig struct {
	MaxJobs        int           `yaml:"max_jobs"`
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	MaxTimeout     time.Duration `yaml:"max_timeout"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	// ListenerGrace bounds how long a correlator listener may outlive its
	// job's deadline before it is force-released.
	ListenerGrace time.Duration `yaml:"listener_grace"`
	// EvictFraction is the share of the table shed (oldest first) when the
	// sweeper finds the table over max_jobs.
	EvictFraction   float64       `yaml:"evict_fraction"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	PollMaxAttempts int           `yaml:"poll_max_attempts"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Auth   AuthConfig   `yaml:"auth"`
	Agents AgentsConfig `yaml:"agents"`
	Jobs   JobsConfig   `yaml:"jobs"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.ApplyDefaults()

	// Minimal validation
	if cfg.Agents.Default == "" && len(cfg.Agents.IDs) == 0 {
		return nil, errors.New("agents.default or agents.ids is required")
	}
	if cfg.Auth.Mode == "jwt" && cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required in jwt mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// ApplyDefaults fills unset fields; exported so tests can build configs
// without a file on disk.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = "static"
	}
	if cfg.Auth.Mode == "static" && cfg.Auth.StaticID == "" {
		cfg.Auth.StaticID = "anonymous"
	}
	if cfg.Jobs.MaxJobs <= 0 {
		cfg.Jobs.MaxJobs = 1000
	}
	if cfg.Jobs.DefaultTimeout <= 0 {
		cfg.Jobs.DefaultTimeout = 30 * time.Second
	}
	if cfg.Jobs.MaxTimeout <= 0 {
		cfg.Jobs.MaxTimeout = 5 * time.Minute
	}
	if cfg.Jobs.SweepInterval <= 0 {
		cfg.Jobs.SweepInterval = 30 * time.Second
	}
	if cfg.Jobs.ListenerGrace <= 0 {
		cfg.Jobs.ListenerGrace = 5 * time.Second
	}
	if cfg.Jobs.EvictFraction <= 0 || cfg.Jobs.EvictFraction > 1 {
		cfg.Jobs.EvictFraction = 0.10
	}
	if cfg.Jobs.PollInterval <= 0 {
		cfg.Jobs.PollInterval = time.Second
	}
	if cfg.Jobs.PollMaxAttempts <= 0 {
		cfg.Jobs.PollMaxAttempts = 30
	}
}
