package settings

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eugenenazirov/tinyconf/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
)

// Settings configures the admin server.
type Settings struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	ReadOnly             bool
	RateLimitRPS         float64
	RateLimitBurst       int
	LogLevel             string
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	ReadOnly       *bool
	LogLevel       *string
}

// Load derives settings from the "server.*" and "logging.*" properties of
// store and applies overrides on top.
func Load(store *storage.Store, overrides *CLIOverrides) (Settings, error) {
	cfg := Defaults()

	if store != nil {
		if err := applyStore(&cfg, store); err != nil {
			return Settings{}, err
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validate(cfg); err != nil {
		return Settings{}, err
	}

	return cfg, nil
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
	}
}

func applyStore(cfg *Settings, store *storage.Store) error {
	server := store.Children("server")

	if port := strings.TrimSpace(server["port"]); port != "" {
		cfg.Port = port
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"shutdown_grace_period", &cfg.ShutdownGracePeriod},
		{"read_header_timeout", &cfg.ReadHeaderTimeout},
		{"write_timeout", &cfg.WriteTimeout},
		{"idle_timeout", &cfg.IdleTimeout},
	}
	for _, d := range durations {
		raw, ok := server[d.key]
		if !ok {
			continue
		}
		value, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("server.%s: %w", d.key, err)
		}
		*d.target = value
	}

	flags := []struct {
		key    string
		target *bool
	}{
		{"request_logging", &cfg.EnableRequestLogging},
		{"read_only", &cfg.ReadOnly},
	}
	for _, f := range flags {
		raw, ok := server[f.key]
		if !ok {
			continue
		}
		value, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("server.%s: %w", f.key, err)
		}
		*f.target = value
	}

	if raw, ok := server["rate_limit.rps"]; ok {
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("server.rate_limit.rps: %w", err)
		}
		cfg.RateLimitRPS = value
	}

	if raw, ok := server["rate_limit.burst"]; ok {
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("server.rate_limit.burst: %w", err)
		}
		cfg.RateLimitBurst = value
	}

	if level, ok := store.Get("logging.level"); ok && strings.TrimSpace(level) != "" {
		cfg.LogLevel = strings.TrimSpace(level)
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Settings, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.ReadOnly != nil {
		cfg.ReadOnly = *overrides.ReadOnly
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
}

func validate(cfg Settings) error {
	if cfg.Port == "" {
		return fmt.Errorf("server.port cannot be empty")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("server.rate_limit.rps must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("server.rate_limit.burst must be >= 0")
	}
	return nil
}
