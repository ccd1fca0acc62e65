// Package config loads server settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is every operator-tunable setting. Durations use Go syntax ("15m", "168h").
type Config struct {
	Port   string `env:"PORT"    envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/socialgraph.db"`

	JWTSecret       string        `env:"JWT_SECRET,required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	BcryptCost      int           `env:"BCRYPT_COST"       envDefault:"12"`

	OTPTTL           time.Duration `env:"OTP_TTL"             envDefault:"5m"`
	OTPRatePerMinute float64       `env:"OTP_RATE_PER_MINUTE" envDefault:"5"`
	OTPRateBurst     int           `env:"OTP_RATE_BURST"      envDefault:"3"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL"  envDefault:"10m"`
	SweepRetention time.Duration `env:"SWEEP_RETENTION" envDefault:"24h"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	SMTPAddr     string `env:"SMTP_ADDR"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"no-reply@localhost"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	for name, d := range map[string]time.Duration{
		"ACCESS_TOKEN_TTL":  c.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": c.RefreshTokenTTL,
		"OTP_TTL":           c.OTPTTL,
		"REQUEST_TIMEOUT":   c.RequestTimeout,
		"SWEEP_INTERVAL":    c.SweepInterval,
		"SWEEP_RETENTION":   c.SweepRetention,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.OTPRatePerMinute <= 0 || c.OTPRateBurst <= 0 {
		errs = append(errs, errors.New("OTP_RATE_PER_MINUTE and OTP_RATE_BURST must be positive"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// SlogLevel returns LOG_LEVEL as a slog.Level. Validate has already
// rejected unknown names, so the fallback is never hit after Load.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}
