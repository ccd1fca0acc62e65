package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-16-chars!!"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "data/socialgraph.db", cfg.DBPath)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 24*time.Hour, cfg.SweepRetention)
	assert.Equal(t, float64(5), cfg.OTPRatePerMinute)
	assert.Equal(t, 3, cfg.OTPRateBurst)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "no-reply@localhost", cfg.SMTPFrom)
	assert.Empty(t, cfg.SMTPAddr)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("PORT", "9090")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SMTP_ADDR", "smtp.example.com:587")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.OTPTTL)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, "smtp.example.com:587", cfg.SMTPAddr)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"bad duration", map[string]string{"JWT_SECRET": testSecret, "OTP_TTL": "soon"}},
		{"zero duration", map[string]string{"JWT_SECRET": testSecret, "SWEEP_INTERVAL": "0s"}},
		{"bad log level", map[string]string{"JWT_SECRET": testSecret, "LOG_LEVEL": "loud"}},
		{"zero burst", map[string]string{"JWT_SECRET": testSecret, "OTP_RATE_BURST": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
