// Package mail delivers one-time registration codes.
//
// Two Mailer implementations exist:
//   - SMTPMailer sends a plain-text message through an SMTP relay
//   - LogMailer writes the code to the structured log, for local development
//
// The server picks SMTPMailer when SMTP_ADDR is set and LogMailer otherwise.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Mailer delivers an OTP code to an email address.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
}

// LogMailer "delivers" codes by logging them. It never fails.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOTP(_ context.Context, to, code string, ttl time.Duration) error {
	m.logger.Info("otp delivery (log mailer)",
		slog.String("to", to),
		slog.String("code", code),
		slog.Duration("ttl", ttl),
	)
	return nil
}

const otpSubject = "Your verification code"

// otpBody is the plain-text message body shared by every Mailer.
func otpBody(code string, ttl time.Duration) string {
	return fmt.Sprintf(
		"Your verification code is %s.\r\n\r\nIt expires in %d minutes. If you did not request it, ignore this email.\r\n",
		code, int(ttl.Round(time.Minute).Minutes()),
	)
}
