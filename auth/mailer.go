package auth

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Mailer delivers verification codes and password reset links. Composition and delivery
// belong to the email service; this is the seam.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string) error
	SendPasswordReset(ctx context.Context, email, resetToken string) error
}

// LogMailer writes outgoing messages to the log instead of sending them (development only)
type LogMailer struct{}

var _ Mailer = LogMailer{}

func (LogMailer) SendVerificationCode(_ context.Context, email, code string) error {
	log.Info().Str("email", email).Msg("verification code issued")
	log.Debug().Str("email", email).Str("code", code).Msg("verification code")
	return nil
}

func (LogMailer) SendPasswordReset(_ context.Context, email, resetToken string) error {
	log.Info().Str("email", email).Msg("password reset issued")
	log.Debug().Str("email", email).Str("reset_token", resetToken).Msg("password reset token")
	return nil
}
