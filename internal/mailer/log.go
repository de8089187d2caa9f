package mailer

import (
	"context"

	"codeberg.org/avksport/server/internal/logger"
)

// logs messages instead of sending them; used when no provider is configured
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	logger.Info("email not sent, no mail provider configured",
		"to", msg.To,
		"subject", msg.Subject,
	)

	return nil
}
