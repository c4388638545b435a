package mailer

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleMailer logs messages instead of delivering them. Used in
// development and whenever no SendGrid key is configured.
type ConsoleMailer struct {
	logger *zap.Logger
}

var _ Mailer = (*ConsoleMailer)(nil)

// NewConsoleMailer builds a console mailer.
func NewConsoleMailer(logger *zap.Logger) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{logger: logger}
}

// Send logs the rendered message.
func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info("email (console)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("priority", msg.Priority),
		zap.String("body", RenderText(msg)),
	)
	return nil
}
