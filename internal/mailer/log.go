package mailer

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Log writes messages to the application log instead of sending them.
type Log struct{}

func NewLog() *Log {
	return &Log{}
}

func (Log) Send(_ context.Context, msg Message) error {
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("html_bytes", len(msg.HTML)).
		Msg("Email not sent: log mail provider")
	return nil
}
