// Package notify delivers alert digests to registered contacts. Delivery is
// best-effort: a failing channel is logged and skipped, and no failure ever
// propagates back to request handling.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Sender is the interface each delivery channel implements.
type Sender interface {
	// Send delivers a message to the given recipient.
	Send(ctx context.Context, to, subject, body string) error
	// Name returns a human-readable channel identifier (e.g. "sendgrid").
	Name() string
}

// Notifier fans a message out to every configured channel.
type Notifier struct {
	senders []Sender
	log     zerolog.Logger
}

// NewNotifier creates a Notifier delivering through the given senders.
func NewNotifier(senders []Sender, log zerolog.Logger) *Notifier {
	return &Notifier{
		senders: senders,
		log:     log.With().Str("component", "notifier").Logger(),
	}
}

// Dispatch sends the message through every channel. Individual channel
// failures are collected into a combined error; one channel failing does not
// stop delivery through the rest.
func (n *Notifier) Dispatch(ctx context.Context, to, subject, body string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var failures []string
	for _, s := range n.senders {
		if err := s.Send(ctx, to, subject, body); err != nil {
			n.log.Warn().
				Err(err).
				Str("sender", s.Name()).
				Msg("Delivery channel failed")
			failures = append(failures, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.log.Debug().Str("sender", s.Name()).Str("subject", subject).Msg("Notification sent")
	}

	if len(failures) > 0 {
		return fmt.Errorf("notify: %d channel(s) failed: %s", len(failures), strings.Join(failures, "; "))
	}
	return nil
}
