// Package notify delivers status and result messages to an external channel.
//
// Delivery is best-effort and at-most-once: the pipeline dispatches
// notifications fire-and-forget, and a sink failure is logged, never
// propagated to the request.
package notify

import (
	"context"
	"unicode/utf8"
)

// MaxMessageLength is the sink's message size limit. Longer messages are
// truncated to a prefix with an ellipsis marker.
const MaxMessageLength = 4096

// Notifier sends a message to a channel.
type Notifier interface {
	Send(ctx context.Context, channel, message string) error
}

// Truncate enforces the sink's message length limit, keeping the prefix and
// appending an ellipsis marker. The cut backs up to a rune boundary so a
// multi-byte character is never split into invalid UTF-8.
func Truncate(message string) string {
	if len(message) <= MaxMessageLength {
		return message
	}
	cut := MaxMessageLength - 10
	for cut > 0 && !utf8.RuneStart(message[cut]) {
		cut--
	}
	return message[:cut] + "..."
}

// Nop discards all messages. Used when no notification channel is
// configured.
type Nop struct{}

// Send discards the message.
func (Nop) Send(context.Context, string, string) error {
	return nil
}
