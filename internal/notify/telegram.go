package notify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"
)

// Telegram delivers messages through the Telegram Bot API.
type Telegram struct {
	bot    *telego.Bot
	logger *zap.Logger
}

// NewTelegram creates a Telegram notifier from a bot token.
func NewTelegram(botToken string, logger *zap.Logger) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bot, err := telego.NewBot(botToken, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	return &Telegram{bot: bot, logger: logger}, nil
}

// Send delivers a message to a chat. The channel is a numeric chat ID or a
// @channelusername. Messages beyond the Telegram limit are truncated.
func (t *Telegram) Send(ctx context.Context, channel, message string) error {
	if channel == "" {
		return fmt.Errorf("channel required")
	}

	var chatID telego.ChatID
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		chatID = tu.ID(id)
	} else {
		chatID = tu.Username(channel)
	}

	message = Truncate(message)

	if _, err := t.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: chatID,
		Text:   message,
	}); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	t.logger.Debug("telegram message sent",
		zap.String("channel", channel),
		zap.Int("length", len(message)),
	)
	return nil
}

var _ Notifier = (*Telegram)(nil)
