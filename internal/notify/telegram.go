package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tallyhq/tally/internal/models"
)

// Telegram delivers notifications through a Telegram bot. Users opt in by
// linking a chat ID; users without one are skipped.
type Telegram struct {
	bot *tgbotapi.BotAPI
}

// NewTelegram creates a Telegram notifier from a bot token.
func NewTelegram(token string) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{bot: bot}, nil
}

func (t *Telegram) SendReminder(ctx context.Context, user *models.User, sub *models.Subscription, renewal models.Date, owed int64) error {
	if user.TelegramChatID == 0 {
		return nil
	}
	text := fmt.Sprintf("🔔 *%s* renews on %s.\nYour share: %s",
		sub.Name, renewal, formatAmount(owed, sub.CurrencyCode))
	return t.send(user.TelegramChatID, text)
}

func (t *Telegram) SendEvent(ctx context.Context, user *models.User, sub *models.Subscription, event models.Event) error {
	if user.TelegramChatID == 0 {
		return nil
	}

	var text string
	switch event.Type {
	case models.EventJoin:
		text = fmt.Sprintf("👥 Someone joined *%s*. Shares have been recalculated.", sub.Name)
	case models.EventLeave:
		text = fmt.Sprintf("👋 Someone left *%s*. Shares have been recalculated.", sub.Name)
	case models.EventAmountUpdate:
		text = fmt.Sprintf("✏️ Your share of *%s* changed.", sub.Name)
	default:
		return nil
	}
	return t.send(user.TelegramChatID, text)
}

func (t *Telegram) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", minor/100, abs(minor%100), currency)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
