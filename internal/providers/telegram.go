package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Edgar-Del/malaria-predict-mono/internal/config"
	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
	"github.com/Edgar-Del/malaria-predict-mono/internal/utils"
)

// Telegram allows ~1 message per second per bot before throttling.
var telegramLimiter = rate.NewLimiter(rate.Limit(1), 1)

// SendTelegram pushes a short alert summary to the configured chats.
func SendTelegram(ctx context.Context, alert models.Alert, text string, cfg config.Config, logger *logrus.Logger) error {
	if cfg.Telegram.BotToken == "" {
		return fmt.Errorf("missing TELEGRAM_BOT_TOKEN")
	}
	if len(cfg.Telegram.ChatIDs) == 0 {
		return fmt.Errorf("no telegram chats configured")
	}

	b, err := bot.New(cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("failed to initialize telegram bot: %w", err)
	}

	for _, chatID := range cfg.Telegram.ChatIDs {
		if err := telegramLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("telegram rate limit wait: %w", err)
		}
		chatID := chatID
		err := utils.Retry(logger, 3, time.Second, func() error {
			_, sendErr := b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    chatID,
				Text:      text,
				ParseMode: "Markdown",
			})
			if sendErr != nil {
				return fmt.Errorf("failed to send telegram message to chat %d: %w", chatID, sendErr)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
