package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jmetso/tasklist/internal/model"
)

// TelegramNotifier delivers notifications as Telegram messages. Chat
// IDs are mapped per username in the configuration; users without a
// mapping are skipped silently so a partial rollout does not spam the
// log every sweep.
type TelegramNotifier struct {
	api   *tgbotapi.BotAPI
	chats map[string]int64
}

func NewTelegramNotifier(token string, chats map[string]int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram api: %w", err)
	}
	return &TelegramNotifier{api: api, chats: chats}, nil
}

func (n *TelegramNotifier) Send(_ context.Context, _ string, body string, user model.UserAccount) error {
	chatID, ok := n.chats[user.Username]
	if !ok {
		return nil
	}
	// The body already leads with the subject line.
	if _, err := n.api.Send(tgbotapi.NewMessage(chatID, body)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
