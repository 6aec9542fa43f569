package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

// ChatResolver находит Telegram-чат пользователя
type ChatResolver interface {
	// ChatID возвращает false, если пользователь не привязал Telegram
	ChatID(ctx context.Context, userID uuid.UUID) (int64, bool, error)
}

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramSink отправляет уведомление в личный чат пользователя
type TelegramSink struct {
	sender messageSender
	chats  ChatResolver
}

func NewTelegramSink(b *bot.Bot, chats ChatResolver) *TelegramSink {
	return &TelegramSink{sender: b, chats: chats}
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Send(ctx context.Context, msg Message) error {
	chatID, ok, err := s.chats.ChatID(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("resolve telegram chat: %w", err)
	}
	if !ok {
		return nil
	}

	_, err = s.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   FormatText(msg),
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
