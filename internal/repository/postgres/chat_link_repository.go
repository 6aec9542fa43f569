package postgres

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_service/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatLinkRepository привязки пользователей к Telegram-чатам (telegram_links)
type ChatLinkRepository struct {
	*base.Repository
	pool *pgxpool.Pool
}

func NewChatLinkRepository(pool *pgxpool.Pool) *ChatLinkRepository {
	return &ChatLinkRepository{Repository: base.NewRepository(pool), pool: pool}
}

func (r *ChatLinkRepository) ChatID(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	var chatID int64
	err := r.QueryRow(ctx, `SELECT telegram_chat_id FROM telegram_links WHERE user_id = $1`, userID).Scan(&chatID)
	if err != nil {
		if base.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get telegram link: %w", err)
	}
	return chatID, true, nil
}

func (r *ChatLinkRepository) UserByChat(ctx context.Context, chatID int64) (uuid.UUID, bool, error) {
	var userID uuid.UUID
	err := r.QueryRow(ctx, `SELECT user_id FROM telegram_links WHERE telegram_chat_id = $1`, chatID).Scan(&userID)
	if err != nil {
		if base.IsNotFound(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("get telegram link by chat: %w", err)
	}
	return userID, true, nil
}

// Link один чат на пользователя; чат, привязанный к другому пользователю, переезжает
func (r *ChatLinkRepository) Link(ctx context.Context, userID uuid.UUID, chatID int64) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		q := base.NewRepository(tx)

		if _, err := q.ExecAffected(ctx,
			`DELETE FROM telegram_links WHERE telegram_chat_id = $1 AND user_id <> $2`, chatID, userID,
		); err != nil {
			return fmt.Errorf("release telegram chat: %w", err)
		}

		_, err := q.ExecAffected(ctx, `
			INSERT INTO telegram_links (user_id, telegram_chat_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET telegram_chat_id = EXCLUDED.telegram_chat_id
		`, userID, chatID)
		if err != nil {
			return fmt.Errorf("link telegram chat: %w", err)
		}
		return nil
	})
}

// Unlink возвращает false, если чат не был привязан
func (r *ChatLinkRepository) Unlink(ctx context.Context, chatID int64) (bool, error) {
	affected, err := r.ExecAffected(ctx, `DELETE FROM telegram_links WHERE telegram_chat_id = $1`, chatID)
	if err != nil {
		return false, fmt.Errorf("unlink telegram chat: %w", err)
	}
	return affected > 0, nil
}
