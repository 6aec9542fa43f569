package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ChatLinks привязки пользователей к Telegram-чатам.
// PostgreSQL-реализация: postgres.ChatLinkRepository.
type ChatLinks interface {
	ChatResolver
	Link(ctx context.Context, userID uuid.UUID, chatID int64) error
	// Unlink возвращает false, если чат не был привязан
	Unlink(ctx context.Context, chatID int64) (bool, error)
	UserByChat(ctx context.Context, chatID int64) (uuid.UUID, bool, error)
}

// MemoryChatLinks привязки в памяти процесса
type MemoryChatLinks struct {
	mu     sync.RWMutex
	byUser map[uuid.UUID]int64
}

func NewMemoryChatLinks() *MemoryChatLinks {
	return &MemoryChatLinks{byUser: make(map[uuid.UUID]int64)}
}

func (m *MemoryChatLinks) ChatID(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chatID, ok := m.byUser[userID]
	return chatID, ok, nil
}

func (m *MemoryChatLinks) UserByChat(ctx context.Context, chatID int64) (uuid.UUID, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for userID, c := range m.byUser {
		if c == chatID {
			return userID, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (m *MemoryChatLinks) Link(ctx context.Context, userID uuid.UUID, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for other, c := range m.byUser {
		if c == chatID && other != userID {
			delete(m.byUser, other)
		}
	}
	m.byUser[userID] = chatID
	return nil
}

func (m *MemoryChatLinks) Unlink(ctx context.Context, chatID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, c := range m.byUser {
		if c == chatID {
			delete(m.byUser, userID)
			return true, nil
		}
	}
	return false, nil
}
