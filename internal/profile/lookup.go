// Package profile read-only доступ к публичным полям профилей пользователей.
// Сервис наставничества хранит только идентификаторы; имена подтягиваются при отображении.
package profile

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lookup источник отображаемых данных профиля.
// Отсутствующие пользователи просто не попадают в результат.
type Lookup interface {
	Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.ProfileSummary, error)
}

// PgLookup читает таблицу user_profiles, которой владеет сервис профилей
type PgLookup struct {
	pool *pgxpool.Pool
}

func NewPgLookup(pool *pgxpool.Pool) *PgLookup {
	return &PgLookup{pool: pool}
}

func (l *PgLookup) Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.ProfileSummary, error) {
	out := make(map[uuid.UUID]model.ProfileSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := l.pool.Query(ctx,
		`SELECT user_id, display_name, headline FROM user_profiles WHERE user_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get profile summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s model.ProfileSummary
		if err := rows.Scan(&s.UserID, &s.DisplayName, &s.Headline); err != nil {
			return nil, fmt.Errorf("scan profile summary: %w", err)
		}
		out[s.UserID] = s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile summaries: %w", err)
	}

	return out, nil
}

// Static профили из памяти (режим STORAGE=memory и тесты)
type Static map[uuid.UUID]model.ProfileSummary

func (s Static) Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.ProfileSummary, error) {
	out := make(map[uuid.UUID]model.ProfileSummary, len(ids))
	for _, id := range ids {
		if summary, ok := s[id]; ok {
			out[id] = summary
		}
	}
	return out, nil
}
