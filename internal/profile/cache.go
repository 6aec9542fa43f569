package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "mentorship:profile:"

type cacheClient interface {
	MGet(ctx context.Context, keys ...string) *goredis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
}

// CachedLookup кэширует профили в Redis.
// Redis необязателен: при его ошибке запрос уходит напрямую в источник.
type CachedLookup struct {
	source Lookup
	rdb    cacheClient
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedLookup(source Lookup, rdb *goredis.Client, ttl time.Duration, logger *zap.Logger) *CachedLookup {
	return &CachedLookup{source: source, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedLookup) Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.ProfileSummary, error) {
	out := make(map[uuid.UUID]model.ProfileSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	missing := c.fromCache(ctx, ids, out)
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := c.source.Summaries(ctx, missing)
	if err != nil {
		return nil, err
	}

	for id, summary := range fetched {
		out[id] = summary
		c.store(ctx, summary)
	}

	return out, nil
}

// fromCache заполняет out найденными записями и возвращает промахи
func (c *CachedLookup) fromCache(ctx context.Context, ids []uuid.UUID, out map[uuid.UUID]model.ProfileSummary) []uuid.UUID {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKeyPrefix + id.String()
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("Profile cache unavailable", zap.Error(err))
		return ids
	}

	var missing []uuid.UUID
	for i, id := range ids {
		raw, ok := values[i].(string)
		if !ok {
			missing = append(missing, id)
			continue
		}

		var summary model.ProfileSummary
		if err := json.Unmarshal([]byte(raw), &summary); err != nil {
			missing = append(missing, id)
			continue
		}
		out[id] = summary
	}

	return missing
}

func (c *CachedLookup) store(ctx context.Context, summary model.ProfileSummary) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKeyPrefix+summary.UserID.String(), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache profile", zap.String("user_id", summary.UserID.String()), zap.Error(err))
	}
}
