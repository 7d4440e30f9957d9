package repo

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionTTL = 11 * time.Hour

type RedisSessionStorage struct {
	client *redis.Client
	log    *zap.SugaredLogger
}

func NewSessionRedisStorage(client *redis.Client, log *zap.SugaredLogger) *RedisSessionStorage {
	return &RedisSessionStorage{
		client: client,
		log:    log,
	}
}

func (r *RedisSessionStorage) GetPlayerIDBySession(ctx context.Context, sessionID string) (string, bool) {
	v, err := r.client.Get(ctx, sessionID).Result()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			r.log.Error(err)
		}
		return "", false
	}
	return v, true
}

func (r *RedisSessionStorage) StoreSession(ctx context.Context, sessionID string, playerID string) {
	r.client.Set(ctx, sessionID, playerID, sessionTTL)
}

func (r *RedisSessionStorage) DeleteSession(ctx context.Context, sessionID string) bool {
	r.client.Del(ctx, sessionID)
	return true
}
