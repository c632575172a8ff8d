package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisPrefix namespaces the session keys.
const DefaultRedisPrefix = "forexbot:session:"

// -----------------------------------------------------------------------------
// RedisSessionStore keeps one JSON value per chat; expiry is left to Redis.
// -----------------------------------------------------------------------------

type RedisSessionStore struct {
	Config models.MStorageConfig
	Client *redis.Client
	Prefix string
	TTL    time.Duration
	Logger *logger.Logger
	Now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewRedisSessionStore(cfg models.MStorageConfig, log *logger.Logger) *RedisSessionStore {
	return &RedisSessionStore{
		Config: cfg,
		Prefix: DefaultRedisPrefix,
		TTL:    sessionTTL(cfg),
		Logger: log,
		Now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (r *RedisSessionStore) key(chatID int64) string {
	return r.Prefix + strconv.FormatInt(chatID, 10)
}

// -----------------------------------------------------------------------------

func (r *RedisSessionStore) Initialize() error {
	r.Client = redis.NewClient(&redis.Options{
		Addr:     r.Config.RedisAddr,
		Password: r.Config.RedisPassword,
		DB:       r.Config.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if _, err := helpers.RetryWithBackoff(ctx, "redis ping "+r.Config.RedisAddr, connectAttempts, connectBaseDelay, func() (string, error) {
		return r.Client.Ping(ctx).Result()
	}); err != nil {
		r.Client.Close()
		return helpers.NewDatabaseError("redis connect", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisSessionStore) SaveSession(ctx context.Context, session models.MChatSession) error {
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = r.Now()
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.Client.Set(ctx, r.key(session.ChatID), data, r.TTL).Err(); err != nil {
		return fmt.Errorf("failed to save session %d: %w", session.ChatID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisSessionStore) GetSession(ctx context.Context, chatID int64) (*models.MChatSession, error) {
	data, err := r.Client.Get(ctx, r.key(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %d: %w", chatID, err)
	}

	var s models.MChatSession
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		r.Logger.Warning("Dropping unreadable session %d: %v", chatID, err)
		return nil, r.DeleteSession(ctx, chatID)
	}
	return &s, nil
}

// -----------------------------------------------------------------------------

func (r *RedisSessionStore) DeleteSession(ctx context.Context, chatID int64) error {
	if err := r.Client.Del(ctx, r.key(chatID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", chatID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *RedisSessionStore) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}
