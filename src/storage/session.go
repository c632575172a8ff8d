package storage

import (
	"fmt"
	"strings"
	"time"

	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"
)

// Connection retries for the networked backends.
const (
	connectAttempts  = 4
	connectBaseDelay = 500 * time.Millisecond
	connectTimeout   = 15 * time.Second
)

// -----------------------------------------------------------------------------

// sessionTTL converts the configured minutes; zero keeps sessions forever.
func sessionTTL(cfg models.MStorageConfig) time.Duration {
	if cfg.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(cfg.SessionTTLMinutes) * time.Minute
}

// -----------------------------------------------------------------------------

func isExpired(s *models.MChatSession, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) >= ttl
}

// -----------------------------------------------------------------------------

// NewSessionStore picks the backend named by cfg.DBType and initializes it.
func NewSessionStore(cfg models.MStorageConfig, log *logger.Logger) (interfaces.ISessionStore, error) {
	if log == nil {
		log = logger.NewLogger(nil, "SessionStore")
	}

	var store interfaces.ISessionStore
	switch strings.ToLower(cfg.DBType) {
	case "sqlite":
		store = NewSQLiteSessionStore(cfg, log)
	case "postgres":
		store = NewPostgresSessionStore(cfg, log)
	case "redis":
		store = NewRedisSessionStore(cfg, log)
	case "memory", "":
		store = NewMemorySessionStore(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.DBType)
	}

	if err := store.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s session store: %w", cfg.DBType, err)
	}
	log.Info("Session store ready (%s)", cfg.DBType)
	return store, nil
}
