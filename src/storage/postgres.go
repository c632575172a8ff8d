package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"

	_ "github.com/lib/pq"
)

// DefaultPostgresSchema holds the bot's tables.
const DefaultPostgresSchema = "forex_bot"

// -----------------------------------------------------------------------------

type PostgresSessionStore struct {
	Config models.MStorageConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
	TTL    time.Duration
	Now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewPostgresSessionStore(cfg models.MStorageConfig, log *logger.Logger) *PostgresSessionStore {
	return &PostgresSessionStore{
		Config: cfg,
		Schema: DefaultPostgresSchema,
		Logger: log,
		TTL:    sessionTTL(cfg),
		Now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (d *PostgresSessionStore) table() string {
	return fmt.Sprintf(`"%s".chat_sessions`, d.Schema)
}

// -----------------------------------------------------------------------------

func (d *PostgresSessionStore) Initialize() error {
	db, err := sql.Open("postgres", d.Config.DBConnectionString)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if _, err := helpers.RetryWithBackoff(ctx, "postgres ping", connectAttempts, connectBaseDelay, func() (struct{}, error) {
		return struct{}{}, db.PingContext(ctx)
	}); err != nil {
		db.Close()
		return helpers.NewDatabaseError("postgres connect", err)
	}
	d.DB = db

	if _, err := db.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			chat_id BIGINT PRIMARY KEY,
			selected_pair TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
	`, d.table())
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create chat_sessions: %w", err)
	}

	d.Logger.Info("PostgresSessionStore: schema %q ready", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSessionStore) SaveSession(ctx context.Context, session models.MChatSession) error {
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = d.Now()
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (chat_id, selected_pair, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO UPDATE SET
			selected_pair = EXCLUDED.selected_pair,
			updated_at = EXCLUDED.updated_at
	`, d.table())
	if _, err := d.DB.ExecContext(ctx, query, session.ChatID, session.SelectedPair, session.UpdatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to save session %d: %w", session.ChatID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSessionStore) GetSession(ctx context.Context, chatID int64) (*models.MChatSession, error) {
	var s models.MChatSession
	query := fmt.Sprintf(`SELECT chat_id, selected_pair, updated_at FROM %s WHERE chat_id = $1`, d.table())
	err := d.DB.QueryRowContext(ctx, query, chatID).Scan(&s.ChatID, &s.SelectedPair, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", chatID, err)
	}

	if isExpired(&s, d.TTL, d.Now()) {
		return nil, d.DeleteSession(ctx, chatID)
	}
	return &s, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSessionStore) DeleteSession(ctx context.Context, chatID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE chat_id = $1`, d.table())
	if _, err := d.DB.ExecContext(ctx, query, chatID); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", chatID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresSessionStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
