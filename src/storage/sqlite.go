package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteSessionStore struct {
	Config models.MStorageConfig
	DB     *sql.DB
	Logger *logger.Logger
	TTL    time.Duration
	Now    func() time.Time
}

// -----------------------------------------------------------------------------

func NewSQLiteSessionStore(cfg models.MStorageConfig, log *logger.Logger) *SQLiteSessionStore {
	return &SQLiteSessionStore{
		Config: cfg,
		Logger: log,
		TTL:    sessionTTL(cfg),
		Now:    time.Now,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteSessionStore) Initialize() error {
	db, err := sql.Open("sqlite", d.Config.DBPath)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	// one writer; the bot updates a handful of rows at a time
	db.SetMaxOpenConns(1)
	d.DB = db

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	query := `
		CREATE TABLE IF NOT EXISTS chat_sessions (
			chat_id INTEGER PRIMARY KEY,
			selected_pair TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create chat_sessions: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSessionStore) SaveSession(ctx context.Context, session models.MChatSession) error {
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = d.Now()
	}
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO chat_sessions (chat_id, selected_pair, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			selected_pair = excluded.selected_pair,
			updated_at = excluded.updated_at
	`, session.ChatID, session.SelectedPair, session.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save session %d: %w", session.ChatID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSessionStore) GetSession(ctx context.Context, chatID int64) (*models.MChatSession, error) {
	var (
		s       models.MChatSession
		updated int64
	)
	err := d.DB.QueryRowContext(ctx,
		`SELECT chat_id, selected_pair, updated_at FROM chat_sessions WHERE chat_id = ?`, chatID,
	).Scan(&s.ChatID, &s.SelectedPair, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", chatID, err)
	}
	s.UpdatedAt = time.Unix(0, updated)

	if isExpired(&s, d.TTL, d.Now()) {
		return nil, d.DeleteSession(ctx, chatID)
	}
	return &s, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSessionStore) DeleteSession(ctx context.Context, chatID int64) error {
	if _, err := d.DB.ExecContext(ctx, `DELETE FROM chat_sessions WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", chatID, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// PurgeExpired deletes every session older than TTL and returns the count.
func (d *SQLiteSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	if d.TTL <= 0 {
		return 0, nil
	}
	cutoff := d.Now().Add(-d.TTL).UnixNano()
	res, err := d.DB.ExecContext(ctx, `DELETE FROM chat_sessions WHERE updated_at <= ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		d.Logger.Info("Purged %d expired chat sessions", n)
	}
	return n, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteSessionStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
