package interfaces

import (
	"context"

	"forex-signal-bot/src/models"
)

// -----------------------------------------------------------------------------
// ISessionStore defines the contract for chat session storage.
// -----------------------------------------------------------------------------

type ISessionStore interface {

	// Initialize sets up the schema or connection.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveSession inserts or replaces the session for its chat.
	SaveSession(ctx context.Context, session models.MChatSession) error

	// -----------------------------------------------------------------------------

	// GetSession returns nil, nil when the chat has no session.
	GetSession(ctx context.Context, chatID int64) (*models.MChatSession, error)

	// -----------------------------------------------------------------------------

	// DeleteSession removes the chat's session; missing sessions are not an error.
	DeleteSession(ctx context.Context, chatID int64) error

	// -----------------------------------------------------------------------------

	// Close the underlying connection
	Close() error
}
