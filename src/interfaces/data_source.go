package interfaces

import (
	"context"

	"forex-signal-bot/src/models"
)

// -----------------------------------------------------------------------------
// IBarProvider supplies OHLCV bars for an instrument.
// -----------------------------------------------------------------------------

type IBarProvider interface {

	// Name returns the unique identifier of the source
	Name() string

	// -----------------------------------------------------------------------------

	// Supports reports whether the source can serve the pair.
	Supports(pair string) bool

	// -----------------------------------------------------------------------------

	// FetchBars returns a time-ordered series for the pair at the provider
	// interval ("5m", "15m", "60m") covering lookback ("14d", "90d").
	// An empty series is not an error.
	FetchBars(ctx context.Context, pair, interval, lookback string) (models.MBarSeries, error)
}
