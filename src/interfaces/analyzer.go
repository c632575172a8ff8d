package interfaces

import (
	"context"

	"forex-signal-bot/src/models"
)

// -----------------------------------------------------------------------------
// ISignalAnalyzer is the engine as seen by the API, gRPC and bot layers.
// -----------------------------------------------------------------------------

type ISignalAnalyzer interface {

	// AnalyzePairTimeframe analyzes one pair.
	AnalyzePairTimeframe(ctx context.Context, pair, timeframe string, cfg models.MEngineConfig) (*models.MSignalReport, error)

	// -----------------------------------------------------------------------------

	// Analyze analyzes every pair and returns one result per pair in input order.
	// Only an unsupported timeframe fails the whole call.
	Analyze(ctx context.Context, pairs []string, timeframe string, cfg models.MEngineConfig) ([]models.MAnalysisResult, error)
}
