package analysis

import (
	"context"
	"fmt"
	"sync"

	"forex-signal-bot/src/analysis/core"
	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"
)

// SignalEngine runs Scorer -> Risk -> Confidence -> Guard for each pair.
// It holds no per-analysis state and is safe for concurrent use.
type SignalEngine struct {
	Provider interfaces.IBarProvider
	Scorer   *Scorer
	Logger   *logger.Logger
	Workers  int
}

// -----------------------------------------------------------------------------

func NewSignalEngine(provider interfaces.IBarProvider, workers int) *SignalEngine {
	if workers < 1 {
		workers = 1
	}
	return &SignalEngine{
		Provider: provider,
		Scorer:   DefaultScorer(),
		Logger:   logger.NewLogger(nil, "SignalEngine"),
		Workers:  workers,
	}
}

// -----------------------------------------------------------------------------

func normalizeEngineConfig(cfg models.MEngineConfig) models.MEngineConfig {
	def := models.DefaultEngineConfig()
	if cfg.MinBars <= 0 {
		cfg.MinBars = def.MinBars
	}
	if cfg.Risk.ATRSLMult <= 0 {
		cfg.Risk.ATRSLMult = def.Risk.ATRSLMult
	}
	if cfg.Risk.ATRTPMult <= 0 {
		cfg.Risk.ATRTPMult = def.Risk.ATRTPMult
	}
	if cfg.Thresholds.MinScore <= 0 {
		cfg.Thresholds.MinScore = def.Thresholds.MinScore
	}
	if cfg.Thresholds.MinConfidence <= 0 {
		cfg.Thresholds.MinConfidence = def.Thresholds.MinConfidence
	}
	if cfg.Thresholds.MinRR <= 0 {
		cfg.Thresholds.MinRR = def.Thresholds.MinRR
	}
	return cfg
}

// -----------------------------------------------------------------------------

// FetchSeries resolves the timeframe, fetches bars and resamples them when
// the timeframe needs it.
func (e *SignalEngine) FetchSeries(ctx context.Context, pair, timeframe string) (models.MBarSeries, error) {
	spec, err := ResolveTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	if e.Provider == nil {
		return nil, helpers.NewDataSourceError("no bar provider configured", nil)
	}

	bars, err := e.Provider.FetchBars(ctx, pair, spec.Interval, spec.Lookback)
	if err != nil {
		return nil, err
	}
	if spec.ResampleSeconds > 0 {
		bars = ResampleBars(bars, spec.ResampleSeconds)
	}
	return bars, nil
}

// -----------------------------------------------------------------------------

// AnalyzePairTimeframe fetches bars for one pair and evaluates them.
// Fewer than cfg.MinBars bars gives an InsufficientHistoryError before any
// indicator is computed.
func (e *SignalEngine) AnalyzePairTimeframe(ctx context.Context, pair, timeframe string, cfg models.MEngineConfig) (*models.MSignalReport, error) {
	cfg = normalizeEngineConfig(cfg)

	bars, err := e.FetchSeries(ctx, pair, timeframe)
	if err != nil {
		return nil, err
	}
	if len(bars) < cfg.MinBars {
		e.Logger.Debug("%s %s: %d bars, need %d", pair, timeframe, len(bars), cfg.MinBars)
		return nil, helpers.NewInsufficientHistoryError("bars", cfg.MinBars, len(bars))
	}
	return e.Evaluate(pair, timeframe, bars, cfg)
}

// -----------------------------------------------------------------------------

// Evaluate scores an already fetched series.
func (e *SignalEngine) Evaluate(pair, timeframe string, bars models.MBarSeries, cfg models.MEngineConfig) (*models.MSignalReport, error) {
	cfg = normalizeEngineConfig(cfg)
	if len(bars) < cfg.MinBars {
		return nil, helpers.NewInsufficientHistoryError("bars", cfg.MinBars, len(bars))
	}

	scorer := e.Scorer
	if scorer == nil {
		scorer = DefaultScorer()
	}
	res, err := scorer.Score(bars)
	if err != nil {
		return nil, err
	}

	entry := res.Snapshot.Price
	var risk models.MRiskLevels
	if res.Direction.IsDirectional() {
		risk = SLTPFromATR(entry, res.Direction, res.Snapshot.ATR, cfg.Risk.ATRSLMult, cfg.Risk.ATRTPMult, core.PipSize(pair))
	}

	confidence := ConfidenceFromScore(res.Score)
	outcome := NewThresholdGuard(cfg.Thresholds).Apply(res, confidence, risk)
	if outcome.Demoted {
		risk = models.MRiskLevels{}
	}

	return &models.MSignalReport{
		Pair:       pair,
		Timeframe:  timeframe,
		Direction:  outcome.Direction,
		Entry:      core.Round(entry, core.PricePlaces),
		StopLoss:   risk.StopLoss,
		TakeProfit: risk.TakeProfit,
		SLPips:     risk.SLPips,
		TPPips:     risk.TPPips,
		RR:         risk.RR,
		Confidence: core.Round(confidence, core.ConfidencePlaces),
		Reasons:    outcome.Reasons,
	}, nil
}

// -----------------------------------------------------------------------------

// Analyze evaluates every pair on up to Workers goroutines. Results keep the
// input order; a failing pair becomes an error entry and the batch goes on.
func (e *SignalEngine) Analyze(ctx context.Context, pairs []string, timeframe string, cfg models.MEngineConfig) ([]models.MAnalysisResult, error) {
	if _, err := ResolveTimeframe(timeframe); err != nil {
		return nil, err
	}

	results := make([]models.MAnalysisResult, len(pairs))
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, pair := range pairs {
		wg.Add(1)
		go func(i int, pair string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[i] = e.analyzeOne(ctx, pair, timeframe, cfg)
		}(i, pair)
	}
	wg.Wait()

	return results, nil
}

// -----------------------------------------------------------------------------

func (e *SignalEngine) analyzeOne(ctx context.Context, pair, timeframe string, cfg models.MEngineConfig) (result models.MAnalysisResult) {
	result = models.MAnalysisResult{Pair: pair, Timeframe: timeframe}

	defer func() {
		if r := recover(); r != nil {
			err := helpers.NewComputationError(fmt.Sprintf("analysis of %s panicked", pair), fmt.Errorf("%v", r))
			e.Logger.Error("%v", err)
			result.Report = nil
			result.ErrorTag = helpers.ErrorTag(err)
		}
	}()

	report, err := e.AnalyzePairTimeframe(ctx, pair, timeframe, cfg)
	if err != nil {
		if !helpers.IsInsufficientHistory(err) {
			e.Logger.Warning("%s %s failed: %v", pair, timeframe, err)
		}
		result.ErrorTag = helpers.ErrorTag(err)
		return result
	}
	result.Report = report
	return result
}
