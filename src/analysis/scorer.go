package analysis

import (
	"fmt"

	"forex-signal-bot/src/analysis/indicators"
	"forex-signal-bot/src/models"
)

// Scorer computes an indicator snapshot and turns it into a signed score.
type Scorer struct {
	RSIPeriod       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	EMAFast         int
	EMAMid          int
	EMASlow         int
	ATRPeriod       int
	BBWindow        int
	BBK             float64
	PatternLookback int
	PatternTol      float64
	BreakoutWindow  int
}

// DefaultScorer returns the stock indicator parameters.
func DefaultScorer() *Scorer {
	return &Scorer{
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		EMAFast:         20,
		EMAMid:          50,
		EMASlow:         200,
		ATRPeriod:       14,
		BBWindow:        20,
		BBK:             2,
		PatternLookback: 30,
		PatternTol:      0.0005,
		BreakoutWindow:  20,
	}
}

// -----------------------------------------------------------------------------

// Snapshot computes the latest value of every indicator over bars.
func (s *Scorer) Snapshot(bars models.MBarSeries) (models.MIndicatorSnapshot, error) {
	var snap models.MIndicatorSnapshot
	if len(bars) == 0 {
		return snap, fmt.Errorf("snapshot: empty bar series")
	}

	closes, highs, lows := bars.Closes(), bars.Highs(), bars.Lows()
	snap.Price = closes[len(closes)-1]

	rsi, err := indicators.RSI(closes, s.RSIPeriod)
	if err != nil {
		return snap, err
	}
	snap.RSI = indicators.Last(rsi)

	line, sig, hist, err := indicators.MACD(closes, s.MACDFast, s.MACDSlow, s.MACDSignal)
	if err != nil {
		return snap, err
	}
	snap.MACD, snap.MACDSignal, snap.MACDHist = indicators.Last(line), indicators.Last(sig), indicators.Last(hist)

	emas := make([]float64, 3)
	for i, span := range []int{s.EMAFast, s.EMAMid, s.EMASlow} {
		series, err := indicators.EMA(closes, span)
		if err != nil {
			return snap, err
		}
		emas[i] = indicators.Last(series)
	}
	snap.EMA20, snap.EMA50, snap.EMA200 = emas[0], emas[1], emas[2]

	atr, err := indicators.ATR(highs, lows, closes, s.ATRPeriod)
	if err != nil {
		return snap, err
	}
	snap.ATR = indicators.Last(atr)

	upper, middle, lower, err := indicators.Bollinger(closes, s.BBWindow, s.BBK)
	if err != nil {
		return snap, err
	}
	snap.BBUpper, snap.BBMiddle, snap.BBLower = indicators.Last(upper), indicators.Last(middle), indicators.Last(lower)

	if snap.Pattern, err = indicators.DetectDoublePattern(highs, lows, snap.Price, s.PatternLookback, s.PatternTol); err != nil {
		return snap, err
	}
	if snap.Breakout, err = indicators.DetectBreakout(closes, highs, lows, s.BreakoutWindow); err != nil {
		return snap, err
	}

	return snap, nil
}

// -----------------------------------------------------------------------------

// Score computes the snapshot and scores it.
func (s *Scorer) Score(bars models.MBarSeries) (models.MScoreResult, error) {
	snap, err := s.Snapshot(bars)
	if err != nil {
		return models.MScoreResult{}, err
	}
	return s.ScoreSnapshot(snap), nil
}

// -----------------------------------------------------------------------------

// ScoreSnapshot sums the per-indicator contributions. Every rule is evaluated
// and reasons keep evaluation order.
func (s *Scorer) ScoreSnapshot(snap models.MIndicatorSnapshot) models.MScoreResult {
	score := 0.0
	var reasons []string
	add := func(delta float64, reason string) {
		score += delta
		reasons = append(reasons, reason)
	}

	switch {
	case snap.RSI < 30:
		add(1, fmt.Sprintf("RSI oversold (%.1f)", snap.RSI))
	case snap.RSI > 70:
		add(-1, fmt.Sprintf("RSI overbought (%.1f)", snap.RSI))
	}

	if snap.MACD > snap.MACDSignal {
		add(1, "MACD bullish cross state")
	} else {
		add(-1, "MACD bearish cross state")
	}

	switch {
	case snap.Price > snap.EMA20 && snap.EMA20 > snap.EMA50 && snap.EMA50 > snap.EMA200:
		add(1, "Uptrend alignment (price > EMA20 > EMA50 > EMA200)")
	case snap.Price < snap.EMA20 && snap.EMA20 < snap.EMA50 && snap.EMA50 < snap.EMA200:
		add(-1, "Downtrend alignment (price < EMA20 < EMA50 < EMA200)")
	}

	// a zero-width band triggers both sides
	if snap.Price <= snap.BBLower {
		add(0.5, "Price near/below lower Bollinger band")
	}
	if snap.Price >= snap.BBUpper {
		add(-0.5, "Price near/above upper Bollinger band")
	}

	switch snap.Pattern {
	case models.PatternDoubleBottom:
		add(1, "Double bottom reversal pattern")
	case models.PatternDoubleTop:
		add(-1, "Double top reversal pattern")
	case models.PatternAmbiguous:
		add(0, "Double top and double bottom both present, pattern ignored")
	}

	switch snap.Breakout {
	case models.BreakoutBull:
		add(1, fmt.Sprintf("Bullish breakout above %d-bar high", s.BreakoutWindow))
	case models.BreakoutBear:
		add(-1, fmt.Sprintf("Bearish breakout below %d-bar low", s.BreakoutWindow))
	}

	return models.MScoreResult{
		Score:     score,
		Direction: DirectionFromScore(score),
		Reasons:   reasons,
		Snapshot:  snap,
	}
}

// -----------------------------------------------------------------------------

// DirectionFromScore applies the +/-2 direction thresholds.
func DirectionFromScore(score float64) models.Direction {
	switch {
	case score >= 2:
		return models.DirectionBuy
	case score <= -2:
		return models.DirectionSell
	default:
		return models.DirectionHold
	}
}
