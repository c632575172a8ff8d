package models

import "encoding/json"

// Direction is the trade call carried by a score or a report.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionHold Direction = "HOLD"
	// DirectionNoSignal is a display-only HOLD used when the score is weak.
	DirectionNoSignal Direction = "No strong signal"
)

// IsDirectional reports whether d is BUY or SELL.
func (d Direction) IsDirectional() bool {
	return d == DirectionBuy || d == DirectionSell
}

// PatternTag is the double-top/bottom detector output.
type PatternTag string

const (
	PatternNone         PatternTag = ""
	PatternDoubleTop    PatternTag = "double_top"
	PatternDoubleBottom PatternTag = "double_bottom"
	PatternAmbiguous    PatternTag = "ambiguous_pattern"
)

// BreakoutTag is the breakout detector output.
type BreakoutTag string

const (
	BreakoutNone BreakoutTag = ""
	BreakoutBull BreakoutTag = "bull_breakout"
	BreakoutBear BreakoutTag = "bear_breakout"
)

// -----------------------------------------------------------------------------

// MIndicatorSnapshot holds the latest value of every indicator.
// RSI is NaN when the average loss over the window is zero.
type MIndicatorSnapshot struct {
	Price      float64
	RSI        float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	EMA20      float64
	EMA50      float64
	EMA200     float64
	ATR        float64
	BBUpper    float64
	BBMiddle   float64
	BBLower    float64
	Pattern    PatternTag
	Breakout   BreakoutTag
}

// MScoreResult is the scorer output.
type MScoreResult struct {
	Score     float64
	Direction Direction
	Reasons   []string
	Snapshot  MIndicatorSnapshot
}

// MRiskLevels are ATR-derived exit levels. StopLoss and TakeProfit are nil
// when no levels were computed.
type MRiskLevels struct {
	StopLoss   *float64 `json:"stop_loss"`
	TakeProfit *float64 `json:"take_profit"`
	SLPips     float64  `json:"sl_pips"`
	TPPips     float64  `json:"tp_pips"`
	RR         float64  `json:"rr"`
}

// MSignalReport is the final per-instrument analysis output.
type MSignalReport struct {
	Pair       string    `json:"pair"`
	Timeframe  string    `json:"timeframe"`
	Direction  Direction `json:"direction"`
	Entry      float64   `json:"entry"`
	StopLoss   *float64  `json:"stop_loss"`
	TakeProfit *float64  `json:"take_profit"`
	SLPips     float64   `json:"sl_pips"`
	TPPips     float64   `json:"tp_pips"`
	RR         float64   `json:"rr"`
	Confidence float64   `json:"confidence"`
	Reasons    []string  `json:"reasons"`
}

// -----------------------------------------------------------------------------

// MAnalysisResult is Ok(Report) or Err(ErrorTag) for one pair of a batch.
type MAnalysisResult struct {
	Pair      string
	Timeframe string
	Report    *MSignalReport
	ErrorTag  string
}

// OK reports whether the result carries a report.
func (r MAnalysisResult) OK() bool {
	return r.Report != nil
}

type analysisError struct {
	Pair      string `json:"pair"`
	Timeframe string `json:"timeframe"`
	Error     string `json:"error"`
}

// MarshalJSON renders either the report or an {pair, timeframe, error} entry.
func (r MAnalysisResult) MarshalJSON() ([]byte, error) {
	if r.Report != nil {
		return json.Marshal(r.Report)
	}
	return json.Marshal(analysisError{Pair: r.Pair, Timeframe: r.Timeframe, Error: r.ErrorTag})
}
