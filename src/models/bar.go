package models

// MBar is one OHLCV observation for a fixed interval.
type MBar struct {
	Timestamp int64   `json:"timestamp"` // unix seconds, bar open
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// MBarSeries is a time-ordered bar sequence with strictly increasing timestamps.
type MBarSeries []MBar

// -----------------------------------------------------------------------------

func (s MBarSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// -----------------------------------------------------------------------------

func (s MBarSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// -----------------------------------------------------------------------------

func (s MBarSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// -----------------------------------------------------------------------------

func (s MBarSeries) Timestamps() []int64 {
	out := make([]int64, len(s))
	for i, b := range s {
		out[i] = b.Timestamp
	}
	return out
}

// -----------------------------------------------------------------------------

// Last returns the latest bar. The series must not be empty.
func (s MBarSeries) Last() MBar {
	return s[len(s)-1]
}

// -----------------------------------------------------------------------------

// IsOrdered reports whether timestamps are strictly increasing.
func (s MBarSeries) IsOrdered() bool {
	for i := 1; i < len(s); i++ {
		if s[i].Timestamp <= s[i-1].Timestamp {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------

// Clone returns an independent copy of the series.
func (s MBarSeries) Clone() MBarSeries {
	if s == nil {
		return nil
	}
	return append(MBarSeries(nil), s...)
}
