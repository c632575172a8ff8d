// Package indicators computes technical indicators over OHLC series.
//
// Every function returns a series aligned with its input. Positions before
// the first defined value hold NaN. A series shorter than the indicator's
// minimum window yields an InsufficientHistoryError.
package indicators

import (
	"fmt"
	"math"

	"forex-signal-bot/src/helpers"

	talib "github.com/markcheno/go-talib"
)

// zeroTolerance absorbs running-sum residue in rolling means.
const zeroTolerance = 1e-12

// -----------------------------------------------------------------------------

func requireLen(name string, required, got int) error {
	if got < required {
		return helpers.NewInsufficientHistoryError(name, required, got)
	}
	return nil
}

// -----------------------------------------------------------------------------

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// -----------------------------------------------------------------------------

// Last returns the final element, or NaN for an empty series.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

// -----------------------------------------------------------------------------

// RSI is the simple rolling-mean variant: mean gain and mean loss over period
// deltas. When the mean loss is zero the value is NaN.
func RSI(closes []float64, period int) ([]float64, error) {
	if err := requireLen(fmt.Sprintf("RSI%d", period), period+1, len(closes)); err != nil {
		return nil, err
	}

	deltas := len(closes) - 1
	gains := make([]float64, deltas)
	losses := make([]float64, deltas)
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i-1] = d
		} else if d < 0 {
			losses[i-1] = -d
		}
	}

	avgGain := talib.Sma(gains, period)
	avgLoss := talib.Sma(losses, period)

	out := nanSeries(len(closes))
	for i := period - 1; i < deltas; i++ {
		if avgLoss[i] <= zeroTolerance {
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i+1] = 100 - 100/(1+rs)
	}
	return out, nil
}

// -----------------------------------------------------------------------------

// EMA uses alpha = 2/(span+1) and is seeded with the first value.
func EMA(values []float64, span int) ([]float64, error) {
	if err := requireLen(fmt.Sprintf("EMA%d", span), span, len(values)); err != nil {
		return nil, err
	}
	return emaSeeded(values, span), nil
}

func emaSeeded(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	ema := values[0]
	out[0] = ema
	for i := 1; i < len(values); i++ {
		ema += alpha * (values[i] - ema)
		out[i] = ema
	}
	return out
}

// -----------------------------------------------------------------------------

// MACD returns the line (fast EMA - slow EMA), its signal EMA and the histogram.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64, err error) {
	if err := requireLen(fmt.Sprintf("MACD(%d,%d,%d)", fast, slow, signal), slow, len(closes)); err != nil {
		return nil, nil, nil, err
	}

	fastEMA := emaSeeded(closes, fast)
	slowEMA := emaSeeded(closes, slow)

	line = make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig = emaSeeded(line, signal)

	hist = make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist, nil
}

// -----------------------------------------------------------------------------

// ATR is the rolling mean of the true range. The first bar's true range is
// its high-low span.
func ATR(highs, lows, closes []float64, period int) ([]float64, error) {
	if len(highs) != len(closes) || len(lows) != len(closes) {
		return nil, fmt.Errorf("ATR: mismatched input lengths (%d, %d, %d)", len(highs), len(lows), len(closes))
	}
	if err := requireLen(fmt.Sprintf("ATR%d", period), period, len(closes)); err != nil {
		return nil, err
	}

	tr := talib.TRange(highs, lows, closes)
	tr[0] = highs[0] - lows[0]

	sma := talib.Sma(tr, period)
	out := nanSeries(len(closes))
	copy(out[period-1:], sma[period-1:])
	return out, nil
}

// -----------------------------------------------------------------------------

// Bollinger returns rolling mean +/- k rolling standard deviations. The
// deviation uses the sample (n-1) estimator.
func Bollinger(closes []float64, window int, k float64) (upper, middle, lower []float64, err error) {
	if window < 2 {
		return nil, nil, nil, fmt.Errorf("Bollinger: window must be at least 2, got %d", window)
	}
	if err := requireLen(fmt.Sprintf("Bollinger%d", window), window, len(closes)); err != nil {
		return nil, nil, nil, err
	}

	// talib's deviation is the population one; rescale k to the sample estimator.
	nbDev := k * math.Sqrt(float64(window)/float64(window-1))
	up, mid, low := talib.BBands(closes, window, nbDev, nbDev, talib.SMA)

	upper, middle, lower = nanSeries(len(closes)), nanSeries(len(closes)), nanSeries(len(closes))
	copy(upper[window-1:], up[window-1:])
	copy(middle[window-1:], mid[window-1:])
	copy(lower[window-1:], low[window-1:])
	return upper, middle, lower, nil
}
