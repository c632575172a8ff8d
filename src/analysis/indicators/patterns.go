package indicators

import (
	"fmt"
	"sort"

	"forex-signal-bot/src/models"

	talib "github.com/markcheno/go-talib"
)

// -----------------------------------------------------------------------------

// DetectDoublePattern looks at the last lookback bars. When the two highest
// highs are within tol*lastClose it flags a double top; the same rule on the
// two lowest lows flags a double bottom. Both at once is reported as
// PatternAmbiguous.
func DetectDoublePattern(highs, lows []float64, lastClose float64, lookback int, tol float64) (models.PatternTag, error) {
	if len(highs) != len(lows) {
		return models.PatternNone, fmt.Errorf("DoublePattern: mismatched input lengths (%d, %d)", len(highs), len(lows))
	}
	if lookback < 2 {
		return models.PatternNone, fmt.Errorf("DoublePattern: lookback must be at least 2, got %d", lookback)
	}
	if err := requireLen(fmt.Sprintf("DoublePattern%d", lookback), lookback, len(highs)); err != nil {
		return models.PatternNone, err
	}

	start := len(highs) - lookback
	hs := append([]float64(nil), highs[start:]...)
	ls := append([]float64(nil), lows[start:]...)
	sort.Float64s(hs)
	sort.Float64s(ls)

	limit := tol * lastClose
	top := hs[len(hs)-1]-hs[len(hs)-2] <= limit
	bottom := ls[1]-ls[0] <= limit

	switch {
	case top && bottom:
		return models.PatternAmbiguous, nil
	case top:
		return models.PatternDoubleTop, nil
	case bottom:
		return models.PatternDoubleBottom, nil
	default:
		return models.PatternNone, nil
	}
}

// -----------------------------------------------------------------------------

// DetectBreakout compares the latest close with the highest high and lowest
// low of the window bars before it.
func DetectBreakout(closes, highs, lows []float64, window int) (models.BreakoutTag, error) {
	if len(highs) != len(closes) || len(lows) != len(closes) {
		return models.BreakoutNone, fmt.Errorf("Breakout: mismatched input lengths (%d, %d, %d)", len(highs), len(lows), len(closes))
	}
	if err := requireLen(fmt.Sprintf("Breakout%d", window), window+1, len(closes)); err != nil {
		return models.BreakoutNone, err
	}

	n := len(closes)
	priorMax := Last(talib.Max(highs[:n-1], window))
	priorMin := Last(talib.Min(lows[:n-1], window))
	last := closes[n-1]

	switch {
	case last > priorMax:
		return models.BreakoutBull, nil
	case last < priorMin:
		return models.BreakoutBear, nil
	default:
		return models.BreakoutNone, nil
	}
}
