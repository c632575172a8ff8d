package indicators

import (
	"math"
	"testing"

	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/models"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// -----------------------------------------------------------------------------

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		period int
		want   float64
		isNaN  bool
	}{
		{"mixed moves", []float64{1, 2, 3, 2}, 3, 100 - 100/3.0, false},
		{"only gains", []float64{1, 2, 3, 4, 5}, 3, 0, true},
		{"only losses", []float64{5, 4, 3, 2, 1}, 3, 0, false},
		{"flat", constant(20, 1.1), 14, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RSI(tt.closes, tt.period)
			if err != nil {
				t.Fatalf("RSI() error = %v", err)
			}
			got := Last(out)
			if tt.isNaN {
				if !math.IsNaN(got) {
					t.Errorf("RSI() = %v, want NaN", got)
				}
				return
			}
			if !almostEqual(got, tt.want) {
				t.Errorf("RSI() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRSIAlignment(t *testing.T) {
	out, err := RSI([]float64{1, 2, 1, 2, 1, 2}, 2)
	if err != nil {
		t.Fatalf("RSI() error = %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("len(RSI()) = %d, want 6", len(out))
	}
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Errorf("RSI() warm-up = %v, %v, want NaN", out[0], out[1])
	}
	if !almostEqual(out[2], 50) {
		t.Errorf("RSI()[2] = %v, want 50", out[2])
	}
}

// -----------------------------------------------------------------------------

func TestEMA(t *testing.T) {
	flat, err := EMA(constant(30, 1.25), 20)
	if err != nil {
		t.Fatalf("EMA() error = %v", err)
	}
	for i, v := range flat {
		if v != 1.25 {
			t.Fatalf("EMA()[%d] = %v, want 1.25", i, v)
		}
	}

	// span 3 => alpha 0.5
	got, _ := EMA([]float64{2, 4, 8}, 3)
	want := []float64{2, 3, 5.5}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("EMA()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMACDFlatSeries(t *testing.T) {
	line, sig, hist, err := MACD(constant(40, 1.1), 12, 26, 9)
	if err != nil {
		t.Fatalf("MACD() error = %v", err)
	}
	if Last(line) != 0 || Last(sig) != 0 || Last(hist) != 0 {
		t.Errorf("MACD() = %v/%v/%v, want zeros", Last(line), Last(sig), Last(hist))
	}
}

func TestMACDRisingSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 1 + float64(i)*0.001
	}
	line, sig, _, err := MACD(closes, 12, 26, 9)
	if err != nil {
		t.Fatalf("MACD() error = %v", err)
	}
	if Last(line) <= Last(sig) {
		t.Errorf("MACD() line %v <= signal %v, want line above signal", Last(line), Last(sig))
	}
}

// -----------------------------------------------------------------------------

func TestATR(t *testing.T) {
	n := 20
	highs := constant(n, 1.1)
	lows := constant(n, 1.0)
	closes := constant(n, 1.05)

	out, err := ATR(highs, lows, closes, 14)
	if err != nil {
		t.Fatalf("ATR() error = %v", err)
	}
	if !math.IsNaN(out[12]) {
		t.Errorf("ATR()[12] = %v, want NaN", out[12])
	}
	if !almostEqual(Last(out), 0.1) {
		t.Errorf("ATR() = %v, want 0.1", Last(out))
	}
}

func TestATRUsesPreviousClose(t *testing.T) {
	highs := []float64{1.0, 1.2}
	lows := []float64{0.9, 1.1}
	closes := []float64{0.95, 1.15}

	out, err := ATR(highs, lows, closes, 2)
	if err != nil {
		t.Fatalf("ATR() error = %v", err)
	}
	// TR0 = 0.1, TR1 = |1.2 - 0.95| = 0.25
	if !almostEqual(Last(out), 0.175) {
		t.Errorf("ATR() = %v, want 0.175", Last(out))
	}
}

// -----------------------------------------------------------------------------

func TestBollinger(t *testing.T) {
	upper, middle, lower, err := Bollinger([]float64{1, 2, 3}, 3, 1)
	if err != nil {
		t.Fatalf("Bollinger() error = %v", err)
	}
	if !almostEqual(Last(middle), 2) {
		t.Errorf("Bollinger() middle = %v, want 2", Last(middle))
	}
	if !almostEqual(Last(upper), 3) || !almostEqual(Last(lower), 1) {
		t.Errorf("Bollinger() bands = %v/%v, want 3/1", Last(upper), Last(lower))
	}

	upper, _, lower, _ = Bollinger(constant(25, 1.3), 20, 2)
	if !almostEqual(Last(upper), 1.3) || !almostEqual(Last(lower), 1.3) {
		t.Errorf("Bollinger() flat bands = %v/%v, want 1.3", Last(upper), Last(lower))
	}
}

// -----------------------------------------------------------------------------

func TestInsufficientHistory(t *testing.T) {
	short := constant(10, 1.0)

	checks := map[string]error{}
	_, checks["rsi"] = RSI(short, 14)
	_, checks["ema"] = EMA(short, 200)
	_, _, _, checks["macd"] = MACD(short, 12, 26, 9)
	_, checks["atr"] = ATR(short, short, short, 14)
	_, _, _, checks["bollinger"] = Bollinger(short, 20, 2)
	_, checks["double"] = DetectDoublePattern(short, short, 1.0, 30, 0.0005)
	_, checks["breakout"] = DetectBreakout(short, short, short, 20)

	for name, err := range checks {
		if !helpers.IsInsufficientHistory(err) {
			t.Errorf("%s error = %v, want InsufficientHistoryError", name, err)
		}
	}
}

// -----------------------------------------------------------------------------

func TestDetectDoublePattern(t *testing.T) {
	spread := func(base, step float64) []float64 {
		out := make([]float64, 30)
		for i := range out {
			out[i] = base + float64(i)*step
		}
		return out
	}

	doubleTopHighs := spread(1.0, 0.001)
	doubleTopHighs[10] = doubleTopHighs[29]

	doubleBottomLows := spread(0.9, 0.001)
	doubleBottomLows[20] = doubleBottomLows[0]

	tests := []struct {
		name  string
		highs []float64
		lows  []float64
		want  models.PatternTag
	}{
		{"none", spread(1.0, 0.001), spread(0.9, 0.001), models.PatternNone},
		{"double top", doubleTopHighs, spread(0.9, 0.001), models.PatternDoubleTop},
		{"double bottom", spread(1.0, 0.001), doubleBottomLows, models.PatternDoubleBottom},
		{"both", doubleTopHighs, doubleBottomLows, models.PatternAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectDoublePattern(tt.highs, tt.lows, 1.0, 30, 0.0005)
			if err != nil {
				t.Fatalf("DetectDoublePattern() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectDoublePattern() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetectBreakout(t *testing.T) {
	n := 25
	highs := constant(n, 1.10)
	lows := constant(n, 1.00)

	tests := []struct {
		name string
		last float64
		want models.BreakoutTag
	}{
		{"inside range", 1.05, models.BreakoutNone},
		{"touching high", 1.10, models.BreakoutNone},
		{"above high", 1.11, models.BreakoutBull},
		{"below low", 0.99, models.BreakoutBear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closes := constant(n, 1.05)
			closes[n-1] = tt.last
			got, err := DetectBreakout(closes, highs, lows, 20)
			if err != nil {
				t.Fatalf("DetectBreakout() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectBreakout() = %q, want %q", got, tt.want)
			}
		})
	}
}
