package analysis

import (
	"math"
	"testing"

	"forex-signal-bot/src/models"
)

func TestSLTPFromATR(t *testing.T) {
	tests := []struct {
		name      string
		entry     float64
		direction models.Direction
		atr       float64
		pip       float64
		wantSL    float64
		wantTP    float64
		wantSLP   float64
		wantTPP   float64
		wantRR    float64
	}{
		{"buy", 1.1, models.DirectionBuy, 0.001, 0.0001, 1.098, 1.103, 20, 30, 1.5},
		{"sell", 1.1, models.DirectionSell, 0.001, 0.0001, 1.102, 1.097, 20, 30, 1.5},
		{"jpy buy", 150.0, models.DirectionBuy, 0.25, 0.01, 149.5, 150.75, 50, 75, 1.5},
		{"zero atr", 1.1, models.DirectionBuy, 0, 0.0001, 1.1, 1.1, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SLTPFromATR(tt.entry, tt.direction, tt.atr, 2.0, 3.0, tt.pip)
			if got.StopLoss == nil || got.TakeProfit == nil {
				t.Fatalf("SLTPFromATR() levels = nil, want values")
			}
			if *got.StopLoss != tt.wantSL || *got.TakeProfit != tt.wantTP {
				t.Errorf("SLTPFromATR() sl/tp = %v/%v, want %v/%v", *got.StopLoss, *got.TakeProfit, tt.wantSL, tt.wantTP)
			}
			if got.SLPips != tt.wantSLP || got.TPPips != tt.wantTPP {
				t.Errorf("SLTPFromATR() pips = %v/%v, want %v/%v", got.SLPips, got.TPPips, tt.wantSLP, tt.wantTPP)
			}
			if got.RR != tt.wantRR {
				t.Errorf("SLTPFromATR() rr = %v, want %v", got.RR, tt.wantRR)
			}
		})
	}
}

func TestSLTPFromATRHold(t *testing.T) {
	for _, dir := range []models.Direction{models.DirectionHold, models.DirectionNoSignal} {
		got := SLTPFromATR(1.1, dir, 0.001, 2, 3, 0.0001)
		if got.StopLoss != nil || got.TakeProfit != nil || got.RR != 0 {
			t.Errorf("SLTPFromATR(%v) = %+v, want empty levels", dir, got)
		}
	}

	got := SLTPFromATR(1.1, models.DirectionBuy, math.NaN(), 2, 3, 0.0001)
	if got.StopLoss != nil || got.RR != 0 {
		t.Errorf("SLTPFromATR(NaN atr) = %+v, want empty levels", got)
	}
}

func TestRiskRewardNeverNegative(t *testing.T) {
	for _, atr := range []float64{0, 0.00001, 0.0005, 0.01, 1} {
		for _, dir := range []models.Direction{models.DirectionBuy, models.DirectionSell, models.DirectionHold} {
			got := SLTPFromATR(1.2345, dir, atr, 1.5, 2.5, 0.0001)
			if got.RR < 0 {
				t.Errorf("SLTPFromATR(%v, %v) rr = %v, want >= 0", dir, atr, got.RR)
			}
			if (got.SLPips == 0 || dir == models.DirectionHold) && got.RR != 0 {
				t.Errorf("SLTPFromATR(%v, %v) rr = %v, want 0", dir, atr, got.RR)
			}
		}
	}
}

// -----------------------------------------------------------------------------

func TestConfidenceFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{0, 50},
		{0.5, 55},
		{1, 60},
		{1.5, 65},
		{2, 70},
		{-2, 70},
		{2.5, 77.5},
		{3, 85},
		{4, 90},
		{5, 95},
		{7, 95},
	}

	for _, tt := range tests {
		if got := ConfidenceFromScore(tt.score); got != tt.want {
			t.Errorf("ConfidenceFromScore(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestConfidenceMonotonicOnScoreGrid(t *testing.T) {
	prev := ConfidenceFromScore(0)
	for s := 0.5; s <= 10; s += 0.5 {
		got := ConfidenceFromScore(s)
		if got < prev {
			t.Errorf("ConfidenceFromScore(%v) = %v, below previous %v", s, got, prev)
		}
		if got > MaxConfidence {
			t.Errorf("ConfidenceFromScore(%v) = %v, above cap", s, got)
		}
		prev = got
	}
}

func TestConfidenceDiscontinuityKept(t *testing.T) {
	if got := ConfidenceFromScore(1.75); got != 66.25 {
		t.Errorf("ConfidenceFromScore(1.75) = %v, want 66.25", got)
	}
}
