package analysis

import (
	"math"

	"forex-signal-bot/src/analysis/core"
	"forex-signal-bot/src/models"
)

// SLTPFromATR places stop-loss and take-profit at ATR multiples from entry.
// HOLD, or a non-finite ATR, yields empty levels with rr 0.
// Prices are rounded to 5 places, pips to 1 and rr to 2.
func SLTPFromATR(entry float64, direction models.Direction, atr, slMult, tpMult, pipSize float64) models.MRiskLevels {
	if !direction.IsDirectional() || math.IsNaN(atr) || math.IsInf(atr, 0) {
		return models.MRiskLevels{}
	}

	var sl, tp float64
	if direction == models.DirectionBuy {
		sl = entry - atr*slMult
		tp = entry + atr*tpMult
	} else {
		sl = entry + atr*slMult
		tp = entry - atr*tpMult
	}

	slPips := core.Pips(entry-sl, pipSize)
	tpPips := core.Pips(tp-entry, pipSize)
	rr := 0.0
	if slPips > 0 {
		rr = tpPips / slPips
	}

	slRounded := core.Round(sl, core.PricePlaces)
	tpRounded := core.Round(tp, core.PricePlaces)
	return models.MRiskLevels{
		StopLoss:   &slRounded,
		TakeProfit: &tpRounded,
		SLPips:     core.Round(slPips, core.PipPlaces),
		TPPips:     core.Round(tpPips, core.PipPlaces),
		RR:         core.Round(rr, core.RatioPlaces),
	}
}
