package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal places applied to report fields.
const (
	PricePlaces      = 5
	PipPlaces        = 1
	RatioPlaces      = 2
	ConfidencePlaces = 1
)

// -----------------------------------------------------------------------------

// Round rounds half away from zero to the given number of decimal places.
// NaN and infinities are returned unchanged.
func Round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// -----------------------------------------------------------------------------

// PipSize returns the minimum quoted increment: 0.01 for JPY pairs, 0.0001 otherwise.
func PipSize(pair string) float64 {
	if strings.Contains(strings.ToUpper(pair), "JPY") {
		return 0.01
	}
	return 0.0001
}

// -----------------------------------------------------------------------------

// Pips converts an absolute price distance into pip units.
func Pips(distance, pipSize float64) float64 {
	if pipSize <= 0 {
		return 0
	}
	return math.Abs(distance) / pipSize
}
