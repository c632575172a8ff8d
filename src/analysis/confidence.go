package analysis

import "math"

// MaxConfidence caps the confidence curve.
const MaxConfidence = 95.0

// ConfidenceFromScore maps |score| onto the piecewise confidence curve.
// The branches do not meet: just above 1.5 the curve drops to 62.5. Scores
// move in 0.5 steps, and on that grid the curve is non-decreasing.
func ConfidenceFromScore(score float64) float64 {
	abs := math.Abs(score)
	switch {
	case abs <= 1.5:
		return 50 + 10*abs
	case abs <= 2.5:
		return 70 + 15*(abs-2)
	default:
		return math.Min(MaxConfidence, 85+5*(abs-3))
	}
}
