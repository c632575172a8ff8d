package analysis

import (
	"fmt"
	"math"
	"strings"

	"forex-signal-bot/src/models"
)

// GuardReasonPrefix starts the reason appended when a signal is demoted.
const GuardReasonPrefix = "THRESHOLD GUARD: "

// ThresholdGuard vetoes BUY/SELL signals that miss any minimum.
type ThresholdGuard struct {
	MinScore      float64
	MinConfidence float64
	MinRR         float64
}

// GuardOutcome is the final direction and reason list after the guard.
type GuardOutcome struct {
	Direction models.Direction
	Reasons   []string
	Demoted   bool
}

// NewThresholdGuard builds a guard from configured thresholds.
func NewThresholdGuard(t models.MThresholdConfig) ThresholdGuard {
	return ThresholdGuard{MinScore: t.MinScore, MinConfidence: t.MinConfidence, MinRR: t.MinRR}
}

// -----------------------------------------------------------------------------

// Apply checks a scored signal. It never mutates res; the returned reasons
// are a fresh slice, so applying it twice gives the same outcome.
func (g ThresholdGuard) Apply(res models.MScoreResult, confidence float64, risk models.MRiskLevels) GuardOutcome {
	out := GuardOutcome{
		Direction: res.Direction,
		Reasons:   append([]string(nil), res.Reasons...),
	}
	abs := math.Abs(res.Score)

	if res.Direction.IsDirectional() {
		var failed []string
		if abs < g.MinScore {
			failed = append(failed, fmt.Sprintf("Score %.1f below threshold %.1f", abs, g.MinScore))
		}
		if confidence < g.MinConfidence {
			failed = append(failed, fmt.Sprintf("Confidence %.1f%% below threshold %.1f%%", confidence, g.MinConfidence))
		}
		if risk.RR < g.MinRR {
			failed = append(failed, fmt.Sprintf("Risk-reward %.2f below threshold %v", risk.RR, g.MinRR))
		}
		if len(failed) > 0 {
			out.Direction = models.DirectionHold
			out.Demoted = true
			out.Reasons = append(out.Reasons, GuardReasonPrefix+strings.Join(failed, "; "))
		}
	}

	if out.Direction == models.DirectionHold && abs < 1.0 {
		out.Direction = models.DirectionNoSignal
	}
	return out
}
