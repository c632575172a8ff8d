package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/models"
)

func TestAnalyzePairTimeframeRamp(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.MBarSeries{"EURUSD": rampSeries(220, 900)}}
	engine := NewSignalEngine(provider, 2)

	report, err := engine.AnalyzePairTimeframe(context.Background(), "EURUSD", "15m", models.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("AnalyzePairTimeframe() error = %v", err)
	}
	if report.Direction != models.DirectionBuy {
		t.Fatalf("Direction = %v, want BUY (reasons %v)", report.Direction, report.Reasons)
	}
	if report.Confidence != 85 {
		t.Errorf("Confidence = %v, want 85", report.Confidence)
	}
	if report.RR != 1.5 {
		t.Errorf("RR = %v, want 1.5", report.RR)
	}
	if report.StopLoss == nil || report.TakeProfit == nil {
		t.Fatalf("levels = nil, want stop-loss and take-profit")
	}
	if !(*report.StopLoss < report.Entry && report.Entry < *report.TakeProfit) {
		t.Errorf("levels = %v < %v < %v, want sl < entry < tp", *report.StopLoss, report.Entry, *report.TakeProfit)
	}
	for _, r := range report.Reasons {
		if strings.HasPrefix(r, GuardReasonPrefix) {
			t.Errorf("Reasons contain guard override %q, want none", r)
		}
	}

	if len(provider.calls) != 1 || provider.calls[0] != (fetchCall{"EURUSD", "15m", "14d"}) {
		t.Errorf("provider calls = %v, want one 15m/14d fetch", provider.calls)
	}
}

func TestAnalyzePairTimeframeFlat(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.MBarSeries{"EURUSD": flatSeries(220)}}
	report, err := NewSignalEngine(provider, 1).AnalyzePairTimeframe(context.Background(), "EURUSD", "5m", models.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("AnalyzePairTimeframe() error = %v", err)
	}
	if report.Direction.IsDirectional() {
		t.Errorf("Direction = %v, want HOLD or no signal", report.Direction)
	}
	if report.StopLoss != nil || report.RR != 0 {
		t.Errorf("levels = %v/%v, want none", report.StopLoss, report.RR)
	}
}

func TestAnalyzePairTimeframeNotEnoughData(t *testing.T) {
	tests := []struct {
		name string
		bars models.MBarSeries
	}{
		{"empty", nil},
		{"below floor", rampSeries(59, 300)},
		{"below longest ema", rampSeries(120, 300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{series: map[string]models.MBarSeries{"EURUSD": tt.bars}}
			_, err := NewSignalEngine(provider, 1).AnalyzePairTimeframe(context.Background(), "EURUSD", "15m", models.DefaultEngineConfig())
			if got := helpers.ErrorTag(err); got != helpers.NotEnoughDataTag {
				t.Errorf("ErrorTag() = %q, want %q", got, helpers.NotEnoughDataTag)
			}
		})
	}
}

func TestAnalyzePairTimeframeFourHour(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.MBarSeries{"USDJPY": rampSeries(880, 3600)}}
	report, err := NewSignalEngine(provider, 1).AnalyzePairTimeframe(context.Background(), "USDJPY", "4H", models.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("AnalyzePairTimeframe() error = %v", err)
	}
	if report.Timeframe != "4H" {
		t.Errorf("Timeframe = %q, want %q", report.Timeframe, "4H")
	}
	if provider.calls[0].interval != "60m" || provider.calls[0].lookback != "90d" {
		t.Errorf("provider call = %+v, want 60m over 90d", provider.calls[0])
	}
}

// -----------------------------------------------------------------------------

func TestAnalyzeUnsupportedTimeframe(t *testing.T) {
	provider := &fakeProvider{}
	_, err := NewSignalEngine(provider, 2).Analyze(context.Background(), []string{"EURUSD"}, "1d", models.DefaultEngineConfig())
	if !helpers.IsUnsupportedTimeframe(err) {
		t.Fatalf("Analyze() error = %v, want unsupported timeframe", err)
	}
	if provider.callCount() != 0 {
		t.Errorf("provider calls = %d, want 0", provider.callCount())
	}
}

func TestAnalyzeMixedBatch(t *testing.T) {
	provider := &fakeProvider{
		series: map[string]models.MBarSeries{
			"EURUSD": rampSeries(220, 300),
			"GBPUSD": flatSeries(220),
		},
		errs:   map[string]error{"AUDUSD": errors.New("upstream 502")},
		panics: map[string]bool{"NZDUSD": true},
	}
	pairs := []string{"EURUSD", "XXXYYY", "AUDUSD", "NZDUSD", "GBPUSD"}

	results, err := NewSignalEngine(provider, 3).Analyze(context.Background(), pairs, "15m", models.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(results) != len(pairs) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(pairs))
	}
	for i, r := range results {
		if r.Pair != pairs[i] || r.Timeframe != "15m" {
			t.Errorf("results[%d] = %s/%s, want %s/15m", i, r.Pair, r.Timeframe, pairs[i])
		}
	}

	if !results[0].OK() || results[0].Report.Direction != models.DirectionBuy {
		t.Errorf("results[0] = %+v, want BUY report", results[0])
	}
	if results[1].OK() || results[1].ErrorTag != helpers.NotEnoughDataTag {
		t.Errorf("results[1].ErrorTag = %q, want %q", results[1].ErrorTag, helpers.NotEnoughDataTag)
	}
	if results[2].ErrorTag != "upstream 502" {
		t.Errorf("results[2].ErrorTag = %q, want %q", results[2].ErrorTag, "upstream 502")
	}
	if !strings.Contains(results[3].ErrorTag, "panicked") {
		t.Errorf("results[3].ErrorTag = %q, want recovered panic", results[3].ErrorTag)
	}
	if !results[4].OK() {
		t.Errorf("results[4] = %+v, want report", results[4])
	}
}

func TestAnalysisResultJSON(t *testing.T) {
	provider := &fakeProvider{series: map[string]models.MBarSeries{"GBPUSD": flatSeries(220)}}
	results, err := NewSignalEngine(provider, 1).Analyze(context.Background(), []string{"GBPUSD", "EURJPY"}, "5m", models.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	raw, err := json.Marshal(results)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var decoded []map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}

	report := decoded[0]
	for _, key := range []string{"pair", "timeframe", "direction", "entry", "stop_loss", "take_profit", "sl_pips", "tp_pips", "rr", "confidence", "reasons"} {
		if _, ok := report[key]; !ok {
			t.Errorf("report JSON missing %q: %s", key, raw)
		}
	}
	if report["stop_loss"] != nil {
		t.Errorf("stop_loss = %v, want null", report["stop_loss"])
	}

	want := map[string]interface{}{"pair": "EURJPY", "timeframe": "5m", "error": helpers.NotEnoughDataTag}
	if len(decoded[1]) != len(want) {
		t.Errorf("error entry = %v, want %v", decoded[1], want)
	}
	for k, v := range want {
		if decoded[1][k] != v {
			t.Errorf("error entry[%q] = %v, want %v", k, decoded[1][k], v)
		}
	}
}

// -----------------------------------------------------------------------------

func TestEvaluateRespectsConfiguredMultipliers(t *testing.T) {
	cfg := models.DefaultEngineConfig()
	cfg.Risk.ATRTPMult = 2.0 // rr 1.0 trips the guard

	report, err := NewSignalEngine(nil, 1).Evaluate("EURUSD", "15m", rampSeries(220, 300), cfg)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if report.Direction != models.DirectionHold {
		t.Errorf("Direction = %v, want HOLD", report.Direction)
	}
	if report.StopLoss != nil || report.RR != 0 {
		t.Errorf("levels = %v/%v, want cleared after demotion", report.StopLoss, report.RR)
	}
	last := report.Reasons[len(report.Reasons)-1]
	if last != "THRESHOLD GUARD: Risk-reward 1.00 below threshold 1.5" {
		t.Errorf("guard reason = %q", last)
	}
}

func TestNormalizeEngineConfigDefaults(t *testing.T) {
	def := models.DefaultEngineConfig()
	if got := normalizeEngineConfig(models.MEngineConfig{}); got != def {
		t.Errorf("normalizeEngineConfig(zero) = %+v, want %+v", got, def)
	}

	custom := models.MEngineConfig{
		Risk:       models.MRiskConfig{ATRSLMult: 1.5, ATRTPMult: 4},
		Thresholds: models.MThresholdConfig{MinScore: 3, MinConfidence: 80, MinRR: 2},
		MinBars:    100,
	}
	if got := normalizeEngineConfig(custom); got != custom {
		t.Errorf("normalizeEngineConfig(custom) = %+v, want unchanged", got)
	}
}

func TestEvaluateZeroConfigKeepsGuard(t *testing.T) {
	report, err := NewSignalEngine(nil, 1).Evaluate("EURUSD", "15m", rampSeries(220, 300), models.MEngineConfig{})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	withDefaults, err := NewSignalEngine(nil, 1).Evaluate("EURUSD", "15m", rampSeries(220, 300), models.DefaultEngineConfig())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if report.Direction != withDefaults.Direction || report.Confidence != withDefaults.Confidence {
		t.Errorf("Evaluate(zero cfg) = %v/%v, want %v/%v", report.Direction, report.Confidence, withDefaults.Direction, withDefaults.Confidence)
	}
}
