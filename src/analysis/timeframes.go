package analysis

import (
	"strings"

	"forex-signal-bot/src/helpers"
)

// FourHourSeconds is the bin width used to build 4h bars from hourly ones.
const FourHourSeconds int64 = 4 * 60 * 60

// TimeframeSpec describes how a report timeframe is fetched.
type TimeframeSpec struct {
	Name            string // report timeframe: 5m, 15m, 4h
	Interval        string // provider interval
	Lookback        string // provider range
	ResampleSeconds int64  // 0 when bars are used as delivered
}

var timeframes = map[string]TimeframeSpec{
	"5m":  {Name: "5m", Interval: "5m", Lookback: "14d"},
	"15m": {Name: "15m", Interval: "15m", Lookback: "14d"},
	"4h":  {Name: "4h", Interval: "60m", Lookback: "90d", ResampleSeconds: FourHourSeconds},
}

// SupportedTimeframes lists the accepted timeframes in display order.
var SupportedTimeframes = []string{"5m", "15m", "4h"}

// -----------------------------------------------------------------------------

// ResolveTimeframe maps a timeframe string (case-insensitive) to its fetch spec.
func ResolveTimeframe(tf string) (TimeframeSpec, error) {
	spec, ok := timeframes[strings.ToLower(strings.TrimSpace(tf))]
	if !ok {
		return TimeframeSpec{}, helpers.NewUnsupportedTimeframeError(tf)
	}
	return spec, nil
}

// IsSupportedTimeframe reports whether tf resolves.
func IsSupportedTimeframe(tf string) bool {
	_, err := ResolveTimeframe(tf)
	return err == nil
}
