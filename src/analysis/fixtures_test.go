package analysis

import (
	"context"
	"math"
	"sync"

	"forex-signal-bot/src/models"
)

const fixtureStart int64 = 1_700_006_400 // multiple of 14400

// rampSeries rises 0.08% per bar with a 0.0002 wick either side.
func rampSeries(n int, step int64) models.MBarSeries {
	out := make(models.MBarSeries, n)
	for i := range out {
		c := 1.1 * math.Pow(1.0008, float64(i))
		out[i] = models.MBar{
			Timestamp: fixtureStart + int64(i)*step,
			Open:      c,
			High:      c + 0.0002,
			Low:       c - 0.0002,
			Close:     c,
		}
	}
	return out
}

func flatSeries(n int) models.MBarSeries {
	out := make(models.MBarSeries, n)
	for i := range out {
		out[i] = models.MBar{
			Timestamp: fixtureStart + int64(i)*300,
			Open:      1.1,
			High:      1.1002,
			Low:       1.0998,
			Close:     1.1,
		}
	}
	return out
}

// -----------------------------------------------------------------------------

type fetchCall struct {
	pair, interval, lookback string
}

type fakeProvider struct {
	mu     sync.Mutex
	series map[string]models.MBarSeries
	errs   map[string]error
	panics map[string]bool
	calls  []fetchCall
}

func (f *fakeProvider) Name() string              { return "fake" }
func (f *fakeProvider) Supports(pair string) bool { return true }

func (f *fakeProvider) FetchBars(ctx context.Context, pair, interval, lookback string) (models.MBarSeries, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fetchCall{pair, interval, lookback})
	f.mu.Unlock()

	if f.panics[pair] {
		panic("feed exploded")
	}
	if err := f.errs[pair]; err != nil {
		return nil, err
	}
	return f.series[pair], nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
