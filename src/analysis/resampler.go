package analysis

import (
	"sort"

	"forex-signal-bot/src/models"
)

// TimeSeriesResampler groups bars into fixed, epoch-aligned windows.
type TimeSeriesResampler struct{}

// BarWindow is one non-empty resampling window.
type BarWindow struct {
	Indices   []int
	StartTime int64
	EndTime   int64
}

// -----------------------------------------------------------------------------

// ResampleIndices groups sorted timestamps by the window they fall in.
// Windows start at multiples of windowSeconds; empty windows are skipped.
func (r *TimeSeriesResampler) ResampleIndices(timestamps []int64, windowSeconds int64) []BarWindow {
	if len(timestamps) == 0 || windowSeconds <= 0 {
		return nil
	}

	var windows []BarWindow
	for i, ts := range timestamps {
		start, end := CalculateWindowBoundaries(ts, windowSeconds)
		if n := len(windows); n > 0 && windows[n-1].StartTime == start {
			windows[n-1].Indices = append(windows[n-1].Indices, i)
			continue
		}
		windows = append(windows, BarWindow{Indices: []int{i}, StartTime: start, EndTime: end})
	}
	return windows
}

// -----------------------------------------------------------------------------

// Resample aggregates bars into windowSeconds bars: open=first, high=max,
// low=min, close=last, volume=sum. The input is sorted by time first.
func (r *TimeSeriesResampler) Resample(bars models.MBarSeries, windowSeconds int64) models.MBarSeries {
	if len(bars) == 0 {
		return models.MBarSeries{}
	}

	sorted := make(models.MBarSeries, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	windows := r.ResampleIndices(sorted.Timestamps(), windowSeconds)
	out := make(models.MBarSeries, 0, len(windows))
	for _, w := range windows {
		first := sorted[w.Indices[0]]
		agg := models.MBar{
			Timestamp: w.StartTime,
			Open:      first.Open,
			High:      first.High,
			Low:       first.Low,
			Close:     sorted[w.Indices[len(w.Indices)-1]].Close,
		}
		for _, idx := range w.Indices {
			b := sorted[idx]
			if b.High > agg.High {
				agg.High = b.High
			}
			if b.Low < agg.Low {
				agg.Low = b.Low
			}
			agg.Volume += b.Volume
		}
		out = append(out, agg)
	}
	return out
}

// -----------------------------------------------------------------------------

// ResampleBars is a convenience wrapper around TimeSeriesResampler.Resample.
func ResampleBars(bars models.MBarSeries, windowSeconds int64) models.MBarSeries {
	var r TimeSeriesResampler
	return r.Resample(bars, windowSeconds)
}

// -----------------------------------------------------------------------------

// CalculateWindowBoundaries returns the aligned window containing ts.
func CalculateWindowBoundaries(ts int64, window int64) (int64, int64) {
	start := ts - (ts % window)
	return start, start + window
}
