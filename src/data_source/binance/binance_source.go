package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"

	gobinance "github.com/adshao/go-binance/v2"
	"golang.org/x/time/rate"
)

// klinesPageSize is the Binance per-request kline cap.
const klinesPageSize = 1000

// QuoteAssets are the symbol suffixes this source recognises.
var QuoteAssets = []string{"USDT", "BUSD", "USDC", "BTC", "ETH"}

var intervals = map[string]string{
	"5m":  "5m",
	"15m": "15m",
	"60m": "1h",
	"1h":  "1h",
}

// BinanceBarSource serves crypto bars from the Binance spot klines endpoint.
type BinanceBarSource struct {
	SourceConfig models.MSourceConfig
	Client       *gobinance.Client
	Logger       *logger.Logger
	Now          func() time.Time

	rateLimiter *rate.Limiter
	allowed     map[string]bool
}

// -----------------------------------------------------------------------------

func NewBinanceBarSource(sourceCfg models.MSourceConfig) *BinanceBarSource {
	if sourceCfg.Name == "" {
		sourceCfg.Name = "binance"
	}
	rps := sourceCfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	burst := int(rps * 2)
	if burst < 1 {
		burst = 1
	}

	allowed := make(map[string]bool, len(sourceCfg.Symbols))
	for _, s := range sourceCfg.Symbols {
		allowed[strings.ToUpper(strings.TrimSpace(s))] = true
	}

	return &BinanceBarSource{
		SourceConfig: sourceCfg,
		Client:       gobinance.NewClient(sourceCfg.APIKey, sourceCfg.APISecret),
		Logger:       logger.NewLogger(nil, "BinanceBarSource-"+sourceCfg.Name),
		Now:          time.Now,
		rateLimiter:  rate.NewLimiter(rate.Limit(rps), burst),
		allowed:      allowed,
	}
}

// -----------------------------------------------------------------------------

func (s *BinanceBarSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// Supports reports whether pair ends in a known quote asset, and, when the
// source lists symbols, whether it is one of them.
func (s *BinanceBarSource) Supports(pair string) bool {
	p := strings.ToUpper(strings.TrimSpace(pair))
	if len(s.allowed) > 0 && !s.allowed[p] {
		return false
	}
	for _, q := range QuoteAssets {
		if strings.HasSuffix(p, q) && len(p) > len(q) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// ParseLookback converts a range such as "14d" or "12h" into a duration.
func ParseLookback(lookback string) (time.Duration, error) {
	lb := strings.TrimSpace(strings.ToLower(lookback))
	if strings.HasSuffix(lb, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(lb, "d"))
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("invalid lookback %q", lookback)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(lb)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid lookback %q", lookback)
	}
	return d, nil
}

// -----------------------------------------------------------------------------

// FetchBars pages through klines from now-lookback to now.
func (s *BinanceBarSource) FetchBars(ctx context.Context, pair, interval, lookback string) (models.MBarSeries, error) {
	binanceInterval, ok := intervals[interval]
	if !ok {
		return nil, helpers.NewDataSourceError(fmt.Sprintf("binance: unsupported interval %q", interval), nil)
	}
	span, err := ParseLookback(lookback)
	if err != nil {
		return nil, helpers.NewDataSourceError("binance", err)
	}

	symbol := strings.ToUpper(strings.TrimSpace(pair))
	end := s.Now()
	startMs := end.Add(-span).UnixMilli()
	endMs := end.UnixMilli()

	var bars models.MBarSeries
	for startMs < endMs {
		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		klines, err := s.Client.NewKlinesService().
			Symbol(symbol).
			Interval(binanceInterval).
			StartTime(startMs).
			EndTime(endMs).
			Limit(klinesPageSize).
			Do(ctx)
		if err != nil {
			return nil, helpers.NewDataSourceError(fmt.Sprintf("binance klines %s", symbol), err)
		}

		for _, k := range klines {
			bar, err := klineToBar(k)
			if err != nil {
				s.Logger.Warning("Skipping kline %d for %s: %v", k.OpenTime, symbol, err)
				continue
			}
			if n := len(bars); n > 0 && bars[n-1].Timestamp >= bar.Timestamp {
				continue
			}
			bars = append(bars, bar)
		}

		if len(klines) < klinesPageSize {
			break
		}
		startMs = klines[len(klines)-1].OpenTime + 1
	}

	s.Logger.Debug("Fetched %d %s klines for %s", len(bars), binanceInterval, symbol)
	if bars == nil {
		bars = models.MBarSeries{}
	}
	return bars, nil
}

// -----------------------------------------------------------------------------

func klineToBar(k *gobinance.Kline) (models.MBar, error) {
	fields := []string{k.Open, k.High, k.Low, k.Close, k.Volume}
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return models.MBar{}, err
		}
		values[i] = v
	}
	return models.MBar{
		Timestamp: k.OpenTime / 1000,
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}
