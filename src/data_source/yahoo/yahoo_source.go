package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"
)

// DefaultChartURL is the Yahoo Finance v8 chart endpoint.
const DefaultChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooBarSource serves FX bars from the Yahoo chart API.
type YahooBarSource struct {
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
	BaseURL      string
}

// -----------------------------------------------------------------------------

func NewYahooBarSource(sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager) *YahooBarSource {
	if sourceCfg.Name == "" {
		sourceCfg.Name = "yahoo"
	}
	return &YahooBarSource{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       logger.NewLogger(nil, "YahooBarSource-"+sourceCfg.Name),
		BaseURL:      DefaultChartURL,
	}
}

// -----------------------------------------------------------------------------

func (s *YahooBarSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// Supports accepts every pair; the router registers Yahoo last.
func (s *YahooBarSource) Supports(pair string) bool {
	return strings.TrimSpace(pair) != ""
}

// -----------------------------------------------------------------------------

// SymbolFor maps a pair such as "eurusd" to the Yahoo ticker "EURUSD=X".
func SymbolFor(pair string) string {
	p := strings.ToUpper(strings.TrimSpace(pair))
	if strings.HasSuffix(p, "=X") {
		return p
	}
	return p + "=X"
}

// -----------------------------------------------------------------------------

// FetchBars downloads bars for pair. A Yahoo "no data" answer is an empty
// series, transport failures are errors.
func (s *YahooBarSource) FetchBars(ctx context.Context, pair, interval, lookback string) (models.MBarSeries, error) {
	symbol := SymbolFor(pair)
	params := map[string]string{
		"interval":       interval,
		"range":          lookback,
		"includePrePost": "false",
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(s.BaseURL, "/"), symbol)
	respBytes, err := s.Network.Get(ctx, url, params)
	if err != nil {
		return nil, helpers.NewDataSourceError(fmt.Sprintf("yahoo fetch %s", symbol), err)
	}

	bars, err := s.parseChartResponse(symbol, respBytes)
	if err != nil {
		return nil, err
	}
	s.Logger.Debug("Fetched %d %s bars for %s over %s", len(bars), interval, symbol, lookback)
	return bars, nil
}

// -----------------------------------------------------------------------------

type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency        string `json:"currency"`
				Symbol          string `json:"symbol"`
				ExchangeName    string `json:"exchangeName"`
				InstrumentType  string `json:"instrumentType"`
				Timezone        string `json:"timezone"`
				DataGranularity string `json:"dataGranularity"`
				Range           string `json:"range"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Open   []*float64 `json:"open"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

func valueAt(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

// -----------------------------------------------------------------------------

func (s *YahooBarSource) parseChartResponse(symbol string, data []byte) (models.MBarSeries, error) {
	var resp YahooChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, helpers.NewDataSourceError("yahoo response decode failed", err)
	}

	if resp.Chart.Error != nil {
		s.Logger.Warning("Yahoo returned no data for %s: %s - %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
		return models.MBarSeries{}, nil
	}
	if len(resp.Chart.Result) == 0 {
		return models.MBarSeries{}, nil
	}

	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return models.MBarSeries{}, nil
	}
	quote := result.Indicators.Quote[0]

	bars := make(models.MBarSeries, 0, len(result.Timestamp))
	dropped := 0
	for i, ts := range result.Timestamp {
		open, okO := valueAt(quote.Open, i)
		high, okH := valueAt(quote.High, i)
		low, okL := valueAt(quote.Low, i)
		closeVal, okC := valueAt(quote.Close, i)
		if !okO || !okH || !okL || !okC || closeVal <= 0 {
			dropped++
			continue
		}
		// FX quotes carry no volume.
		volume, _ := valueAt(quote.Volume, i)

		bars = append(bars, models.MBar{
			Timestamp: ts,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closeVal,
			Volume:    volume,
		})
	}
	if dropped > 0 {
		s.Logger.Debug("Dropped %d incomplete rows for %s", dropped, symbol)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp < bars[j].Timestamp
	})

	// Keep the last row for a repeated timestamp; Yahoo repeats the live bar.
	deduped := bars[:0]
	for _, b := range bars {
		if n := len(deduped); n > 0 && deduped[n-1].Timestamp == b.Timestamp {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped, nil
}
