package datasource

import (
	"fmt"
	"strings"

	"forex-signal-bot/src/data_source/binance"
	"forex-signal-bot/src/data_source/yahoo"
	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"
)

// NewSourceFromConfig builds one bar source. The bool reports whether the
// source accepts every pair and so belongs at the end of the routing order.
func NewSourceFromConfig(sc models.MSourceConfig, netMgr interfaces.INetworkManager) (interfaces.IBarProvider, bool, error) {
	switch strings.ToLower(sc.Type) {
	case "binance":
		return binance.NewBinanceBarSource(sc), false, nil
	case "yahoo", "":
		return yahoo.NewYahooBarSource(sc, netMgr), true, nil
	default:
		return nil, false, fmt.Errorf("unknown data source type %q for %s", sc.Type, sc.Name)
	}
}

// -----------------------------------------------------------------------------

// RegisterSource builds sc and adds it to the router: catch-all sources go
// last, the others ahead of every existing source.
func RegisterSource(router *BarRouter, sc models.MSourceConfig, netMgr interfaces.INetworkManager) error {
	src, catchAll, err := NewSourceFromConfig(sc, netMgr)
	if err != nil {
		return err
	}
	if catchAll {
		return router.AddSource(src)
	}
	return router.InsertSource(src, 0)
}

// -----------------------------------------------------------------------------

// NewRouterFromConfig builds every configured source. Yahoo sources accept
// any pair, so they are registered after the others.
func NewRouterFromConfig(cfg models.MDataSourceConfig, netMgr interfaces.INetworkManager, log *logger.Logger) (*BarRouter, error) {
	var specific, fallback []interfaces.IBarProvider

	for _, sc := range cfg.Sources {
		src, catchAll, err := NewSourceFromConfig(sc, netMgr)
		if err != nil {
			return nil, err
		}
		if catchAll {
			fallback = append(fallback, src)
		} else {
			specific = append(specific, src)
		}
	}
	if len(specific)+len(fallback) == 0 {
		fallback = append(fallback, yahoo.NewYahooBarSource(models.MSourceConfig{Name: "yahoo", Type: "yahoo"}, netMgr))
	}

	return NewBarRouter(append(specific, fallback...), log), nil
}
