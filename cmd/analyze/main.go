package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"forex-signal-bot/src/analysis"
	"forex-signal-bot/src/config"
	datasource "forex-signal-bot/src/data_source"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"
	"forex-signal-bot/src/network"
	"forex-signal-bot/src/utils"

	"github.com/google/uuid"
)

// Prints the analysis of a pair list as JSON, e.g.
//
//	go run ./cmd/analyze -pairs EURUSD,USDJPY -tf 4h
func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	pairsFlag := flag.String("pairs", "", "comma separated pairs (default: configured pairs)")
	tf := flag.String("tf", "15m", "timeframe: 5m, 15m or 4h")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall analysis timeout")
	flag.Parse()

	if err := run(*configPath, *pairsFlag, *tf, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func run(configPath, pairsFlag, tf string, timeout time.Duration) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	conf, err := config.NewConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	// stdout carries the JSON result
	conf.Log.File = ""
	conf.Log.Stderr = true
	if err := logger.Configure(conf.Log); err != nil {
		return err
	}
	defer logger.Close()

	pairs := parsePairs(pairsFlag)
	if len(pairs) == 0 {
		pairs = conf.Pairs()
	}

	netMgr := network.NewNetworkManager(conf.Network, logger.NewLogger(conf, "NetworkManager"))
	router, err := datasource.NewRouterFromConfig(conf.DataSource, netMgr, logger.NewLogger(conf, "BarRouter"))
	if err != nil {
		return err
	}
	engine := analysis.NewSignalEngine(router, conf.Analysis.BatchWorkers)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	results, err := engine.Analyze(ctx, pairs, tf, conf.EngineConfig())
	if err != nil {
		return err
	}

	resp := models.MAnalyzeResponse{
		RequestID:    uuid.NewString(),
		Timeframe:    tf,
		OpenSessions: utils.NewSessionClock(logger.NewLogger(conf, "SessionClock")).Current(),
		Results:      results,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// -----------------------------------------------------------------------------

func parsePairs(raw string) []string {
	var pairs []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}
