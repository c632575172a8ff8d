package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forex-signal-bot/src/analysis"
	"forex-signal-bot/src/config"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/utils"
)

// shutdownTimeout bounds the graceful stop of the HTTP and gRPC servers.
const shutdownTimeout = 10 * time.Second

// -----------------------------------------------------------------------------

func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	mode := flag.String("mode", "all", "what to run: all, api or bot")
	flag.Parse()

	if err := run(*configPath, *mode); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func run(configPath, mode string) error {
	withAPI, withBot, err := parseMode(mode)
	if err != nil {
		return err
	}

	// .env first so the YAML overlay sees TELEGRAM_BOT_TOKEN and friends
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	conf, err := config.NewConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := logger.Configure(conf.Log); err != nil {
		return err
	}
	defer logger.Close()

	appLogger := logger.NewLogger(conf, conf.Name)
	appLogger.Info("Starting %s (mode=%s)", conf.Name, mode)

	if withBot && !conf.Telegram.Enabled {
		if mode == "bot" {
			return fmt.Errorf("mode 'bot' needs TELEGRAM_BOT_TOKEN")
		}
		appLogger.Warning("Telegram bot disabled: TELEGRAM_BOT_TOKEN is not set")
		withBot = false
	}

	// Components
	netMgr := setupNetwork(conf)
	router, provider, err := setupDataSources(conf, netMgr, appLogger)
	if err != nil {
		return err
	}
	engine := analysis.NewSignalEngine(provider, conf.Analysis.BatchWorkers)
	clock := utils.NewSessionClock(logger.NewLogger(conf, "SessionClock"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stoppers []func(context.Context)

	if withAPI {
		stopAPI := startAPIServer(conf, engine, clock, router, appLogger)
		stoppers = append(stoppers, stopAPI)

		stopGRPC, err := startGRPCServer(conf, configPath, engine, router, clock, netMgr, appLogger)
		if err != nil {
			stopAPI(context.Background())
			return err
		}
		stoppers = append(stoppers, stopGRPC)
	}

	if withBot {
		store, err := setupSessionStore(conf, appLogger)
		if err != nil {
			shutdown(stoppers)
			return err
		}
		stoppers = append(stoppers, startBot(ctx, conf, engine, store, clock, appLogger))
	}

	<-ctx.Done()
	appLogger.Info("Shutting down...")
	shutdown(stoppers)
	appLogger.Info("Shutdown complete.")
	return nil
}

// -----------------------------------------------------------------------------

func parseMode(mode string) (withAPI, withBot bool, err error) {
	switch mode {
	case "all":
		return true, true, nil
	case "api":
		return true, false, nil
	case "bot":
		return false, true, nil
	}
	return false, false, fmt.Errorf("unknown mode %q (use all, api or bot)", mode)
}

// shutdown stops components in reverse start order.
func shutdown(stoppers []func(context.Context)) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(stoppers) - 1; i >= 0; i-- {
		stoppers[i](ctx)
	}
}
