package main

import (
	"time"

	"forex-signal-bot/src/config"
	datasource "forex-signal-bot/src/data_source"
	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/network"
	"forex-signal-bot/src/storage"
)

// -----------------------------------------------------------------------------

// setupNetwork initializes the network manager
func setupNetwork(conf *config.Config) interfaces.INetworkManager {
	return network.NewNetworkManager(conf.Network, logger.NewLogger(conf, "NetworkManager"))
}

// -----------------------------------------------------------------------------

// setupDataSources builds the source router and, when enabled, the bar cache
// in front of it. The router is returned as well for source management.
func setupDataSources(conf *config.Config, netMgr interfaces.INetworkManager, appLogger *logger.Logger) (*datasource.BarRouter, interfaces.IBarProvider, error) {
	router, err := datasource.NewRouterFromConfig(conf.DataSource, netMgr, logger.NewLogger(conf, "BarRouter"))
	if err != nil {
		appLogger.Error("Failed to build data sources: %v", err)
		return nil, nil, err
	}
	appLogger.Info("Data sources: %v", router.SourceNames())

	if conf.DataSource.CacheTTLSeconds <= 0 {
		return router, router, nil
	}
	ttl := time.Duration(conf.DataSource.CacheTTLSeconds) * time.Second
	cache := datasource.NewBarCache(router, ttl, conf.DataSource.CacheMaxEntries, logger.NewLogger(conf, "BarCache"))
	appLogger.Info("Bar cache enabled (ttl=%v, max=%d)", ttl, cache.MaxEntries)
	return router, cache, nil
}

// -----------------------------------------------------------------------------

// setupSessionStore opens the chat session backend named by storage.db_type.
func setupSessionStore(conf *config.Config, appLogger *logger.Logger) (interfaces.ISessionStore, error) {
	store, err := storage.NewSessionStore(conf.Storage, logger.NewLogger(conf, "SessionStore"))
	if err != nil {
		appLogger.Error("Failed to init session store: %v", err)
		return nil, err
	}
	appLogger.Info("Session store ready (%s)", conf.Storage.DBType)
	return store, nil
}
