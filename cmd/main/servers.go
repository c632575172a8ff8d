package main

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"forex-signal-bot/src/config"
	datasource "forex-signal-bot/src/data_source"
	pb "forex-signal-bot/src/grpc_control"
	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/server"
	"forex-signal-bot/src/telegram"
	"forex-signal-bot/src/utils"

	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------

// startAPIServer runs the REST/WebSocket server in the background.
func startAPIServer(
	conf *config.Config,
	analyzer interfaces.ISignalAnalyzer,
	clock *utils.SessionClock,
	router *datasource.BarRouter,
	appLogger *logger.Logger,
) func(context.Context) {
	srv := server.NewAPIServer(conf, analyzer, clock, logger.NewLogger(conf, "APIServer"))
	srv.DataSources = router.SourceNames()

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("API server failed: %v", err)
		}
	}()

	return func(ctx context.Context) {
		if err := srv.Stop(ctx); err != nil {
			appLogger.Error("API server shutdown: %v", err)
		}
	}
}

// -----------------------------------------------------------------------------

// startGRPCServer serves SignalService on grpc_host:grpc_port. A zero port
// disables it.
func startGRPCServer(
	conf *config.Config,
	configPath string,
	analyzer interfaces.ISignalAnalyzer,
	router *datasource.BarRouter,
	clock *utils.SessionClock,
	netMgr interfaces.INetworkManager,
	appLogger *logger.Logger,
) (func(context.Context), error) {
	if conf.GrpcPort == 0 {
		appLogger.Info("gRPC server disabled (grpc_port = 0)")
		return func(context.Context) {}, nil
	}

	addr := fmt.Sprintf("%s:%d", conf.GrpcHost, conf.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		appLogger.Error("failed to listen for gRPC: %v", err)
		return nil, err
	}

	grpcServer := grpc.NewServer()
	service := pb.NewSignalService(conf, configPath, analyzer, router, clock, netMgr, logger.NewLogger(conf, "SignalService"))
	pb.RegisterSignalServiceServer(grpcServer, service)

	go func() {
		appLogger.Info("Starting gRPC server on %s", addr)
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("gRPC server failed: %v", err)
		}
	}()

	return func(ctx context.Context) {
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			grpcServer.Stop()
		}
	}, nil
}

// -----------------------------------------------------------------------------

// startBot long-polls Telegram until ctx ends or the returned stop is called.
// The session store is closed once polling has returned.
func startBot(
	ctx context.Context,
	conf *config.Config,
	analyzer interfaces.ISignalAnalyzer,
	store interfaces.ISessionStore,
	clock *utils.SessionClock,
	appLogger *logger.Logger,
) func(context.Context) {
	poll := time.Duration(conf.Telegram.PollTimeoutSeconds) * time.Second
	if poll <= 0 {
		poll = 30 * time.Second
	}
	client := telegram.NewClient(conf.Telegram.BotToken, conf.Telegram.APIBaseURL, poll)

	bot := telegram.NewBot(client, analyzer, store, clock, conf.Pairs(), conf.Analysis.Timeframes, conf.EngineConfig())
	bot.PollTimeout = poll
	if conf.Analysis.RequestTimeoutSeconds > 0 {
		bot.AnalysisTimeout = time.Duration(conf.Analysis.RequestTimeoutSeconds) * time.Second
	}

	botCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bot.Run(botCtx); err != nil {
			appLogger.Error("Telegram bot stopped: %v", err)
		}
	}()

	return func(stopCtx context.Context) {
		cancel()
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-stopCtx.Done():
			appLogger.Warning("Telegram bot did not stop in time")
		}
		if err := store.Close(); err != nil {
			appLogger.Error("Session store close: %v", err)
		}
	}
}
