package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"forex-signal-bot/src/config"
	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/utils"

	"github.com/gin-gonic/gin"
)

// Version is reported by /health.
const Version = "1.0.0"

// -----------------------------------------------------------------------------
// APIServer serves the HTTP analysis API and the websocket endpoint.
// -----------------------------------------------------------------------------

type APIServer struct {
	Config   *config.Config
	Analyzer interfaces.ISignalAnalyzer
	Sessions *utils.SessionClock
	Logger   *logger.Logger

	// DataSources names the registered bar sources for /config/status.
	DataSources []string

	engine     *gin.Engine
	httpServer *http.Server

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	clientsMu  sync.RWMutex
	stopOnce   sync.Once
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *config.Config, analyzer interfaces.ISignalAnalyzer, sessions *utils.SessionClock, log *logger.Logger) *APIServer {
	if cfg.Log.Level != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.NewLogger(nil, "APIServer")
	}
	if sessions == nil {
		sessions = utils.NewSessionClock(log)
	}

	s := &APIServer{
		Config:     cfg,
		Analyzer:   analyzer,
		Sessions:   sessions,
		Logger:     log,
		engine:     gin.Default(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}

	s.engine.Use(corsMiddleware())
	s.setupRoutes()

	go s.handleWebsockets()
	return s
}

// -----------------------------------------------------------------------------

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	s.engine.GET("/", s.getHealth)
	s.engine.GET("/health", s.getHealth)
	s.engine.GET("/config/status", s.getConfigStatus)
	s.engine.GET("/logs/recent", s.getRecentLogs)
	s.engine.GET("/analyze", s.getAnalyze)
	s.engine.GET("/pairs", s.getPairs)

	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start blocks until the server stops. A clean Stop returns nil.
func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.Logger.Info("Starting API server on %s", addr)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		close(s.done)
		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}
	})
	return err
}

// -----------------------------------------------------------------------------

// Connections returns the number of open websocket clients.
func (s *APIServer) Connections() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
