package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultTimeframe = "15m"
	defaultLogLines  = 50
	maxLogLines      = 1000
)

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   nowISO(),
		"version":     Version,
		"connections": s.Connections(),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getConfigStatus(c *gin.Context) {
	sources := s.DataSources
	if sources == nil {
		sources = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"telegram_configured": s.Config.Telegram.Enabled && s.Config.Telegram.BotToken != "",
		"data_sources":        sources,
		"storage":             s.Config.Storage.DBType,
		"debug_mode":          s.Config.Debug,
		"open_sessions":       s.Sessions.Current(),
		"timestamp":           nowISO(),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getRecentLogs(c *gin.Context) {
	lines := defaultLogLines
	if raw := c.Query("lines"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLogLines {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "lines must be an integer between 1 and 1000"})
			return
		}
		lines = n
	}

	logs := logger.Recent(lines)
	c.JSON(http.StatusOK, gin.H{
		"logs":        logs,
		"total_lines": len(logs),
		"timestamp":   nowISO(),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPairs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pairs":      s.Config.Pairs(),
		"timeframes": s.Config.Analysis.Timeframes,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getAnalyze(c *gin.Context) {
	pairs := splitPairs(c.Query("pairs"))
	if len(pairs) == 0 {
		pairs = s.Config.Pairs()
	}
	tf := c.DefaultQuery("tf", defaultTimeframe)

	resp, err := s.analyze(c.Request.Context(), pairs, tf)
	if err != nil {
		status := http.StatusInternalServerError
		if helpers.IsUnsupportedTimeframe(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
	s.Broadcast(resp)
}

// -----------------------------------------------------------------------------

// analyze is shared by the HTTP and websocket surfaces.
func (s *APIServer) analyze(ctx context.Context, pairs []string, tf string) (*models.MAnalyzeResponse, error) {
	if secs := s.Config.Analysis.RequestTimeoutSeconds; secs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(secs)*time.Second)
		defer cancel()
	}

	requestID := uuid.NewString()
	results, err := s.Analyzer.Analyze(ctx, pairs, tf, s.Config.EngineConfig())
	if err != nil {
		s.Logger.Warning("Analysis request %s rejected: %v", requestID, err)
		return nil, err
	}

	s.Logger.Info("Analysis request %s: %d pairs on %s", requestID, len(pairs), tf)
	resp := &models.MAnalyzeResponse{
		RequestID:    requestID,
		Timeframe:    tf,
		OpenSessions: s.Sessions.Current(),
		Results:      results,
	}
	return resp, nil
}
