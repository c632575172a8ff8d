package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"forex-signal-bot/src/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Websocket message types.
const (
	MessageAnalysis   = "ANALYSIS"
	MessageSubscribed = "SUBSCRIBED"
	MessagePong       = "PONG"
	MessageError      = "ERROR"
)

type outbound struct {
	from    *Client
	payload interface{}
}

type wsStatus struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case <-s.done:
			s.clientsMu.Lock()
			for client := range s.clients {
				client.close()
				delete(s.clients, client)
			}
			s.clientsMu.Unlock()
			return

		case client := <-s.register:
			s.clientsMu.Lock()
			s.clients[client] = struct{}{}
			s.clientsMu.Unlock()

		case client := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.close()
			}
			s.clientsMu.Unlock()

		case msg := <-s.broadcast:
			s.clientsMu.Lock()
			for client := range s.clients {
				if client == msg.from || !client.isSubscribed() {
					continue
				}
				if !client.trySend(msg.payload) {
					// slow consumer
					delete(s.clients, client)
					client.close()
				}
			}
			s.clientsMu.Unlock()
		}
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues an analysis envelope for subscribed clients. It never
// blocks; envelopes are dropped when the queue is full.
func (s *APIServer) Broadcast(resp *models.MAnalyzeResponse) {
	s.broadcastFrom(nil, resp)
}

func (s *APIServer) broadcastFrom(from *Client, resp *models.MAnalyzeResponse) {
	msg := *resp
	msg.Type = MessageAnalysis

	select {
	case <-s.done:
	case s.broadcast <- outbound{from: from, payload: &msg}:
	default:
		s.Logger.Warning("Broadcast queue full, dropping %s", resp.RequestID)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MAnalyzeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		client.trySend(wsStatus{Type: MessageError, Error: "invalid message: " + err.Error()})
		return
	}

	switch strings.ToLower(cmd.Command) {
	case "analyze":
		go s.handleAnalyzeCommand(client, cmd)
	case "subscribe":
		client.subscribe()
		client.trySend(wsStatus{Type: MessageSubscribed})
	case "ping":
		client.trySend(wsStatus{Type: MessagePong})
	default:
		client.trySend(wsStatus{Type: MessageError, Error: "unknown command: " + cmd.Command})
	}
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleAnalyzeCommand(client *Client, cmd models.MAnalyzeCommand) {
	pairs := splitPairs(strings.Join(cmd.Pairs, ","))
	if len(pairs) == 0 {
		pairs = s.Config.Pairs()
	}
	tf := cmd.Timeframe
	if tf == "" {
		tf = defaultTimeframe
	}

	resp, err := s.analyze(context.Background(), pairs, tf)
	if err != nil {
		client.trySend(&models.MAnalyzeResponse{
			Type:         MessageError,
			RequestID:    uuid.NewString(),
			Timeframe:    tf,
			OpenSessions: s.Sessions.Current(),
			Results:      []models.MAnalysisResult{},
			Error:        err.Error(),
		})
		return
	}

	reply := *resp
	reply.Type = MessageAnalysis
	client.trySend(&reply)
	s.broadcastFrom(client, resp)
}
