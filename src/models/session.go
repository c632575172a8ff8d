package models

import "time"

// MChatSession keeps the pair a chat picked between the two keyboard steps.
type MChatSession struct {
	ChatID       int64     `json:"chat_id"`
	SelectedPair string    `json:"selected_pair"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// -----------------------------------------------------------------------------
// AnalyzeCommand for websocket client messages
// -----------------------------------------------------------------------------

type MAnalyzeCommand struct {
	Command   string   `json:"command"`
	Pairs     []string `json:"pairs"`
	Timeframe string   `json:"timeframe"`
}

// MAnalyzeResponse is the envelope returned by the HTTP and websocket endpoints.
type MAnalyzeResponse struct {
	Type         string            `json:"type,omitempty"`
	RequestID    string            `json:"request_id"`
	Timeframe    string            `json:"timeframe"`
	OpenSessions []string          `json:"open_sessions"`
	Results      []MAnalysisResult `json:"results"`
	Error        string            `json:"error,omitempty"`
}
