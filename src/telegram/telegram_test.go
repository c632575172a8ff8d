package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"forex-signal-bot/src/models"
	"forex-signal-bot/src/storage"
)

const testToken = "123456:TEST-TOKEN"

type apiCall struct {
	Method string
	Body   map[string]interface{}
}

// fakeBotAPI records every Bot API call. getUpdates serves the queued
// updates once and then returns empty batches.
type fakeBotAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	updates []Update
	failOn  map[string]string
	srv     *httptest.Server
}

func newFakeBotAPI(t *testing.T) *fakeBotAPI {
	t.Helper()
	f := &fakeBotAPI{failOn: map[string]string{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeBotAPI) serve(w http.ResponseWriter, r *http.Request) {
	prefix := "/bot" + testToken + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
		return
	}
	method := strings.TrimPrefix(r.URL.Path, prefix)
	var body map[string]interface{}
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Body: body})
	desc, fail := f.failOn[method]
	var updates []Update
	if method == "getUpdates" {
		updates, f.updates = f.updates, nil
	}
	f.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error_code": 400, "description": desc})
		return
	}

	switch method {
	case "getUpdates":
		if len(updates) == 0 {
			time.Sleep(20 * time.Millisecond)
			updates = []Update{}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": updates})
	case "sendMessage":
		chatID, _ := body["chat_id"].(float64)
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": Message{MessageID: 77, Chat: Chat{ID: int64(chatID)}}})
	default:
		w.Write([]byte(`{"ok":true,"result":true}`))
	}
}

func (f *fakeBotAPI) fail(method, description string) {
	f.mu.Lock()
	f.failOn[method] = description
	f.mu.Unlock()
}

func (f *fakeBotAPI) recorded() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiCall(nil), f.calls...)
}

func (f *fakeBotAPI) reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeBotAPI) methods() []string {
	var out []string
	for _, c := range f.recorded() {
		out = append(out, c.Method)
	}
	return out
}

func (f *fakeBotAPI) last(method string) (apiCall, bool) {
	calls := f.recorded()
	for i := len(calls) - 1; i >= 0; i-- {
		if calls[i].Method == method {
			return calls[i], true
		}
	}
	return apiCall{}, false
}

// -----------------------------------------------------------------------------

type stubAnalyzer struct {
	result models.MAnalysisResult
	err    error
	calls  []string
	mu     sync.Mutex
}

func (s *stubAnalyzer) AnalyzePairTimeframe(ctx context.Context, pair, timeframe string, cfg models.MEngineConfig) (*models.MSignalReport, error) {
	return s.result.Report, s.err
}

func (s *stubAnalyzer) Analyze(ctx context.Context, pairs []string, timeframe string, cfg models.MEngineConfig) ([]models.MAnalysisResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, pairs[0]+"/"+timeframe)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	r := s.result
	r.Pair, r.Timeframe = pairs[0], timeframe
	return []models.MAnalysisResult{r}, nil
}

func f64(v float64) *float64 { return &v }

func buyReport() *models.MSignalReport {
	return &models.MSignalReport{
		Pair: "EURUSD", Timeframe: "15m", Direction: models.DirectionBuy,
		Entry: 1.0825, StopLoss: f64(1.08), TakeProfit: f64(1.08625),
		SLPips: 25, TPPips: 37.5, RR: 1.5, Confidence: 85,
		Reasons: []string{
			"MACD bullish cross state",
			"Uptrend alignment (price > EMA20 > EMA50 > EMA200)",
			"Bullish breakout above 20-bar high",
			"RSI oversold (25.0)",
			"Price near/below lower Bollinger band",
		},
	}
}

func newTestBot(t *testing.T, analyzer *stubAnalyzer) (*Bot, *fakeBotAPI, *storage.MemorySessionStore) {
	t.Helper()
	api := newFakeBotAPI(t)
	client := NewClient(testToken, api.srv.URL, time.Second)
	store := storage.NewMemorySessionStore(models.MStorageConfig{})
	bot := NewBot(client, analyzer, store, nil,
		[]string{"EURUSD", "GBPUSD", "USDJPY"}, []string{"5m", "15m", "4h"}, models.DefaultEngineConfig())
	bot.PollTimeout = time.Second
	return bot, api, store
}

func callbackUpdate(id int64, data string) Update {
	return Update{UpdateID: id, CallbackQuery: &CallbackQuery{
		ID: "cb", Data: data, From: User{ID: 5},
		Message: &Message{MessageID: 10, Chat: Chat{ID: 42}},
	}}
}

// -----------------------------------------------------------------------------

func TestFormatReport(t *testing.T) {
	at := time.Date(2024, time.June, 12, 12, 34, 56, 0, time.UTC)
	msg := FormatReport(buyReport(), []string{"London", "New York"}, at)

	for _, want := range []string{
		"🟢 <b>FOREX ANALYSIS</b> 🟢",
		"<b>BUY SIGNAL</b>",
		"<b>Entry Price:</b> 1.0825",
		"<b>Confidence:</b> 85%",
		"<b>Stop Loss:</b> 1.08\n",
		"<b>TP Distance:</b> 37.5 pips",
		"<b>Risk:Reward:</b> 1:1.5",
		"price &gt; EMA20 &gt; EMA50",
		"<b>Open Sessions:</b> London, New York",
		"<b>Analysis Time:</b> 12:34:56",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("FormatReport() missing %q in:\n%s", want, msg)
		}
	}
	if got := strings.Count(msg, "• "); got != maxReasons {
		t.Errorf("FormatReport() reasons = %d, want %d", got, maxReasons)
	}
	if strings.Contains(msg, "Bollinger") {
		t.Errorf("FormatReport() included the fifth reason")
	}
}

func TestFormatReportWithoutLevels(t *testing.T) {
	r := &models.MSignalReport{Pair: "USDJPY", Direction: models.DirectionNoSignal, Entry: 151.234, Confidence: 50, Reasons: []string{}}
	msg := FormatReport(r, nil, time.Now())

	if strings.Contains(msg, "Risk Management") || strings.Contains(msg, "Technical Analysis") {
		t.Errorf("FormatReport() = %s, want no risk or reasons block", msg)
	}
	if !strings.Contains(msg, "🟡") || !strings.Contains(msg, "NO STRONG SIGNAL") {
		t.Errorf("FormatReport() = %s, want the neutral style", msg)
	}
	if !strings.Contains(msg, "none (FX market closed)") {
		t.Errorf("FormatReport() = %s, want closed market note", msg)
	}

	sell := &models.MSignalReport{Direction: models.DirectionSell}
	if msg := FormatReport(sell, nil, time.Now()); !strings.Contains(msg, "🔴") || !strings.Contains(msg, "SELL SIGNAL") {
		t.Errorf("FormatReport(SELL) = %s", msg)
	}
}

func TestKeyboards(t *testing.T) {
	kb := PairKeyboard([]string{"EURUSD", "GBPUSD", "USDJPY", "AUDUSD", "USDCAD", "NZDUSD", "EURGBP", "EURJPY"})
	if len(kb.InlineKeyboard) != 4 {
		t.Fatalf("PairKeyboard(8) rows = %d, want 4", len(kb.InlineKeyboard))
	}
	for _, row := range kb.InlineKeyboard {
		if len(row) != 2 {
			t.Errorf("PairKeyboard(8) row = %v, want 2 buttons", row)
		}
	}
	if kb.InlineKeyboard[0][1].CallbackData != "pair_GBPUSD" {
		t.Errorf("CallbackData = %q, want pair_GBPUSD", kb.InlineKeyboard[0][1].CallbackData)
	}

	odd := PairKeyboard([]string{"A", "B", "C"})
	if len(odd.InlineKeyboard) != 2 || len(odd.InlineKeyboard[1]) != 1 {
		t.Errorf("PairKeyboard(3) = %v, want rows of 2 and 1", odd.InlineKeyboard)
	}

	tf := TimeframeKeyboard([]string{"5m", "15m", "4h"})
	row := tf.InlineKeyboard[0]
	if len(row) != 3 || row[2].Text != "4H" || row[2].CallbackData != "tf_4h" {
		t.Errorf("TimeframeKeyboard() = %v", row)
	}
}

// -----------------------------------------------------------------------------

func TestBotConversation(t *testing.T) {
	analyzer := &stubAnalyzer{result: models.MAnalysisResult{Report: buyReport()}}
	bot, api, store := newTestBot(t, analyzer)
	ctx := context.Background()

	bot.HandleUpdate(ctx, Update{UpdateID: 1, Message: &Message{MessageID: 9, Chat: Chat{ID: 42}, Text: "/start"}})
	call, ok := api.last("sendMessage")
	if !ok || !strings.Contains(call.Body["text"].(string), "Welcome to AI Forex Bot") {
		t.Fatalf("/start reply = %+v", call)
	}
	if call.Body["parse_mode"] != ParseModeHTML {
		t.Errorf("parse_mode = %v, want HTML", call.Body["parse_mode"])
	}
	markup := call.Body["reply_markup"].(map[string]interface{})
	if rows := markup["inline_keyboard"].([]interface{}); len(rows) != 2 {
		t.Errorf("pair keyboard rows = %d, want 2", len(rows))
	}

	api.reset()
	bot.HandleUpdate(ctx, callbackUpdate(2, "pair_EURUSD"))
	if got := api.methods(); len(got) != 2 || got[0] != "answerCallbackQuery" || got[1] != "editMessageText" {
		t.Errorf("pair callback calls = %v", got)
	}
	session, _ := store.GetSession(ctx, 42)
	if session == nil || session.SelectedPair != "EURUSD" {
		t.Fatalf("session = %+v, want EURUSD", session)
	}
	edit, _ := api.last("editMessageText")
	if !strings.Contains(edit.Body["text"].(string), "Selected Pair:</b> EURUSD") || edit.Body["message_id"] != float64(10) {
		t.Errorf("pair edit = %+v", edit.Body)
	}

	api.reset()
	bot.HandleUpdate(ctx, callbackUpdate(3, "tf_15m"))
	calls := api.recorded()
	if len(calls) != 3 {
		t.Fatalf("timeframe callback calls = %v, want answer + 2 edits", api.methods())
	}
	if !strings.Contains(calls[1].Body["text"].(string), "Analyzing EURUSD on 15M") {
		t.Errorf("progress text = %q", calls[1].Body["text"])
	}
	if text := calls[2].Body["text"].(string); !strings.Contains(text, "BUY SIGNAL") || !strings.Contains(text, "1:1.5") {
		t.Errorf("result text = %q", text)
	}
	if len(analyzer.calls) != 1 || analyzer.calls[0] != "EURUSD/15m" {
		t.Errorf("analyzer calls = %v", analyzer.calls)
	}

	api.reset()
	bot.HandleUpdate(ctx, callbackUpdate(4, "restart"))
	if session, _ := store.GetSession(ctx, 42); session != nil {
		t.Errorf("session after restart = %+v, want nil", session)
	}
	edit, _ = api.last("editMessageText")
	if !strings.Contains(edit.Body["text"].(string), "Starting New Analysis") {
		t.Errorf("restart edit = %q", edit.Body["text"])
	}
}

func TestBotTimeframeWithoutSession(t *testing.T) {
	analyzer := &stubAnalyzer{}
	bot, api, _ := newTestBot(t, analyzer)

	bot.HandleUpdate(context.Background(), callbackUpdate(1, "tf_4h"))
	edit, ok := api.last("editMessageText")
	if !ok || !strings.Contains(edit.Body["text"].(string), "Session expired") {
		t.Errorf("edit = %+v, want session expired", edit)
	}
	if len(analyzer.calls) != 0 {
		t.Errorf("analyzer called without a session")
	}
}

func TestBotAnalysisIssue(t *testing.T) {
	analyzer := &stubAnalyzer{result: models.MAnalysisResult{ErrorTag: "not_enough_data"}}
	bot, api, _ := newTestBot(t, analyzer)
	ctx := context.Background()

	bot.HandleUpdate(ctx, callbackUpdate(1, "pair_GBPUSD"))
	bot.HandleUpdate(ctx, callbackUpdate(2, "tf_5m"))

	edit, _ := api.last("editMessageText")
	text := edit.Body["text"].(string)
	if !strings.Contains(text, "Analysis Issue") || !strings.Contains(text, "not_enough_data") {
		t.Errorf("issue text = %q", text)
	}
}

func TestBotRejectsUnknownPair(t *testing.T) {
	bot, api, store := newTestBot(t, &stubAnalyzer{})
	bot.HandleUpdate(context.Background(), callbackUpdate(1, "pair_XAUUSD"))
	if s, _ := store.GetSession(context.Background(), 42); s != nil {
		t.Errorf("session = %+v, want none for an unlisted pair", s)
	}
	if edit, _ := api.last("editMessageText"); !strings.Contains(edit.Body["text"].(string), "Step 1") {
		t.Errorf("edit = %q, want pair keyboard again", edit.Body["text"])
	}
}

func TestBotUnknownCommand(t *testing.T) {
	bot, api, _ := newTestBot(t, &stubAnalyzer{})
	bot.HandleUpdate(context.Background(), Update{UpdateID: 1, Message: &Message{Chat: Chat{ID: 7}, Text: "hello"}})
	call, _ := api.last("sendMessage")
	if call.Body["text"] != unknownCommandText || call.Body["chat_id"] != float64(7) {
		t.Errorf("reply = %+v", call.Body)
	}
}

// -----------------------------------------------------------------------------

func TestClientErrors(t *testing.T) {
	api := newFakeBotAPI(t)
	client := NewClient(testToken, api.srv.URL, time.Second)
	ctx := context.Background()

	api.fail("sendMessage", "Bad Request: chat not found")
	_, err := client.SendMessage(ctx, 1, "hi", nil)
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Code != 400 || !strings.Contains(apiErr.Description, "chat not found") {
		t.Errorf("SendMessage() error = %v, want APIError 400", err)
	}

	api.fail("editMessageText", "Bad Request: message is not modified")
	if err := client.EditMessageText(ctx, 1, 2, "same", nil); err != nil {
		t.Errorf("EditMessageText(not modified) error = %v, want nil", err)
	}

	api.srv.Close()
	_, err = client.SendMessage(ctx, 1, "hi", nil)
	if err == nil {
		t.Fatalf("SendMessage() on closed server error = nil")
	}
	if strings.Contains(err.Error(), testToken) {
		t.Errorf("error %q leaks the bot token", err)
	}
}

func TestRunPollsAndStops(t *testing.T) {
	bot, api, _ := newTestBot(t, &stubAnalyzer{})
	api.updates = []Update{{UpdateID: 100, Message: &Message{Chat: Chat{ID: 3}, Text: "/start@ForexBot"}}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := api.last("sendMessage"); ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run() did not stop after cancel")
	}

	call, ok := api.last("sendMessage")
	if !ok || !strings.Contains(call.Body["text"].(string), "Welcome") {
		t.Errorf("sendMessage = %+v, want welcome", call)
	}

	var offsets []float64
	for _, c := range api.recorded() {
		if c.Method == "getUpdates" {
			offsets = append(offsets, c.Body["offset"].(float64))
		}
	}
	if len(offsets) < 2 || offsets[0] != 0 || offsets[1] != 101 {
		t.Errorf("getUpdates offsets = %v, want 0 then 101", offsets)
	}
}
