package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"
	"forex-signal-bot/src/utils"
)

const pollRetryDelay = 3 * time.Second

// -----------------------------------------------------------------------------
// Bot drives the two-step pair/timeframe dialogue and replies with analyses.
// -----------------------------------------------------------------------------

type Bot struct {
	Client     *Client
	Analyzer   interfaces.ISignalAnalyzer
	Store      interfaces.ISessionStore
	Clock      *utils.SessionClock
	Logger     *logger.Logger
	Errors     *helpers.ErrorHandler
	Pairs      []string
	Timeframes []string
	Engine     models.MEngineConfig

	PollTimeout     time.Duration
	AnalysisTimeout time.Duration
	Now             func() time.Time

	wg sync.WaitGroup
}

// -----------------------------------------------------------------------------

func NewBot(client *Client, analyzer interfaces.ISignalAnalyzer, store interfaces.ISessionStore, clock *utils.SessionClock, pairs, timeframes []string, engine models.MEngineConfig) *Bot {
	l := logger.NewLogger(nil, "TelegramBot")
	if clock == nil {
		clock = utils.NewSessionClock(l)
	}
	return &Bot{
		Client:          client,
		Analyzer:        analyzer,
		Store:           store,
		Clock:           clock,
		Logger:          l,
		Errors:          helpers.NewErrorHandler("TelegramBot"),
		Pairs:           pairs,
		Timeframes:      timeframes,
		Engine:          engine,
		PollTimeout:     30 * time.Second,
		AnalysisTimeout: 60 * time.Second,
		Now:             time.Now,
	}
}

// -----------------------------------------------------------------------------

// Run long-polls until ctx is cancelled, handling each update in its own
// goroutine, and waits for in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context) error {
	b.Logger.Info("Telegram bot polling started (%d pairs, %v)", len(b.Pairs), b.Timeframes)
	defer b.wg.Wait()

	var offset int64
	for {
		if ctx.Err() != nil {
			b.Logger.Info("Telegram bot stopped")
			return nil
		}

		updates, err := b.Client.GetUpdates(ctx, offset, b.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			b.Logger.Warning("getUpdates failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.wg.Add(1)
			go func(u Update) {
				defer b.wg.Done()
				b.HandleUpdate(ctx, u)
			}(u)
		}
	}
}

// -----------------------------------------------------------------------------

// HandleUpdate dispatches one update. Failures are logged and reported to
// the chat.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	defer func() {
		if r := recover(); r != nil {
			b.Logger.Error("Update %d panicked: %v", u.UpdateID, r)
		}
	}()

	var (
		chatID int64
		err    error
	)
	switch {
	case u.CallbackQuery != nil:
		if u.CallbackQuery.Message != nil {
			chatID = u.CallbackQuery.Message.Chat.ID
		}
		err = b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		chatID = u.Message.Chat.ID
		err = b.handleMessage(ctx, u.Message)
	default:
		return
	}

	if err != nil {
		b.Errors.Handle(err, fmt.Sprintf("telegram update %d", u.UpdateID))
		if chatID != 0 && ctx.Err() == nil {
			b.Client.SendMessage(ctx, chatID, unexpectedErrorText, nil)
		}
	}
}

// -----------------------------------------------------------------------------

func (b *Bot) handleMessage(ctx context.Context, m *Message) error {
	cmd := strings.TrimSpace(m.Text)
	if i := strings.IndexAny(cmd, " @"); i >= 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/start":
		if err := b.Store.DeleteSession(ctx, m.Chat.ID); err != nil {
			b.Logger.Warning("Failed to clear session for %d: %v", m.Chat.ID, err)
		}
		_, err := b.Client.SendMessage(ctx, m.Chat.ID, welcomeText, PairKeyboard(b.Pairs))
		return err
	default:
		_, err := b.Client.SendMessage(ctx, m.Chat.ID, unknownCommandText, nil)
		return err
	}
}

// -----------------------------------------------------------------------------

func (b *Bot) handleCallback(ctx context.Context, q *CallbackQuery) error {
	if err := b.Client.AnswerCallbackQuery(ctx, q.ID, ""); err != nil {
		b.Logger.Warning("answerCallbackQuery failed: %v", err)
	}
	if q.Message == nil {
		return nil
	}
	chatID, msgID := q.Message.Chat.ID, q.Message.MessageID

	switch {
	case strings.HasPrefix(q.Data, CallbackPair):
		return b.onPair(ctx, chatID, msgID, strings.TrimPrefix(q.Data, CallbackPair))
	case strings.HasPrefix(q.Data, CallbackTimeframe):
		return b.onTimeframe(ctx, chatID, msgID, strings.TrimPrefix(q.Data, CallbackTimeframe))
	case q.Data == CallbackRestart:
		if err := b.Store.DeleteSession(ctx, chatID); err != nil {
			return err
		}
		return b.Client.EditMessageText(ctx, chatID, msgID, restartText, PairKeyboard(b.Pairs))
	default:
		b.Logger.Debug("Ignoring callback %q", q.Data)
		return nil
	}
}

// -----------------------------------------------------------------------------

func (b *Bot) onPair(ctx context.Context, chatID, msgID int64, pair string) error {
	pair = strings.ToUpper(pair)
	if !contains(b.Pairs, pair) {
		return b.Client.EditMessageText(ctx, chatID, msgID, restartText, PairKeyboard(b.Pairs))
	}

	session := models.MChatSession{ChatID: chatID, SelectedPair: pair, UpdatedAt: b.Now()}
	if err := b.Store.SaveSession(ctx, session); err != nil {
		return err
	}
	return b.Client.EditMessageText(ctx, chatID, msgID, pairSelectedText(pair), TimeframeKeyboard(b.Timeframes))
}

// -----------------------------------------------------------------------------

func (b *Bot) onTimeframe(ctx context.Context, chatID, msgID int64, tf string) error {
	session, err := b.Store.GetSession(ctx, chatID)
	if err != nil {
		return err
	}
	if session == nil {
		return b.Client.EditMessageText(ctx, chatID, msgID, sessionExpiredText, RestartKeyboard("🔄 Start Again"))
	}
	pair := session.SelectedPair

	if err := b.Client.EditMessageText(ctx, chatID, msgID, analyzingText(pair, tf), nil); err != nil {
		b.Logger.Warning("Failed to show progress for %d: %v", chatID, err)
	}

	actx, cancel := context.WithTimeout(ctx, b.AnalysisTimeout)
	defer cancel()
	results, err := b.Analyzer.Analyze(actx, []string{pair}, tf, b.Engine)

	var text, button string
	switch {
	case err != nil:
		text, button = analysisFailedText(err), "🔄 Try Again"
	case len(results) == 0:
		text, button = analysisFailedText(fmt.Errorf("no results returned")), "🔄 Try Again"
	case !results[0].OK():
		text, button = analysisIssueText(pair, results[0].ErrorTag), "🔄 Try Another Pair"
	default:
		text, button = FormatReport(results[0].Report, b.Clock.OpenSessions(b.Now()), b.Now()), "🔄 New Analysis"
	}

	b.Logger.Info("Chat %d analyzed %s on %s", chatID, pair, tf)
	return b.Client.EditMessageText(ctx, chatID, msgID, text, RestartKeyboard(button))
}

// -----------------------------------------------------------------------------

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
