package telegram

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"forex-signal-bot/src/models"
)

const maxReasons = 4

const (
	welcomeText = "🚀 <b>Welcome to AI Forex Bot!</b> 🚀\n\n" +
		"Get professional forex analysis with:\n" +
		"📈 Technical indicators (RSI, MACD, EMA)\n" +
		"📊 Pattern recognition (double tops/bottoms)\n" +
		"🎯 Calculated Stop Loss &amp; Take Profit\n" +
		"⚡ Risk/Reward ratios\n\n" +
		"<b>Step 1:</b> Choose a trading pair to analyze:"

	restartText = "🔄 <b>Starting New Analysis</b>\n\n" +
		"<b>Step 1:</b> Choose a trading pair to analyze:"

	sessionExpiredText = "⌛ <b>Session expired</b>\n\n" +
		"Your pair selection was not found. Please start again."

	unknownCommandText = "Use /start to begin a new analysis."

	unexpectedErrorText = "❌ <b>An unexpected error occurred!</b>\n\nPlease try again with /start"
)

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// -----------------------------------------------------------------------------

func pairSelectedText(pair string) string {
	return fmt.Sprintf("✅ <b>Selected Pair:</b> %s\n\n<b>Step 2:</b> Choose analysis timeframe:", html.EscapeString(pair))
}

func analyzingText(pair, tf string) string {
	return fmt.Sprintf("🔄 <b>Analyzing %s on %s timeframe</b>\n\n"+
		"⏳ Fetching live market data...\n"+
		"📊 Running technical analysis...",
		html.EscapeString(pair), html.EscapeString(strings.ToUpper(tf)))
}

func analysisIssueText(pair, errTag string) string {
	return fmt.Sprintf("⚠️ <b>Analysis Issue</b>\n\n"+
		"<b>Pair:</b> %s\n"+
		"<b>Error:</b> %s\n\n"+
		"This usually means insufficient market data.",
		html.EscapeString(pair), html.EscapeString(errTag))
}

func analysisFailedText(err error) string {
	return fmt.Sprintf("❌ <b>Analysis Failed</b>\n\n<b>Error:</b> %s\n\nPlease try again.", html.EscapeString(err.Error()))
}

// -----------------------------------------------------------------------------

func signalStyle(d models.Direction) (emoji, text string) {
	switch d {
	case models.DirectionBuy:
		return "🟢", "BUY SIGNAL"
	case models.DirectionSell:
		return "🔴", "SELL SIGNAL"
	case models.DirectionHold:
		return "🟡", "HOLD POSITION"
	default:
		return "🟡", strings.ToUpper(string(d))
	}
}

// -----------------------------------------------------------------------------

// FormatReport renders a report as an HTML Bot API message.
func FormatReport(r *models.MSignalReport, openSessions []string, at time.Time) string {
	emoji, signal := signalStyle(r.Direction)

	var b strings.Builder
	fmt.Fprintf(&b, "%s <b>FOREX ANALYSIS</b> %s\n\n", emoji, emoji)
	fmt.Fprintf(&b, "📈 <b>Pair:</b> %s\n", html.EscapeString(r.Pair))
	fmt.Fprintf(&b, "⚡ <b>Signal:</b> <b>%s</b>\n", html.EscapeString(signal))
	fmt.Fprintf(&b, "💰 <b>Entry Price:</b> %s\n", num(r.Entry))
	fmt.Fprintf(&b, "🎯 <b>Confidence:</b> %s%%\n", num(r.Confidence))

	if r.StopLoss != nil && r.TakeProfit != nil {
		b.WriteString("\n<b>📊 Risk Management:</b>\n")
		fmt.Fprintf(&b, "🛑 <b>Stop Loss:</b> %s\n", num(*r.StopLoss))
		fmt.Fprintf(&b, "🎯 <b>Take Profit:</b> %s\n", num(*r.TakeProfit))
		fmt.Fprintf(&b, "📏 <b>SL Distance:</b> %s pips\n", num(r.SLPips))
		fmt.Fprintf(&b, "📏 <b>TP Distance:</b> %s pips\n", num(r.TPPips))
		fmt.Fprintf(&b, "⚖️ <b>Risk:Reward:</b> 1:%s\n", num(r.RR))
	}

	if len(r.Reasons) > 0 {
		b.WriteString("\n<b>📋 Technical Analysis:</b>\n")
		reasons := r.Reasons
		if len(reasons) > maxReasons {
			reasons = reasons[:maxReasons]
		}
		for _, reason := range reasons {
			fmt.Fprintf(&b, "• %s\n", html.EscapeString(reason))
		}
	}

	sessions := "none (FX market closed)"
	if len(openSessions) > 0 {
		sessions = strings.Join(openSessions, ", ")
	}
	fmt.Fprintf(&b, "\n🌍 <b>Open Sessions:</b> %s\n", html.EscapeString(sessions))
	fmt.Fprintf(&b, "⏰ <b>Analysis Time:</b> %s", at.Format("15:04:05"))

	return b.String()
}
