package telegram

import "strings"

// Callback data prefixes.
const (
	CallbackPair      = "pair_"
	CallbackTimeframe = "tf_"
	CallbackRestart   = "restart"
)

// PairKeyboard lays the pairs out two per row.
func PairKeyboard(pairs []string) *InlineKeyboardMarkup {
	var rows [][]InlineKeyboardButton
	for i := 0; i < len(pairs); i += 2 {
		row := []InlineKeyboardButton{{Text: pairs[i], CallbackData: CallbackPair + pairs[i]}}
		if i+1 < len(pairs) {
			row = append(row, InlineKeyboardButton{Text: pairs[i+1], CallbackData: CallbackPair + pairs[i+1]})
		}
		rows = append(rows, row)
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

// TimeframeKeyboard puts every timeframe on one row with upper-cased labels.
func TimeframeKeyboard(timeframes []string) *InlineKeyboardMarkup {
	row := make([]InlineKeyboardButton, 0, len(timeframes))
	for _, tf := range timeframes {
		row = append(row, InlineKeyboardButton{Text: strings.ToUpper(tf), CallbackData: CallbackTimeframe + tf})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{row}}
}

func RestartKeyboard(label string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{{Text: label, CallbackData: CallbackRestart}}}}
}
