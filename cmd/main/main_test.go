package main

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		mode    string
		api     bool
		bot     bool
		wantErr bool
	}{
		{"all", true, true, false},
		{"api", true, false, false},
		{"bot", false, true, false},
		{"worker", false, false, true},
		{"", false, false, true},
	}
	for _, tt := range tests {
		api, bot, err := parseMode(tt.mode)
		if (err != nil) != tt.wantErr || api != tt.api || bot != tt.bot {
			t.Errorf("parseMode(%q) = %v, %v, %v, want %v, %v (err %v)", tt.mode, api, bot, err, tt.api, tt.bot, tt.wantErr)
		}
	}
}
