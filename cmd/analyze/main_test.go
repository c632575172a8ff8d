package main

import (
	"reflect"
	"testing"
)

func TestParsePairs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"eurusd, GBPUSD ,,usdjpy", []string{"EURUSD", "GBPUSD", "USDJPY"}},
		{"", nil},
		{" , ", nil},
	}
	for _, tt := range tests {
		if got := parsePairs(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parsePairs(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
