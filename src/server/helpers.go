package server

import "strings"

// splitPairs turns "eurusd, GBPUSD,," into [EURUSD GBPUSD].
func splitPairs(raw string) []string {
	var pairs []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}
