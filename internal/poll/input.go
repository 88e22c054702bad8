package poll

import (
	"strconv"
	"strings"
)

// ParseRanking splits comma-delimited ranked input, trimming whitespace
// around each entry. "A, B ,C" becomes [A B C].
func ParseRanking(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, len(parts))
	for i, part := range parts {
		out[i] = strings.TrimSpace(part)
	}
	return out
}

// ParseDelay converts "0", "30s", "5m", "2h" or "1d" to seconds. It returns
// -1 for anything else.
func ParseDelay(input string) int64 {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "0" {
		return 0
	}
	if len(input) < 2 {
		return -1
	}

	n, err := strconv.ParseInt(input[:len(input)-1], 10, 64)
	if err != nil || n < 0 {
		return -1
	}

	switch input[len(input)-1] {
	case 's':
		return n
	case 'm':
		return n * 60
	case 'h':
		return n * 3600
	case 'd':
		return n * 86400
	default:
		return -1
	}
}
