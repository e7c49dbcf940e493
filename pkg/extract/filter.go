package extract

import "strings"

// Lines mentioning these words are engagement or header chrome, not body text.
var chromeKeywords = []string{"likes", "comments", "repost", "shared", "following"}

// Short lines mentioning these are usually relative timestamps ("3 days ago").
var timeTokens = []string{"min", "hour", "day", "week", "month", "year"}

// shortLine is the length below which a line with a time token is dropped.
const shortLine = 30

// FilterNoiseLines removes engagement counters, follow prompts and timestamp
// lines from an item's full text, keeping the remaining lines in order.
func FilterNoiseLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if isNoise(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isNoise(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range chromeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if len([]rune(line)) < shortLine {
		for _, tok := range timeTokens {
			if strings.Contains(lower, tok) {
				return true
			}
		}
	}
	return false
}
