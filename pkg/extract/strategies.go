package extract

import (
	"context"
	"regexp"
	"strings"

	"liscraper/pkg/browser"
)

// Strategy produces a candidate value from a feed item. An empty string
// means the strategy found nothing.
type Strategy func(ctx context.Context, item browser.Element) (string, error)

// FirstText returns the first non-empty result of strategies, in order.
// A failing strategy is treated as finding nothing. The error is non-nil
// only when every strategy failed.
func FirstText(ctx context.Context, item browser.Element, strategies ...Strategy) (string, error) {
	var lastErr error
	failures := 0
	for _, s := range strategies {
		text, err := s(ctx, item)
		if err != nil {
			lastErr = err
			failures++
			continue
		}
		if text != "" {
			return text, nil
		}
	}
	if failures > 0 && failures == len(strategies) {
		return "", lastErr
	}
	return "", nil
}

// BySelector returns the trimmed text of the first element matching selector.
func BySelector(selector string) Strategy {
	return func(ctx context.Context, item browser.Element) (string, error) {
		elems, err := item.QueryAll(ctx, selector)
		if err != nil || len(elems) == 0 {
			return "", err
		}
		text, err := elems[0].Text(ctx)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	}
}

// BySelectors builds one BySelector strategy per selector.
func BySelectors(selectors []string) []Strategy {
	out := make([]Strategy, 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, BySelector(sel))
	}
	return out
}

// Map applies fn to a strategy's result.
func Map(s Strategy, fn func(string) string) Strategy {
	return func(ctx context.Context, item browser.Element) (string, error) {
		text, err := s(ctx, item)
		if err != nil || text == "" {
			return text, err
		}
		return fn(text), nil
	}
}

// FilteredFullText is the last-resort content strategy: the item's whole
// text with noise lines removed.
func FilteredFullText(ctx context.Context, item browser.Element) (string, error) {
	text, err := item.Text(ctx)
	if err != nil {
		return "", err
	}
	return FilterNoiseLines(strings.TrimSpace(text)), nil
}

// CutAt keeps the part of s before sep, on one line.
func CutAt(sep string) func(string) string {
	return func(s string) string {
		before, _, _ := strings.Cut(s, sep)
		return strings.Join(strings.Fields(before), " ")
	}
}

var countToken = regexp.MustCompile(`\d[\d,.]*[KkMm]?`)

// CountToken extracts the first number in s ("1,204 reactions" -> "1,204").
func CountToken(s string) string {
	return countToken.FindString(s)
}

var fallbackCounters = map[string]*regexp.Regexp{
	"likes":    regexp.MustCompile(`(\d+)\s+like`),
	"comments": regexp.MustCompile(`(\d+)\s+comment`),
	"shares":   regexp.MustCompile(`(\d+)\s+share`),
}

// countFromText finds "<n> <keyword>" in lowercased text.
func countFromText(text, metric string) string {
	if m := fallbackCounters[metric].FindStringSubmatch(strings.ToLower(text)); m != nil {
		return m[1]
	}
	return ""
}
