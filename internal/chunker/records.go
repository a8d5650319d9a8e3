package chunker

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/openclaw/ragmem/internal/tokeniser"
)

// recordGroup accumulates consecutive records into one chunk.
type recordGroup struct {
	lines   []string
	authors map[string]struct{}
	dates   []string
}

// splitRecords groups a JSON export of timestamped, authored records
// into budget-bounded chunks, formatting each record as
// "[<date>] <author>: <text>". It accepts either a bare array of
// records or an object carrying the records under "messages" or
// "data". Returns ok=false for any shape it cannot interpret; the
// caller then falls back to prose splitting.
func splitRecords(text, sourceKey string, maxTokens int) ([]piece, bool) {
	var data any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, false
	}

	var (
		records []any
		channel string
	)
	switch v := data.(type) {
	case []any:
		records = v
		channel = strings.TrimSuffix(filepath.Base(sourceKey), ".json")
	case map[string]any:
		raw, ok := v["messages"]
		if !ok {
			raw = v["data"]
		}
		records, ok = raw.([]any)
		if !ok {
			return nil, false
		}
		channel = stringField(v, "channel", "name")
	default:
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}

	groups := groupRecords(records, maxTokens)
	if len(groups) == 0 {
		return nil, false
	}

	title := channel
	if title == "" {
		title = filepath.Base(sourceKey)
	}

	pieces := make([]piece, 0, len(groups))
	for _, g := range groups {
		pieces = append(pieces, piece{
			title: title,
			body:  strings.Join(g.lines, "\n"),
			extra: groupMetadata(channel, g),
		})
	}
	return pieces, true
}

// groupRecords formats each record and packs consecutive records into
// token-bounded groups.
func groupRecords(records []any, maxTokens int) []recordGroup {
	var (
		groups  []recordGroup
		current recordGroup
		tokens  int
	)

	for _, raw := range records {
		rec, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		text := stringField(rec, "text", "content")
		author := stringField(rec, "user", "username", "author")
		if author == "" {
			author = "unknown"
		}
		date := recordDate(rec)

		display := date
		if display == "" {
			display = "?"
		}
		line := fmt.Sprintf("[%s] %s: %s", display, author, text)
		lt := tokeniser.EstimateTokens(line)

		if len(current.lines) > 0 && tokens+lt > maxTokens {
			groups = append(groups, current)
			current = recordGroup{}
			tokens = 0
		}
		if current.authors == nil {
			current.authors = make(map[string]struct{})
		}
		current.lines = append(current.lines, line)
		current.authors[author] = struct{}{}
		if date != "" {
			current.dates = append(current.dates, date)
		}
		tokens += lt
	}
	if len(current.lines) > 0 {
		groups = append(groups, current)
	}

	return groups
}

// groupMetadata builds the extra header lines for a record chunk:
// channel, covered date range and the distinct author set.
func groupMetadata(channel string, g recordGroup) []string {
	var extra []string
	if channel != "" {
		extra = append(extra, "channel: "+channel)
	}
	if dr := dateRange(g.dates); dr != "" {
		extra = append(extra, "date_range: "+dr)
	}
	if len(g.authors) > 0 {
		authors := make([]string, 0, len(g.authors))
		for a := range g.authors {
			authors = append(authors, a)
		}
		sort.Strings(authors)
		extra = append(extra, "authors: "+strings.Join(authors, ", "))
	}
	return extra
}

// dateRange renders the covered dates as a single date or
// "<first> to <last>". ISO-prefixed dates sort chronologically.
func dateRange(dates []string) string {
	distinct := make([]string, 0, len(dates))
	seen := make(map[string]struct{})
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		distinct = append(distinct, d)
	}
	if len(distinct) == 0 {
		return ""
	}
	sort.Strings(distinct)
	if len(distinct) == 1 {
		return distinct[0]
	}
	return distinct[0] + " to " + distinct[len(distinct)-1]
}

// recordDate extracts the date prefix of a record timestamp. Accepts
// string timestamps and numeric Slack-style ones.
func recordDate(rec map[string]any) string {
	for _, key := range []string{"ts", "timestamp", "date"} {
		switch v := rec[key].(type) {
		case string:
			if v != "" {
				return truncate(v, 10)
			}
		case float64:
			return truncate(strconv.FormatFloat(v, 'f', -1, 64), 10)
		}
	}
	return ""
}

// stringField returns the first non-empty string value among keys.
func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
