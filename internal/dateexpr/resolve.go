package dateexpr

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var literalDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// resolveDates resolves a mixed list of explicit date tokens against today.
// Supported tokens: literal YYYY-MM-DD dates (validated as real calendar
// dates), "today", "tomorrow", "next <weekday>" (strictly after today),
// "this <weekday>" (current or next occurrence, never in the past) and bare
// weekday names (next occurrence, skipping today).
//
// Unrecognized tokens are collected into a single error listing every bad
// input. The result succeeds only when all tokens resolved; partially
// resolved dates are still returned for diagnostics.
func (e *Engine) resolveDates(today time.Time, tokens []string) ToolResult {
	resolved := make([]string, 0, len(tokens))
	unrecognized := make([]string, 0)

	for _, raw := range tokens {
		token := normalizeToken(raw)
		switch {
		case token == "":
			unrecognized = append(unrecognized, raw)
		case literalDatePattern.MatchString(token):
			t, err := e.parseDate(token)
			if err != nil {
				unrecognized = append(unrecognized, raw)
				continue
			}
			resolved = append(resolved, formatDate(t))
		case token == "today":
			resolved = append(resolved, formatDate(today))
		case token == "tomorrow":
			resolved = append(resolved, formatDate(today.AddDate(0, 0, 1)))
		case strings.HasPrefix(token, "next "):
			wd, err := parseWeekday(strings.TrimPrefix(token, "next "))
			if err != nil {
				unrecognized = append(unrecognized, raw)
				continue
			}
			resolved = append(resolved, formatDate(nextWeekday(today, wd, true)))
		case strings.HasPrefix(token, "this "):
			wd, err := parseWeekday(strings.TrimPrefix(token, "this "))
			if err != nil {
				unrecognized = append(unrecognized, raw)
				continue
			}
			resolved = append(resolved, formatDate(nextWeekday(today, wd, false)))
		default:
			wd, err := parseWeekday(token)
			if err != nil {
				unrecognized = append(unrecognized, raw)
				continue
			}
			resolved = append(resolved, formatDate(nextWeekday(today, wd, true)))
		}
	}

	result := ToolResult{
		Success:     len(unrecognized) == 0,
		Dates:       sortUnique(resolved),
		Description: fmt.Sprintf("%d explicit dates", len(tokens)),
	}
	if len(unrecognized) > 0 {
		result.Error = fmt.Sprintf("unrecognized date inputs: %s", strings.Join(unrecognized, ", "))
	}
	return result
}

// nextWeekday returns the next occurrence of wd on or after today. When
// strict is true, today itself never qualifies.
func nextWeekday(today time.Time, wd time.Weekday, strict bool) time.Time {
	offset := (int(wd) - int(today.Weekday()) + 7) % 7
	if offset == 0 && strict {
		offset = 7
	}
	return today.AddDate(0, 0, offset)
}
