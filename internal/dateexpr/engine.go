// Package dateexpr expands typed date instructions into concrete calendar
// dates and applies ordered modifier pipelines to the result.
//
// The package is the deterministic half of the Workbot assistant: an external
// classifier turns free text into a ToolCall plus optional Modifiers, and the
// Engine here turns that instruction into a deduplicated, ascending list of
// YYYY-MM-DD dates. All functions are pure; the caller supplies "today" and
// any holiday set explicitly.
//
// Negative index convention: week numbers and ordinal weekday occurrences both
// accept negative integers meaning "counted from the end" (-1 is the last
// week, or the last occurrence). The convention is centralized in
// normalizeIndex and shared by expand_specific_weeks, expand_month_except_weeks,
// expand_ordinal_day_of_week and expand_anchor_range.
package dateexpr

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the canonical calendar date representation. Lexicographic
// order of dates in this layout equals chronological order.
const DateLayout = "2006-01-02"

var ist = time.FixedZone("IST", 5*3600+30*60)

// Engine resolves date instructions in a single civil timezone.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that performs all date arithmetic in the
// provided location. If loc is nil, IST (Asia/Kolkata) is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = ist
	}
	return &Engine{location: loc}
}

// Location returns the civil timezone the engine computes dates in.
func (e *Engine) Location() *time.Location {
	if e == nil || e.location == nil {
		return ist
	}
	return e.location
}

// ToolCall is a typed date-expansion instruction produced by the external
// classifier. Params are validated against the tool's schema before any
// generator runs.
type ToolCall struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

// Modifier is an ordered set-transforming operator applied to a generator's
// output. Order is significant: filter-then-exclude differs from
// exclude-then-filter when ranges overlap.
type Modifier struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// ToolResult is the outcome of a single generator run.
type ToolResult struct {
	Success     bool     `json:"success"`
	Dates       []string `json:"dates"`
	Description string   `json:"description"`
	Error       string   `json:"error,omitempty"`
}

// PipelineResult is a generator result after the modifier pipeline has been
// applied. ModifierErrors collects non-fatal failures; an empty list means a
// clean run.
type PipelineResult struct {
	ToolResult
	ModifierErrors []string `json:"modifier_errors,omitempty"`
}

// ExecContext carries caller-supplied data some modifiers need, such as the
// holiday set for exclude_holidays.
type ExecContext struct {
	Holidays map[string]struct{}
}

// Period references supported by the resolver.
const (
	PeriodThisMonth = "this_month"
	PeriodNextMonth = "next_month"
)

// resolvePeriod maps a relative period reference onto a concrete year and
// month. The period string is validated upstream by the dispatcher, so only
// the two known values reach this function.
func resolvePeriod(today time.Time, period string) (int, time.Month) {
	year, month := today.Year(), today.Month()
	if period == PeriodNextMonth {
		if month == time.December {
			return year + 1, time.January
		}
		return year, month + 1
	}
	return year, month
}

func (e *Engine) parseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, e.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func weeksInMonth(year int, month time.Month) int {
	return (daysInMonth(year, month) + 6) / 7
}

// weekOfDay maps a day of month onto the month-scoped week number, where week
// k covers days [7(k-1)+1, 7k].
func weekOfDay(day int) int {
	return (day-1)/7 + 1
}

// normalizeIndex resolves a possibly negative 1-based index against a total.
// Zero is never valid; out-of-range indexes report ok=false.
func normalizeIndex(idx, total int) (int, bool) {
	if idx == 0 {
		return 0, false
	}
	if idx < 0 {
		idx = total + idx + 1
	}
	if idx < 1 || idx > total {
		return 0, false
	}
	return idx, true
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sun":       time.Sunday,
	"mon":       time.Monday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"wed":       time.Wednesday,
	"thu":       time.Thursday,
	"thur":      time.Thursday,
	"thurs":     time.Thursday,
	"fri":       time.Friday,
	"sat":       time.Saturday,
}

func parseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdayNames[normalizeToken(name)]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", name)
	}
	return wd, nil
}

func parseWeekdaySet(names []string) (map[time.Weekday]struct{}, error) {
	set := make(map[time.Weekday]struct{}, len(names))
	for _, name := range names {
		wd, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		set[wd] = struct{}{}
	}
	return set, nil
}

// mondayOf returns the Monday of the calendar week containing t.
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func (e *Engine) dayOfMonth(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, e.Location())
}

// daysOf collects the formatted dates of a day-of-month range, optionally
// keeping weekend days.
func (e *Engine) daysOf(year int, month time.Month, from, to int, includeWeekends bool) []string {
	last := daysInMonth(year, month)
	if from < 1 {
		from = 1
	}
	if to > last {
		to = last
	}
	dates := make([]string, 0, to-from+1)
	for day := from; day <= to; day++ {
		t := e.dayOfMonth(year, month, day)
		if !includeWeekends && !isWeekday(t) {
			continue
		}
		dates = append(dates, formatDate(t))
	}
	return dates
}

func (e *Engine) monthWeekdays(year int, month time.Month) []string {
	return e.daysOf(year, month, 1, daysInMonth(year, month), false)
}

func (e *Engine) monthAllDays(year int, month time.Month) []string {
	return e.daysOf(year, month, 1, daysInMonth(year, month), true)
}

func sortUnique(dates []string) []string {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func monthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}
