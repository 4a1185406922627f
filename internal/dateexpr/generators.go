package dateexpr

import (
	"fmt"
	"strings"
	"time"
)

func success(dates []string, description string) ToolResult {
	return ToolResult{Success: true, Dates: sortUnique(dates), Description: description}
}

func failure(format string, args ...any) ToolResult {
	return ToolResult{Success: false, Error: fmt.Sprintf(format, args...)}
}

// expandMonth returns every weekday of the resolved month. The dispatcher
// routes both expand_month and its documented alias expand_all_days here;
// seven-day expansion backs expand_weekends via monthAllDays.
func (e *Engine) expandMonth(today time.Time, period string) ToolResult {
	year, month := resolvePeriod(today, period)
	return success(e.monthWeekdays(year, month), fmt.Sprintf("weekdays of %s", monthLabel(year, month)))
}

// expandWeekends returns every Saturday and Sunday of the resolved month.
func (e *Engine) expandWeekends(today time.Time, period string) ToolResult {
	year, month := resolvePeriod(today, period)
	dates := make([]string, 0, 10)
	for day := 1; day <= daysInMonth(year, month); day++ {
		t := e.dayOfMonth(year, month, day)
		if !isWeekday(t) {
			dates = append(dates, formatDate(t))
		}
	}
	return success(dates, fmt.Sprintf("weekend days of %s", monthLabel(year, month)))
}

// expandWeeks returns the weekdays of the first or last count month-scoped
// weeks, where week k covers days [7(k-1)+1, 7k].
func (e *Engine) expandWeeks(today time.Time, period string, count int, position string) ToolResult {
	if count <= 0 {
		return failure("week count must be positive, got %d", count)
	}
	year, month := resolvePeriod(today, period)
	total := weeksInMonth(year, month)
	if count > total {
		count = total
	}

	first, last := 1, count
	if position == positionLast {
		first, last = total-count+1, total
	}
	dates := e.daysOf(year, month, (first-1)*7+1, last*7, false)
	return success(dates, fmt.Sprintf("%s %d weeks of %s", position, count, monthLabel(year, month)))
}

// expandWorkingDays returns the first or last count weekdays of the month.
func (e *Engine) expandWorkingDays(today time.Time, period string, count int, position string) ToolResult {
	if count <= 0 {
		return failure("working day count must be positive, got %d", count)
	}
	year, month := resolvePeriod(today, period)
	weekdays := e.monthWeekdays(year, month)
	if count > len(weekdays) {
		count = len(weekdays)
	}
	dates := weekdays[:count]
	if position == positionLast {
		dates = weekdays[len(weekdays)-count:]
	}
	return success(dates, fmt.Sprintf("%s %d working days of %s", position, count, monthLabel(year, month)))
}

// expandHalfMonth returns the weekdays of a calendar half: days 1-15 or day 16
// through month end.
func (e *Engine) expandHalfMonth(today time.Time, period, half string) ToolResult {
	year, month := resolvePeriod(today, period)
	from, to := 1, 15
	if half == "second" {
		from, to = 16, daysInMonth(year, month)
	}
	return success(e.daysOf(year, month, from, to, false), fmt.Sprintf("%s half of %s", half, monthLabel(year, month)))
}

// expandSpecificWeeks returns the weekdays of the requested month-scoped
// weeks. Negative numbers count from the end (-1 is the last week); zero is
// rejected, and out-of-range weeks contribute nothing.
func (e *Engine) expandSpecificWeeks(today time.Time, period string, weeks []int) ToolResult {
	year, month := resolvePeriod(today, period)
	total := weeksInMonth(year, month)
	dates := make([]string, 0)
	for _, week := range weeks {
		if week == 0 {
			return failure("week number 0 is not valid")
		}
		resolved, ok := normalizeIndex(week, total)
		if !ok {
			continue
		}
		dates = append(dates, e.daysOf(year, month, (resolved-1)*7+1, resolved*7, false)...)
	}
	return success(dates, fmt.Sprintf("selected weeks of %s", monthLabel(year, month)))
}

// expandDayOfWeek returns every occurrence of one named weekday in the month.
func (e *Engine) expandDayOfWeek(today time.Time, period, day string) ToolResult {
	wd, err := parseWeekday(day)
	if err != nil {
		return failure("%s", err)
	}
	year, month := resolvePeriod(today, period)
	dates := e.weekdayOccurrences(year, month, wd)
	return success(dates, fmt.Sprintf("every %s of %s", strings.ToLower(wd.String()), monthLabel(year, month)))
}

// expandMultipleDaysOfWeek returns every occurrence of the named weekdays.
func (e *Engine) expandMultipleDaysOfWeek(today time.Time, period string, days []string) ToolResult {
	set, err := parseWeekdaySet(days)
	if err != nil {
		return failure("%s", err)
	}
	year, month := resolvePeriod(today, period)
	dates := make([]string, 0)
	for day := 1; day <= daysInMonth(year, month); day++ {
		t := e.dayOfMonth(year, month, day)
		if _, ok := set[t.Weekday()]; ok {
			dates = append(dates, formatDate(t))
		}
	}
	return success(dates, fmt.Sprintf("selected weekdays of %s", monthLabel(year, month)))
}

// expandRangeDaysOfWeek returns occurrences of the named weekdays restricted
// to an inclusive day-of-month range.
func (e *Engine) expandRangeDaysOfWeek(today time.Time, period string, days []string, startDay, endDay int) ToolResult {
	set, err := parseWeekdaySet(days)
	if err != nil {
		return failure("%s", err)
	}
	year, month := resolvePeriod(today, period)
	startDay, endDay = clampRange(startDay, endDay, daysInMonth(year, month))
	dates := make([]string, 0)
	for day := startDay; day <= endDay; day++ {
		t := e.dayOfMonth(year, month, day)
		if _, ok := set[t.Weekday()]; ok {
			dates = append(dates, formatDate(t))
		}
	}
	return success(dates, fmt.Sprintf("selected weekdays in days %d-%d of %s", startDay, endDay, monthLabel(year, month)))
}

// expandRange returns the weekdays inside an inclusive day-of-month range,
// clamped to the month.
func (e *Engine) expandRange(today time.Time, period string, startDay, endDay int) ToolResult {
	year, month := resolvePeriod(today, period)
	startDay, endDay = clampRange(startDay, endDay, daysInMonth(year, month))
	return success(e.daysOf(year, month, startDay, endDay, false),
		fmt.Sprintf("weekdays in days %d-%d of %s", startDay, endDay, monthLabel(year, month)))
}

// expandMonthExceptRange returns the month's weekdays excluding a
// day-of-month range.
func (e *Engine) expandMonthExceptRange(today time.Time, period string, startDay, endDay int) ToolResult {
	year, month := resolvePeriod(today, period)
	startDay, endDay = clampRange(startDay, endDay, daysInMonth(year, month))
	dates := make([]string, 0)
	for day := 1; day <= daysInMonth(year, month); day++ {
		if day >= startDay && day <= endDay {
			continue
		}
		t := e.dayOfMonth(year, month, day)
		if isWeekday(t) {
			dates = append(dates, formatDate(t))
		}
	}
	return success(dates, fmt.Sprintf("weekdays of %s outside days %d-%d", monthLabel(year, month), startDay, endDay))
}

// expandRangeExceptDays returns the weekdays inside a day-of-month range minus
// the named weekdays.
func (e *Engine) expandRangeExceptDays(today time.Time, period string, startDay, endDay int, excludeDays []string) ToolResult {
	set, err := parseWeekdaySet(excludeDays)
	if err != nil {
		return failure("%s", err)
	}
	year, month := resolvePeriod(today, period)
	startDay, endDay = clampRange(startDay, endDay, daysInMonth(year, month))
	dates := make([]string, 0)
	for day := startDay; day <= endDay; day++ {
		t := e.dayOfMonth(year, month, day)
		if !isWeekday(t) {
			continue
		}
		if _, excluded := set[t.Weekday()]; excluded {
			continue
		}
		dates = append(dates, formatDate(t))
	}
	return success(dates, fmt.Sprintf("weekdays in days %d-%d of %s minus excluded weekdays", startDay, endDay, monthLabel(year, month)))
}

// Alternation modes. The two modes produce different sequences for the same
// range and are preserved as distinct contracts:
//   - calendar keeps every other calendar day (start, start+2, ...) and then
//     filters to weekdays;
//   - working keeps every other weekday by toggling across the weekday
//     sequence only.
const (
	alternateCalendar = "calendar"
	alternateWorking  = "working"
)

func (e *Engine) alternateDays(year int, month time.Month, startDay, endDay int, mode string) []string {
	dates := make([]string, 0)
	if mode == alternateCalendar {
		for day := startDay; day <= endDay; day += 2 {
			t := e.dayOfMonth(year, month, day)
			if isWeekday(t) {
				dates = append(dates, formatDate(t))
			}
		}
		return dates
	}

	keep := true
	for day := startDay; day <= endDay; day++ {
		t := e.dayOfMonth(year, month, day)
		if !isWeekday(t) {
			continue
		}
		if keep {
			dates = append(dates, formatDate(t))
		}
		keep = !keep
	}
	return dates
}

// expandAlternate returns alternating days across the whole month.
func (e *Engine) expandAlternate(today time.Time, period, mode string) ToolResult {
	year, month := resolvePeriod(today, period)
	dates := e.alternateDays(year, month, 1, daysInMonth(year, month), mode)
	return success(dates, fmt.Sprintf("alternate %s days of %s", mode, monthLabel(year, month)))
}

// expandRangeAlternate returns alternating days within a day-of-month range.
func (e *Engine) expandRangeAlternate(today time.Time, period string, startDay, endDay int, mode string) ToolResult {
	year, month := resolvePeriod(today, period)
	startDay, endDay = clampRange(startDay, endDay, daysInMonth(year, month))
	dates := e.alternateDays(year, month, startDay, endDay, mode)
	return success(dates, fmt.Sprintf("alternate %s days in days %d-%d of %s", mode, startDay, endDay, monthLabel(year, month)))
}

// expandExcept returns the month's weekdays minus one named weekday.
func (e *Engine) expandExcept(today time.Time, period, day string) ToolResult {
	wd, err := parseWeekday(day)
	if err != nil {
		return failure("%s", err)
	}
	year, month := resolvePeriod(today, period)
	dates := make([]string, 0)
	for _, date := range e.monthWeekdays(year, month) {
		t, _ := e.parseDate(date)
		if t.Weekday() == wd {
			continue
		}
		dates = append(dates, date)
	}
	return success(dates, fmt.Sprintf("weekdays of %s except %ss", monthLabel(year, month), strings.ToLower(wd.String())))
}

// expandMonthExceptWeeks returns the month's weekdays minus the requested
// month-scoped weeks (negative numbers count from the end).
func (e *Engine) expandMonthExceptWeeks(today time.Time, period string, weeks []int) ToolResult {
	year, month := resolvePeriod(today, period)
	total := weeksInMonth(year, month)
	excluded := make(map[int]struct{}, len(weeks))
	for _, week := range weeks {
		if week == 0 {
			return failure("week number 0 is not valid")
		}
		if resolved, ok := normalizeIndex(week, total); ok {
			excluded[resolved] = struct{}{}
		}
	}

	dates := make([]string, 0)
	for day := 1; day <= daysInMonth(year, month); day++ {
		if _, skip := excluded[weekOfDay(day)]; skip {
			continue
		}
		t := e.dayOfMonth(year, month, day)
		if isWeekday(t) {
			dates = append(dates, formatDate(t))
		}
	}
	return success(dates, fmt.Sprintf("weekdays of %s outside excluded weeks", monthLabel(year, month)))
}

// expandWeekdayPerWeek returns the first or last weekday falling inside the
// month for each Monday-anchored calendar week intersecting it.
func (e *Engine) expandWeekdayPerWeek(today time.Time, period, position string) ToolResult {
	year, month := resolvePeriod(today, period)
	first := e.dayOfMonth(year, month, 1)
	last := e.dayOfMonth(year, month, daysInMonth(year, month))

	dates := make([]string, 0, 6)
	for weekStart := mondayOf(first); !weekStart.After(last); weekStart = weekStart.AddDate(0, 0, 7) {
		var pick string
		for i := 0; i < 5; i++ {
			t := weekStart.AddDate(0, 0, i)
			if t.Month() != month || t.Year() != year {
				continue
			}
			if pick == "" || position == positionLast {
				pick = formatDate(t)
			}
			if position == positionFirst {
				break
			}
		}
		if pick != "" {
			dates = append(dates, pick)
		}
	}
	return success(dates, fmt.Sprintf("%s weekday of each week in %s", position, monthLabel(year, month)))
}

// weekdayOccurrences lists every date of the month falling on the given
// weekday, in chronological order.
func (e *Engine) weekdayOccurrences(year int, month time.Month, wd time.Weekday) []string {
	dates := make([]string, 0, 5)
	for day := 1; day <= daysInMonth(year, month); day++ {
		t := e.dayOfMonth(year, month, day)
		if t.Weekday() == wd {
			dates = append(dates, formatDate(t))
		}
	}
	return dates
}

// ordinalWeekday resolves the Nth occurrence of a named weekday in the month.
// Positive ordinals count from the month start, negative from the end.
func (e *Engine) ordinalWeekday(year int, month time.Month, day string, ordinal int) (time.Time, error) {
	wd, err := parseWeekday(day)
	if err != nil {
		return time.Time{}, err
	}
	occurrences := e.weekdayOccurrences(year, month, wd)
	idx, ok := normalizeIndex(ordinal, len(occurrences))
	if !ok {
		return time.Time{}, fmt.Errorf("no occurrence %d of %s in %s", ordinal, strings.ToLower(wd.String()), monthLabel(year, month))
	}
	return e.parseDate(occurrences[idx-1])
}

// expandOrdinalDayOfWeek resolves a single ordinal weekday occurrence.
func (e *Engine) expandOrdinalDayOfWeek(today time.Time, period, day string, ordinal int) ToolResult {
	year, month := resolvePeriod(today, period)
	t, err := e.ordinalWeekday(year, month, day, ordinal)
	if err != nil {
		return failure("%s", err)
	}
	return success([]string{formatDate(t)}, fmt.Sprintf("occurrence %d of %s in %s", ordinal, normalizeToken(day), monthLabel(year, month)))
}

// Anchor range directions.
const (
	directionOnAndAfter  = "on_and_after"
	directionOnAndBefore = "on_and_before"
	directionAfter       = "after"
	directionBefore      = "before"
	directionBetween     = "between"
)

// expandAnchorRange builds a weekday sub-range bounded by ordinal weekday
// anchors. The between direction requires a second anchor and normalizes the
// bounds so start <= end regardless of which anchor falls first.
func (e *Engine) expandAnchorRange(today time.Time, period, anchorDay string, anchorOccurrence int, direction string, endDay string, endOccurrence int, hasEnd bool) ToolResult {
	year, month := resolvePeriod(today, period)
	anchor, err := e.ordinalWeekday(year, month, anchorDay, anchorOccurrence)
	if err != nil {
		return failure("%s", err)
	}

	last := daysInMonth(year, month)
	from, to := 1, last
	switch direction {
	case directionOnAndAfter:
		from = anchor.Day()
	case directionAfter:
		from = anchor.Day() + 1
	case directionOnAndBefore:
		to = anchor.Day()
	case directionBefore:
		to = anchor.Day() - 1
	case directionBetween:
		if !hasEnd {
			return failure("direction %q requires end_day and end_occurrence", directionBetween)
		}
		second, err := e.ordinalWeekday(year, month, endDay, endOccurrence)
		if err != nil {
			return failure("%s", err)
		}
		from, to = anchor.Day(), second.Day()
		if from > to {
			from, to = to, from
		}
	}

	return success(e.daysOf(year, month, from, to, false),
		fmt.Sprintf("weekdays %s anchor in %s", direction, monthLabel(year, month)))
}

// expandNDaysFromOrdinal returns count working days starting at an ordinal
// weekday anchor, staying within the month.
func (e *Engine) expandNDaysFromOrdinal(today time.Time, period, day string, ordinal, count int) ToolResult {
	if count <= 0 {
		return failure("day count must be positive, got %d", count)
	}
	year, month := resolvePeriod(today, period)
	anchor, err := e.ordinalWeekday(year, month, day, ordinal)
	if err != nil {
		return failure("%s", err)
	}

	dates := make([]string, 0, count)
	for d := anchor.Day(); d <= daysInMonth(year, month) && len(dates) < count; d++ {
		t := e.dayOfMonth(year, month, d)
		if isWeekday(t) {
			dates = append(dates, formatDate(t))
		}
	}
	return success(dates, fmt.Sprintf("%d working days from occurrence %d of %s in %s", count, ordinal, normalizeToken(day), monthLabel(year, month)))
}

// expandEveryNth returns days start_day, start_day+n, start_day+2n, ...
// filtered to weekdays.
func (e *Engine) expandEveryNth(today time.Time, period string, startDay, interval int) ToolResult {
	if interval <= 0 {
		return failure("interval must be positive, got %d", interval)
	}
	year, month := resolvePeriod(today, period)
	if startDay < 1 {
		startDay = 1
	}
	dates := make([]string, 0)
	for day := startDay; day <= daysInMonth(year, month); day += interval {
		t := e.dayOfMonth(year, month, day)
		if isWeekday(t) {
			dates = append(dates, formatDate(t))
		}
	}
	return success(dates, fmt.Sprintf("every %d days from day %d of %s", interval, startDay, monthLabel(year, month)))
}

// expandWeekPeriod returns Monday through Friday of the current or next
// calendar week. The week may span a month boundary.
func (e *Engine) expandWeekPeriod(today time.Time, week string) ToolResult {
	start := mondayOf(today)
	if week == "next_week" {
		start = start.AddDate(0, 0, 7)
	}
	dates := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		dates = append(dates, formatDate(start.AddDate(0, 0, i)))
	}
	return success(dates, fmt.Sprintf("weekdays of %s", strings.ReplaceAll(week, "_", " ")))
}

// expandRestOfMonth returns the remaining weekdays of the current month,
// starting from tomorrow.
func (e *Engine) expandRestOfMonth(today time.Time) ToolResult {
	year, month := today.Year(), today.Month()
	dates := e.daysOf(year, month, today.Day()+1, daysInMonth(year, month), false)
	return success(dates, fmt.Sprintf("remaining weekdays of %s", monthLabel(year, month)))
}

func clampRange(from, to, last int) (int, int) {
	if from > to {
		from, to = to, from
	}
	if from < 1 {
		from = 1
	}
	if to > last {
		to = last
	}
	return from, to
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
