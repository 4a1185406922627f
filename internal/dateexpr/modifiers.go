package dateexpr

import (
	"fmt"
	"sort"
)

// Modifier type names accepted by the pipeline.
const (
	ModifierExcludeDates            = "exclude_dates"
	ModifierExcludeDaysOfWeek       = "exclude_days_of_week"
	ModifierExcludeRange            = "exclude_range"
	ModifierExcludeWeeks            = "exclude_weeks"
	ModifierExcludeWorkingDaysCount = "exclude_working_days_count"
	ModifierExcludeHolidays         = "exclude_holidays"
	ModifierFilterDaysOfWeek        = "filter_days_of_week"
	ModifierFilterRange             = "filter_range"
	ModifierFilterWeekdaySlice      = "filter_weekday_slice"
)

// applyModifier transforms a date set with one modifier. A malformed modifier
// returns an error and the caller keeps the set unchanged, so pipelines
// degrade instead of aborting.
func (e *Engine) applyModifier(dates []string, mod Modifier, execCtx ExecContext) ([]string, error) {
	schema, ok := modifierSchemas[mod.Type]
	if !ok {
		return nil, fmt.Errorf("unknown modifier %q", mod.Type)
	}
	if err := validateParams("modifier "+mod.Type, mod.Params, schema); err != nil {
		return nil, err
	}
	p := params(mod.Params)

	switch mod.Type {
	case ModifierExcludeDates:
		return e.excludeDates(dates, p.stringList("dates")), nil
	case ModifierExcludeDaysOfWeek:
		return e.filterByWeekday(dates, p.stringList("days"), false)
	case ModifierExcludeRange:
		return e.filterByDayRange(dates, p.integer("start_day"), p.integer("end_day"), false), nil
	case ModifierExcludeWeeks:
		return e.excludeWeeks(dates, p.intList("weeks"))
	case ModifierExcludeWorkingDaysCount:
		return e.excludeWorkingDaysCount(dates, p.integer("count"), p.str("position"))
	case ModifierExcludeHolidays:
		return e.excludeHolidays(dates, execCtx.Holidays), nil
	case ModifierFilterDaysOfWeek:
		return e.filterByWeekday(dates, p.stringList("days"), true)
	case ModifierFilterRange:
		return e.filterByDayRange(dates, p.integer("start_day"), p.integer("end_day"), true), nil
	case ModifierFilterWeekdaySlice:
		return e.filterWeekdaySlice(dates, p.integer("count"), p.str("position"))
	}
	return nil, fmt.Errorf("unknown modifier %q", mod.Type)
}

func (e *Engine) excludeDates(dates, toRemove []string) []string {
	removed := make(map[string]struct{}, len(toRemove))
	for _, d := range toRemove {
		removed[d] = struct{}{}
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, skip := removed[d]; skip {
			continue
		}
		out = append(out, d)
	}
	return out
}

// filterByWeekday keeps (or removes) dates falling on the named weekdays.
func (e *Engine) filterByWeekday(dates []string, days []string, keep bool) ([]string, error) {
	set, err := parseWeekdaySet(days)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		t, perr := e.parseDate(d)
		if perr != nil {
			continue
		}
		_, match := set[t.Weekday()]
		if match == keep {
			out = append(out, d)
		}
	}
	return out, nil
}

// filterByDayRange keeps (or removes) dates whose day of month falls in the
// inclusive range.
func (e *Engine) filterByDayRange(dates []string, startDay, endDay int, keep bool) []string {
	if startDay > endDay {
		startDay, endDay = endDay, startDay
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		t, err := e.parseDate(d)
		if err != nil {
			continue
		}
		in := t.Day() >= startDay && t.Day() <= endDay
		if in == keep {
			out = append(out, d)
		}
	}
	return out
}

// excludeWeeks removes dates by month-scoped week number, resolving negative
// numbers against each date's own month.
func (e *Engine) excludeWeeks(dates []string, weeks []int) ([]string, error) {
	for _, week := range weeks {
		if week == 0 {
			return nil, fmt.Errorf("week number 0 is not valid")
		}
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		t, err := e.parseDate(d)
		if err != nil {
			continue
		}
		total := weeksInMonth(t.Year(), t.Month())
		excluded := false
		for _, week := range weeks {
			if resolved, ok := normalizeIndex(week, total); ok && resolved == weekOfDay(t.Day()) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, d)
		}
	}
	return out, nil
}

// excludeWorkingDaysCount drops the first or last count weekdays within the
// current set. Non-weekday members are kept untouched.
func (e *Engine) excludeWorkingDaysCount(dates []string, count int, position string) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	sorted := sortUnique(dates)
	weekdayIdx := make([]int, 0, len(sorted))
	for i, d := range sorted {
		t, err := e.parseDate(d)
		if err != nil {
			continue
		}
		if isWeekday(t) {
			weekdayIdx = append(weekdayIdx, i)
		}
	}

	if count > len(weekdayIdx) {
		count = len(weekdayIdx)
	}
	drop := make(map[int]struct{}, count)
	if position == positionLast {
		for _, i := range weekdayIdx[len(weekdayIdx)-count:] {
			drop[i] = struct{}{}
		}
	} else {
		for _, i := range weekdayIdx[:count] {
			drop[i] = struct{}{}
		}
	}

	out := make([]string, 0, len(sorted))
	for i, d := range sorted {
		if _, skip := drop[i]; skip {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (e *Engine) excludeHolidays(dates []string, holidays map[string]struct{}) []string {
	if len(holidays) == 0 {
		return dates
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, skip := holidays[d]; skip {
			continue
		}
		out = append(out, d)
	}
	return out
}

// filterWeekdaySlice groups the set by Monday-anchored calendar week and keeps
// the first or last count dates of each group.
func (e *Engine) filterWeekdaySlice(dates []string, count int, position string) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	groups := make(map[string][]string)
	for _, d := range sortUnique(dates) {
		t, err := e.parseDate(d)
		if err != nil {
			continue
		}
		key := formatDate(mondayOf(t))
		groups[key] = append(groups[key], d)
	}

	out := make([]string, 0, len(dates))
	for _, group := range groups {
		kept := group
		if count < len(group) {
			if position == positionLast {
				kept = group[len(group)-count:]
			} else {
				kept = group[:count]
			}
		}
		out = append(out, kept...)
	}
	sort.Strings(out)
	return out, nil
}
