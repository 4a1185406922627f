package dateexpr

import (
	"fmt"
	"time"
)

// RunTool validates a tool call and routes it to the matching generator.
// Parameter validation failures, semantic resolution failures and unexpected
// panics all surface as a failed ToolResult; the caller never sees a crash.
func (e *Engine) RunTool(call ToolCall, today string) (result ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failure("tool execution error: %s", call.Tool)
		}
	}()

	now, err := e.parseDate(today)
	if err != nil {
		return failure("%s", err)
	}

	schema, known := toolSchemas[call.Tool]
	if !known {
		return failure("unknown tool %q", call.Tool)
	}
	if err := validateParams(call.Tool, call.Params, schema); err != nil {
		return failure("%s", err)
	}
	p := params(call.Params)

	switch call.Tool {
	case ToolResolveDates:
		return e.resolveDates(now, p.stringList("dates"))
	case ToolExpandMonth, ToolExpandAllDays:
		// expand_all_days is a documented alias for the weekday expansion.
		return e.expandMonth(now, p.period())
	case ToolExpandWeekends:
		return e.expandWeekends(now, p.period())
	case ToolExpandWeeks:
		return e.expandWeeks(now, p.period(), p.integer("count"), p.str("position"))
	case ToolExpandWorkingDays:
		return e.expandWorkingDays(now, p.period(), p.integer("count"), p.str("position"))
	case ToolExpandHalfMonth:
		return e.expandHalfMonth(now, p.period(), p.str("half"))
	case ToolExpandSpecificWeeks:
		return e.expandSpecificWeeks(now, p.period(), p.intList("weeks"))
	case ToolExpandDayOfWeek:
		return e.expandDayOfWeek(now, p.period(), p.str("day"))
	case ToolExpandMultipleDays:
		return e.expandMultipleDaysOfWeek(now, p.period(), p.stringList("days"))
	case ToolExpandRangeDaysOfWeek:
		return e.expandRangeDaysOfWeek(now, p.period(), p.stringList("days"), p.integer("start_day"), p.integer("end_day"))
	case ToolExpandRange:
		return e.expandRange(now, p.period(), p.integer("start_day"), p.integer("end_day"))
	case ToolExpandMonthExceptRange:
		return e.expandMonthExceptRange(now, p.period(), p.integer("start_day"), p.integer("end_day"))
	case ToolExpandRangeExceptDays:
		return e.expandRangeExceptDays(now, p.period(), p.integer("start_day"), p.integer("end_day"), p.stringList("exclude_days"))
	case ToolExpandRangeAlternate:
		return e.expandRangeAlternate(now, p.period(), p.integer("start_day"), p.integer("end_day"), p.str("mode"))
	case ToolExpandAlternate:
		return e.expandAlternate(now, p.period(), p.str("mode"))
	case ToolExpandExcept:
		return e.expandExcept(now, p.period(), p.str("day"))
	case ToolExpandMonthExceptWeeks:
		return e.expandMonthExceptWeeks(now, p.period(), p.intList("weeks"))
	case ToolExpandFirstWeekdayWeek:
		return e.expandWeekdayPerWeek(now, p.period(), positionFirst)
	case ToolExpandLastWeekdayWeek:
		return e.expandWeekdayPerWeek(now, p.period(), positionLast)
	case ToolExpandOrdinalDayOfWeek:
		return e.expandOrdinalDayOfWeek(now, p.period(), p.str("day"), p.integer("ordinal"))
	case ToolExpandAnchorRange:
		hasEnd := p.has("end_day") && p.has("end_occurrence")
		return e.expandAnchorRange(now, p.period(), p.str("anchor_day"), p.integer("anchor_occurrence"),
			p.str("direction"), p.str("end_day"), p.integer("end_occurrence"), hasEnd)
	case ToolExpandNDaysFromOrdinal:
		return e.expandNDaysFromOrdinal(now, p.period(), p.str("day"), p.integer("ordinal"), p.integer("count"))
	case ToolExpandEveryNth:
		return e.expandEveryNth(now, p.period(), p.integer("start_day"), p.integer("interval"))
	case ToolExpandWeekPeriod:
		return e.expandWeekPeriod(now, p.str("week"))
	case ToolExpandRestOfMonth:
		return e.expandRestOfMonth(now)
	}

	return failure("unknown tool %q", call.Tool)
}

// Execute composes a generator with its modifier pipeline. A failed generator
// short-circuits; modifier failures are collected without stopping, each
// failed modifier leaving the date set unchanged.
func (e *Engine) Execute(call ToolCall, modifiers []Modifier, today string, execCtx ExecContext) PipelineResult {
	result := e.RunTool(call, today)
	if !result.Success {
		return PipelineResult{ToolResult: result}
	}

	dates := result.Dates
	var modifierErrors []string
	for _, mod := range modifiers {
		next, err := e.safeApplyModifier(dates, mod, execCtx)
		if err != nil {
			modifierErrors = append(modifierErrors, err.Error())
			continue
		}
		dates = next
	}

	result.Dates = sortUnique(dates)
	return PipelineResult{ToolResult: result, ModifierErrors: modifierErrors}
}

func (e *Engine) safeApplyModifier(dates []string, mod Modifier, execCtx ExecContext) (out []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("modifier execution error: %s", mod.Type)
		}
	}()
	return e.applyModifier(dates, mod, execCtx)
}

// Today formats a reference instant as a calendar date in the engine's zone.
func (e *Engine) Today(now time.Time) string {
	return formatDate(now.In(e.Location()))
}
