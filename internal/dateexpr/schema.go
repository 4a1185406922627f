package dateexpr

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Tool names accepted by the dispatcher. The set is closed: the dispatcher
// switch covers every name and anything else fails validation.
const (
	ToolResolveDates            = "resolve_dates"
	ToolExpandMonth             = "expand_month"
	ToolExpandAllDays           = "expand_all_days"
	ToolExpandWeekends          = "expand_weekends"
	ToolExpandWeeks             = "expand_weeks"
	ToolExpandWorkingDays       = "expand_working_days"
	ToolExpandHalfMonth         = "expand_half_month"
	ToolExpandSpecificWeeks     = "expand_specific_weeks"
	ToolExpandDayOfWeek         = "expand_day_of_week"
	ToolExpandMultipleDays      = "expand_multiple_days_of_week"
	ToolExpandRangeDaysOfWeek   = "expand_range_days_of_week"
	ToolExpandRange             = "expand_range"
	ToolExpandMonthExceptRange  = "expand_month_except_range"
	ToolExpandRangeExceptDays   = "expand_range_except_days"
	ToolExpandRangeAlternate    = "expand_range_alternate"
	ToolExpandAlternate         = "expand_alternate"
	ToolExpandExcept            = "expand_except"
	ToolExpandMonthExceptWeeks  = "expand_month_except_weeks"
	ToolExpandFirstWeekdayWeek  = "expand_first_weekday_per_week"
	ToolExpandLastWeekdayWeek   = "expand_last_weekday_per_week"
	ToolExpandOrdinalDayOfWeek  = "expand_ordinal_day_of_week"
	ToolExpandAnchorRange       = "expand_anchor_range"
	ToolExpandNDaysFromOrdinal  = "expand_n_days_from_ordinal"
	ToolExpandEveryNth          = "expand_every_nth"
	ToolExpandWeekPeriod        = "expand_week_period"
	ToolExpandRestOfMonth       = "expand_rest_of_month"
)

const (
	positionFirst = "first"
	positionLast  = "last"
)

type paramKind int

const (
	kindString paramKind = iota
	kindInt
	kindStringList
	kindIntList
)

func (k paramKind) String() string {
	switch k {
	case kindString:
		return "a string"
	case kindInt:
		return "an integer"
	case kindStringList:
		return "an array of strings"
	case kindIntList:
		return "an array of integers"
	}
	return "a value"
}

// paramSpec declares one parameter of a tool or modifier schema.
type paramSpec struct {
	name     string
	kind     paramKind
	required bool
	enum     []string
}

func p(name string, kind paramKind, required bool, enum ...string) paramSpec {
	return paramSpec{name: name, kind: kind, required: required, enum: enum}
}

var periodEnum = []string{PeriodThisMonth, PeriodNextMonth}
var positionEnum = []string{positionFirst, positionLast}
var alternateEnum = []string{alternateCalendar, alternateWorking}
var directionEnum = []string{directionOnAndAfter, directionOnAndBefore, directionAfter, directionBefore, directionBetween}
var halfEnum = []string{"first", "second"}
var weekPeriodEnum = []string{"this_week", "next_week"}

func period() paramSpec { return p("period", kindString, false, periodEnum...) }

// toolSchemas declares the published instruction contract: parameter names,
// types and enum memberships per tool. Validation runs before any generator.
var toolSchemas = map[string][]paramSpec{
	ToolResolveDates:           {p("dates", kindStringList, true)},
	ToolExpandMonth:            {period()},
	ToolExpandAllDays:          {period()},
	ToolExpandWeekends:         {period()},
	ToolExpandWeeks:            {period(), p("count", kindInt, true), p("position", kindString, true, positionEnum...)},
	ToolExpandWorkingDays:      {period(), p("count", kindInt, true), p("position", kindString, true, positionEnum...)},
	ToolExpandHalfMonth:        {period(), p("half", kindString, true, halfEnum...)},
	ToolExpandSpecificWeeks:    {period(), p("weeks", kindIntList, true)},
	ToolExpandDayOfWeek:        {period(), p("day", kindString, true)},
	ToolExpandMultipleDays:     {period(), p("days", kindStringList, true)},
	ToolExpandRangeDaysOfWeek:  {period(), p("days", kindStringList, true), p("start_day", kindInt, true), p("end_day", kindInt, true)},
	ToolExpandRange:            {period(), p("start_day", kindInt, true), p("end_day", kindInt, true)},
	ToolExpandMonthExceptRange: {period(), p("start_day", kindInt, true), p("end_day", kindInt, true)},
	ToolExpandRangeExceptDays:  {period(), p("start_day", kindInt, true), p("end_day", kindInt, true), p("exclude_days", kindStringList, true)},
	ToolExpandRangeAlternate:   {period(), p("start_day", kindInt, true), p("end_day", kindInt, true), p("mode", kindString, true, alternateEnum...)},
	ToolExpandAlternate:        {period(), p("mode", kindString, true, alternateEnum...)},
	ToolExpandExcept:           {period(), p("day", kindString, true)},
	ToolExpandMonthExceptWeeks: {period(), p("weeks", kindIntList, true)},
	ToolExpandFirstWeekdayWeek: {period()},
	ToolExpandLastWeekdayWeek:  {period()},
	ToolExpandOrdinalDayOfWeek: {period(), p("day", kindString, true), p("ordinal", kindInt, true)},
	ToolExpandAnchorRange: {
		period(),
		p("anchor_day", kindString, true),
		p("anchor_occurrence", kindInt, true),
		p("direction", kindString, true, directionEnum...),
		p("end_day", kindString, false),
		p("end_occurrence", kindInt, false),
	},
	ToolExpandNDaysFromOrdinal: {period(), p("day", kindString, true), p("ordinal", kindInt, true), p("count", kindInt, true)},
	ToolExpandEveryNth:         {period(), p("start_day", kindInt, true), p("interval", kindInt, true)},
	ToolExpandWeekPeriod:       {p("week", kindString, true, weekPeriodEnum...)},
	ToolExpandRestOfMonth:      {},
}

var modifierSchemas = map[string][]paramSpec{
	ModifierExcludeDates:            {p("dates", kindStringList, true)},
	ModifierExcludeDaysOfWeek:       {p("days", kindStringList, true)},
	ModifierExcludeRange:            {p("start_day", kindInt, true), p("end_day", kindInt, true)},
	ModifierExcludeWeeks:            {p("weeks", kindIntList, true)},
	ModifierExcludeWorkingDaysCount: {p("count", kindInt, true), p("position", kindString, true, positionEnum...)},
	ModifierExcludeHolidays:         {},
	ModifierFilterDaysOfWeek:        {p("days", kindStringList, true)},
	ModifierFilterRange:             {p("start_day", kindInt, true), p("end_day", kindInt, true)},
	ModifierFilterWeekdaySlice:      {p("count", kindInt, true), p("position", kindString, true, positionEnum...)},
}

// validateParams checks presence, primitive type, array element type and enum
// membership for every declared parameter, failing with a specific message
// per bad parameter.
func validateParams(subject string, values map[string]any, schema []paramSpec) error {
	for _, spec := range schema {
		value, present := values[spec.name]
		if !present || value == nil {
			if spec.required {
				return fmt.Errorf("%s: missing required parameter %q", subject, spec.name)
			}
			continue
		}

		switch spec.kind {
		case kindString:
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("%s: parameter %q must be %s", subject, spec.name, spec.kind)
			}
			if len(spec.enum) > 0 && !containsString(spec.enum, s) {
				return fmt.Errorf("%s: parameter %q must be one of %s", subject, spec.name, strings.Join(spec.enum, ", "))
			}
		case kindInt:
			if _, ok := asInt(value); !ok {
				return fmt.Errorf("%s: parameter %q must be %s", subject, spec.name, spec.kind)
			}
		case kindStringList:
			list, ok := value.([]any)
			if !ok {
				if _, strs := value.([]string); strs {
					continue
				}
				return fmt.Errorf("%s: parameter %q must be %s", subject, spec.name, spec.kind)
			}
			for _, item := range list {
				if _, ok := item.(string); !ok {
					return fmt.Errorf("%s: parameter %q must contain only strings", subject, spec.name)
				}
			}
		case kindIntList:
			list, ok := value.([]any)
			if !ok {
				if _, ints := value.([]int); ints {
					continue
				}
				return fmt.Errorf("%s: parameter %q must be %s", subject, spec.name, spec.kind)
			}
			for _, item := range list {
				if _, ok := asInt(item); !ok {
					return fmt.Errorf("%s: parameter %q must contain only integers", subject, spec.name)
				}
			}
		}
	}
	return nil
}

// asInt accepts the numeric shapes a decoded JSON payload can carry. Floats
// qualify only when integral.
func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// params provides typed access to a validated parameter map.
type params map[string]any

func (p params) has(name string) bool {
	value, ok := p[name]
	return ok && value != nil
}

func (p params) str(name string) string {
	s, _ := p[name].(string)
	return s
}

func (p params) integer(name string) int {
	n, _ := asInt(p[name])
	return n
}

func (p params) stringList(name string) []string {
	if strs, ok := p[name].([]string); ok {
		return strs
	}
	list, _ := p[name].([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (p params) intList(name string) []int {
	if ints, ok := p[name].([]int); ok {
		return ints
	}
	list, _ := p[name].([]any)
	out := make([]int, 0, len(list))
	for _, item := range list {
		if n, ok := asInt(item); ok {
			out = append(out, n)
		}
	}
	return out
}

func (p params) period() string {
	if s := p.str("period"); s != "" {
		return s
	}
	return PeriodThisMonth
}
