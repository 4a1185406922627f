package dateexpr

import (
	"strings"
	"testing"
	"time"
)

// March 2026 has 31 days and starts on a Sunday; April 2026 starts on a
// Wednesday. Most tests below anchor on those months.
const march2026 = "2026-03-01"

func testEngine() *Engine {
	return NewEngine(time.UTC)
}

func runTool(t *testing.T, tool string, params map[string]any, today string) ToolResult {
	t.Helper()
	return testEngine().RunTool(ToolCall{Tool: tool, Params: params}, today)
}

func mustSucceed(t *testing.T, result ToolResult) []string {
	t.Helper()
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	return result.Dates
}

func assertSortedUnique(t *testing.T, dates []string) {
	t.Helper()
	for i := 1; i < len(dates); i++ {
		if dates[i-1] >= dates[i] {
			t.Fatalf("dates not strictly ascending at %d: %q >= %q", i, dates[i-1], dates[i])
		}
	}
}

func assertWeekdaysOnly(t *testing.T, dates []string) {
	t.Helper()
	for _, d := range dates {
		parsed, err := time.Parse(DateLayout, d)
		if err != nil {
			t.Fatalf("invalid date %q: %v", d, err)
		}
		if parsed.Weekday() == time.Saturday || parsed.Weekday() == time.Sunday {
			t.Fatalf("expected weekday only, got %s (%s)", d, parsed.Weekday())
		}
	}
}

func TestExpandMonth(t *testing.T) {
	t.Parallel()

	dates := mustSucceed(t, runTool(t, ToolExpandMonth, map[string]any{"period": "this_month"}, march2026))
	assertSortedUnique(t, dates)
	assertWeekdaysOnly(t, dates)

	if len(dates) != 22 {
		t.Fatalf("expected 22 weekdays in March 2026, got %d", len(dates))
	}
	if dates[0] != "2026-03-02" {
		t.Fatalf("expected first weekday 2026-03-02, got %s", dates[0])
	}
	if dates[len(dates)-1] != "2026-03-31" {
		t.Fatalf("expected last weekday 2026-03-31, got %s", dates[len(dates)-1])
	}
}

func TestExpandMonth_NextPeriodWrapsYear(t *testing.T) {
	t.Parallel()

	dates := mustSucceed(t, runTool(t, ToolExpandMonth, map[string]any{"period": "next_month"}, "2026-12-15"))
	for _, d := range dates {
		if !strings.HasPrefix(d, "2027-01-") {
			t.Fatalf("expected January 2027 date, got %s", d)
		}
	}
}

func TestExpandAllDaysAlias(t *testing.T) {
	t.Parallel()

	alias := mustSucceed(t, runTool(t, ToolExpandAllDays, map[string]any{"period": "this_month"}, march2026))
	month := mustSucceed(t, runTool(t, ToolExpandMonth, map[string]any{"period": "this_month"}, march2026))
	if len(alias) != len(month) {
		t.Fatalf("alias mismatch: %d vs %d dates", len(alias), len(month))
	}
	for i := range alias {
		if alias[i] != month[i] {
			t.Fatalf("alias mismatch at %d: %s vs %s", i, alias[i], month[i])
		}
	}
}

func TestWeekendWeekdayPartition(t *testing.T) {
	t.Parallel()

	e := testEngine()
	weekends := mustSucceed(t, runTool(t, ToolExpandWeekends, map[string]any{"period": "this_month"}, march2026))
	weekdays := mustSucceed(t, runTool(t, ToolExpandMonth, map[string]any{"period": "this_month"}, march2026))
	all := e.monthAllDays(2026, time.March)

	if len(weekends)+len(weekdays) != len(all) {
		t.Fatalf("partition size mismatch: %d + %d != %d", len(weekends), len(weekdays), len(all))
	}

	seen := make(map[string]struct{})
	for _, d := range weekends {
		seen[d] = struct{}{}
	}
	for _, d := range weekdays {
		if _, dup := seen[d]; dup {
			t.Fatalf("date %s in both weekday and weekend sets", d)
		}
		seen[d] = struct{}{}
	}
	for _, d := range all {
		if _, ok := seen[d]; !ok {
			t.Fatalf("date %s missing from union", d)
		}
	}
}

func TestExpandWorkingDays(t *testing.T) {
	t.Parallel()

	t.Run("first ten", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandWorkingDays, map[string]any{"period": "this_month", "count": 10, "position": "first"}, march2026))
		want := []string{
			"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06",
			"2026-03-09", "2026-03-10", "2026-03-11", "2026-03-12", "2026-03-13",
		}
		assertDatesEqual(t, want, dates)
	})

	t.Run("last two", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandWorkingDays, map[string]any{"period": "this_month", "count": 2, "position": "last"}, march2026))
		assertDatesEqual(t, []string{"2026-03-30", "2026-03-31"}, dates)
	})

	t.Run("rejects non-positive count", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolExpandWorkingDays, map[string]any{"period": "this_month", "count": 0, "position": "first"}, march2026)
		if result.Success {
			t.Fatal("expected failure for count 0")
		}
	})
}

func TestExpandSpecificWeeks(t *testing.T) {
	t.Parallel()

	t.Run("negative index counts from the end", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandSpecificWeeks, map[string]any{"period": "this_month", "weeks": []any{-1}}, march2026))
		// Week 5 of March 2026 covers days 29-31; weekdays are the 30th and 31st.
		assertDatesEqual(t, []string{"2026-03-30", "2026-03-31"}, dates)
	})

	t.Run("week zero is rejected", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolExpandSpecificWeeks, map[string]any{"period": "this_month", "weeks": []any{0}}, march2026)
		if result.Success {
			t.Fatal("expected failure for week 0")
		}
	})

	t.Run("first week", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandSpecificWeeks, map[string]any{"period": "this_month", "weeks": []any{1}}, march2026))
		assertDatesEqual(t, []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"}, dates)
	})
}

func TestExpandDayOfWeek(t *testing.T) {
	t.Parallel()

	t.Run("every monday", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandDayOfWeek, map[string]any{"period": "this_month", "day": "monday"}, march2026))
		assertDatesEqual(t, []string{"2026-03-02", "2026-03-09", "2026-03-16", "2026-03-23", "2026-03-30"}, dates)
	})

	t.Run("unknown weekday names the input", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolExpandDayOfWeek, map[string]any{"period": "this_month", "day": "funday"}, march2026)
		if result.Success {
			t.Fatal("expected failure for unknown weekday")
		}
		if !strings.Contains(result.Error, "funday") {
			t.Fatalf("error should name the offending input, got %q", result.Error)
		}
	})
}

func TestExpandRangeExceptDays(t *testing.T) {
	t.Parallel()

	dates := mustSucceed(t, runTool(t, ToolExpandRangeExceptDays, map[string]any{
		"period":       "this_month",
		"start_day":    1,
		"end_day":      21,
		"exclude_days": []any{"monday"},
	}, march2026))

	assertWeekdaysOnly(t, dates)
	want := []string{
		"2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06",
		"2026-03-10", "2026-03-11", "2026-03-12", "2026-03-13",
		"2026-03-17", "2026-03-18", "2026-03-19", "2026-03-20",
	}
	assertDatesEqual(t, want, dates)
}

func TestExpandAlternateModesDiffer(t *testing.T) {
	t.Parallel()

	calendar := mustSucceed(t, runTool(t, ToolExpandRangeAlternate, map[string]any{
		"period": "this_month", "start_day": 1, "end_day": 10, "mode": "calendar",
	}, march2026))
	working := mustSucceed(t, runTool(t, ToolExpandRangeAlternate, map[string]any{
		"period": "this_month", "start_day": 1, "end_day": 10, "mode": "working",
	}, march2026))

	// Calendar mode walks days 1,3,5,7,9 and filters to weekdays; working mode
	// toggles across the weekday sequence 2,3,4,5,6,9,10.
	assertDatesEqual(t, []string{"2026-03-03", "2026-03-05", "2026-03-09"}, calendar)
	assertDatesEqual(t, []string{"2026-03-02", "2026-03-04", "2026-03-06", "2026-03-10"}, working)
}

func TestExpandOrdinalDayOfWeek(t *testing.T) {
	t.Parallel()

	t.Run("first wednesday of a month starting on wednesday", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandOrdinalDayOfWeek, map[string]any{
			"period": "next_month", "day": "wednesday", "ordinal": 1,
		}, march2026))
		assertDatesEqual(t, []string{"2026-04-01"}, dates)
	})

	t.Run("negative ordinal counts from month end", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandOrdinalDayOfWeek, map[string]any{
			"period": "this_month", "day": "friday", "ordinal": -1,
		}, march2026))
		assertDatesEqual(t, []string{"2026-03-27"}, dates)
	})

	t.Run("missing occurrence fails", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolExpandOrdinalDayOfWeek, map[string]any{
			"period": "this_month", "day": "saturday", "ordinal": 5,
		}, march2026)
		if result.Success {
			t.Fatal("expected failure: March 2026 has four Saturdays")
		}
	})
}

func TestExpandAnchorRange(t *testing.T) {
	t.Parallel()

	wantBetween := mustSucceed(t, runTool(t, ToolExpandRange, map[string]any{
		"period": "this_month", "start_day": 2, "end_day": 27,
	}, march2026))

	t.Run("between first monday and last friday", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandAnchorRange, map[string]any{
			"period":            "this_month",
			"anchor_day":        "monday",
			"anchor_occurrence": 1,
			"direction":         "between",
			"end_day":           "friday",
			"end_occurrence":    -1,
		}, march2026))
		assertDatesEqual(t, wantBetween, dates)
	})

	t.Run("between normalizes argument order", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandAnchorRange, map[string]any{
			"period":            "this_month",
			"anchor_day":        "friday",
			"anchor_occurrence": -1,
			"direction":         "between",
			"end_day":           "monday",
			"end_occurrence":    1,
		}, march2026))
		assertDatesEqual(t, wantBetween, dates)
	})

	t.Run("between requires a second anchor", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolExpandAnchorRange, map[string]any{
			"period":            "this_month",
			"anchor_day":        "monday",
			"anchor_occurrence": 1,
			"direction":         "between",
		}, march2026)
		if result.Success {
			t.Fatal("expected failure without end anchor")
		}
	})

	t.Run("after excludes the anchor day", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandAnchorRange, map[string]any{
			"period":            "this_month",
			"anchor_day":        "monday",
			"anchor_occurrence": -1,
			"direction":         "after",
		}, march2026))
		assertDatesEqual(t, []string{"2026-03-31"}, dates)
	})
}

func TestExpandEveryNth(t *testing.T) {
	t.Parallel()

	dates := mustSucceed(t, runTool(t, ToolExpandEveryNth, map[string]any{
		"period": "this_month", "start_day": 2, "interval": 7,
	}, march2026))
	// Days 2,9,16,23,30 are all Mondays.
	assertDatesEqual(t, []string{"2026-03-02", "2026-03-09", "2026-03-16", "2026-03-23", "2026-03-30"}, dates)
}

func TestExpandWeekPeriod(t *testing.T) {
	t.Parallel()

	// 2026-03-04 is a Wednesday.
	dates := mustSucceed(t, runTool(t, ToolExpandWeekPeriod, map[string]any{"week": "this_week"}, "2026-03-04"))
	assertDatesEqual(t, []string{"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06"}, dates)

	next := mustSucceed(t, runTool(t, ToolExpandWeekPeriod, map[string]any{"week": "next_week"}, "2026-03-04"))
	assertDatesEqual(t, []string{"2026-03-09", "2026-03-10", "2026-03-11", "2026-03-12", "2026-03-13"}, next)
}

func TestExpandRestOfMonth(t *testing.T) {
	t.Parallel()

	dates := mustSucceed(t, runTool(t, ToolExpandRestOfMonth, nil, "2026-03-27"))
	assertDatesEqual(t, []string{"2026-03-30", "2026-03-31"}, dates)
}

func TestExpandWeekdayPerWeek(t *testing.T) {
	t.Parallel()

	t.Run("first weekday of each week", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandFirstWeekdayWeek, map[string]any{"period": "this_month"}, march2026))
		// The week containing March 1 has no in-month weekday before Monday the
		// 2nd; the final week starts Monday the 30th.
		assertDatesEqual(t, []string{"2026-03-02", "2026-03-09", "2026-03-16", "2026-03-23", "2026-03-30"}, dates)
	})

	t.Run("last weekday of each week", func(t *testing.T) {
		t.Parallel()
		dates := mustSucceed(t, runTool(t, ToolExpandLastWeekdayWeek, map[string]any{"period": "this_month"}, march2026))
		assertDatesEqual(t, []string{"2026-03-06", "2026-03-13", "2026-03-20", "2026-03-27", "2026-03-31"}, dates)
	})
}

func TestExpandHalfMonth(t *testing.T) {
	t.Parallel()

	first := mustSucceed(t, runTool(t, ToolExpandHalfMonth, map[string]any{"period": "this_month", "half": "first"}, march2026))
	second := mustSucceed(t, runTool(t, ToolExpandHalfMonth, map[string]any{"period": "this_month", "half": "second"}, march2026))

	assertWeekdaysOnly(t, first)
	assertWeekdaysOnly(t, second)
	if first[len(first)-1] >= "2026-03-16" {
		t.Fatalf("first half leaked past day 15: %s", first[len(first)-1])
	}
	if second[0] < "2026-03-16" {
		t.Fatalf("second half started before day 16: %s", second[0])
	}
	if len(first)+len(second) != 22 {
		t.Fatalf("halves should cover all 22 weekdays, got %d", len(first)+len(second))
	}
}

func TestExpandExcept(t *testing.T) {
	t.Parallel()

	dates := mustSucceed(t, runTool(t, ToolExpandExcept, map[string]any{"period": "this_month", "day": "monday"}, march2026))
	for _, d := range dates {
		parsed, _ := time.Parse(DateLayout, d)
		if parsed.Weekday() == time.Monday {
			t.Fatalf("monday %s should be excluded", d)
		}
	}
	if len(dates) != 17 {
		t.Fatalf("expected 17 non-Monday weekdays, got %d", len(dates))
	}
}

func TestExpandMonthExceptWeeks(t *testing.T) {
	t.Parallel()

	dates := mustSucceed(t, runTool(t, ToolExpandMonthExceptWeeks, map[string]any{
		"period": "this_month", "weeks": []any{1, -1},
	}, march2026))
	// Weeks 1 (days 1-7) and 5 (days 29-31) removed.
	for _, d := range dates {
		parsed, _ := time.Parse(DateLayout, d)
		if parsed.Day() <= 7 || parsed.Day() >= 29 {
			t.Fatalf("date %s falls in an excluded week", d)
		}
	}
	if len(dates) != 15 {
		t.Fatalf("expected 15 weekdays in weeks 2-4, got %d", len(dates))
	}
}

func TestExpandNDaysFromOrdinal(t *testing.T) {
	t.Parallel()

	dates := mustSucceed(t, runTool(t, ToolExpandNDaysFromOrdinal, map[string]any{
		"period": "this_month", "day": "monday", "ordinal": 2, "count": 3,
	}, march2026))
	assertDatesEqual(t, []string{"2026-03-09", "2026-03-10", "2026-03-11"}, dates)
}

func assertDatesEqual(t *testing.T, want, got []string) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %d dates %v, got %d dates %v", len(want), want, len(got), got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("date mismatch at %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
