package dateexpr

import (
	"strings"
	"testing"
)

func TestResolveDates(t *testing.T) {
	t.Parallel()

	// 2026-03-02 is a Monday.
	const today = "2026-03-02"

	t.Run("resolves keywords and literals", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolResolveDates, map[string]any{
			"dates": []any{"today", "tomorrow", "2026-03-20"},
		}, today)
		dates := mustSucceed(t, result)
		assertDatesEqual(t, []string{"2026-03-02", "2026-03-03", "2026-03-20"}, dates)
	})

	t.Run("next weekday is strictly after today", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolResolveDates, map[string]any{"dates": []any{"next monday"}}, today)
		assertDatesEqual(t, []string{"2026-03-09"}, mustSucceed(t, result))
	})

	t.Run("this weekday can be today", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolResolveDates, map[string]any{"dates": []any{"this monday", "this friday"}}, today)
		assertDatesEqual(t, []string{"2026-03-02", "2026-03-06"}, mustSucceed(t, result))
	})

	t.Run("bare weekday skips today", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolResolveDates, map[string]any{"dates": []any{"monday", "wednesday"}}, today)
		assertDatesEqual(t, []string{"2026-03-04", "2026-03-09"}, mustSucceed(t, result))
	})

	t.Run("impossible calendar dates are rejected", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolResolveDates, map[string]any{"dates": []any{"2025-02-30"}}, today)
		if result.Success {
			t.Fatal("expected failure for 2025-02-30")
		}
		if !strings.Contains(result.Error, "2025-02-30") {
			t.Fatalf("error should name the bad input, got %q", result.Error)
		}
	})

	t.Run("unrecognized tokens are reported together with partial dates", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolResolveDates, map[string]any{
			"dates": []any{"today", "someday", "whenever"},
		}, today)
		if result.Success {
			t.Fatal("expected failure with unrecognized tokens present")
		}
		if !strings.Contains(result.Error, "someday") || !strings.Contains(result.Error, "whenever") {
			t.Fatalf("error should list every unrecognized input, got %q", result.Error)
		}
		assertDatesEqual(t, []string{"2026-03-02"}, result.Dates)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		t.Parallel()
		result := runTool(t, ToolResolveDates, map[string]any{
			"dates": []any{"today", "2026-03-02", "this monday"},
		}, today)
		assertDatesEqual(t, []string{"2026-03-02"}, mustSucceed(t, result))
	})
}
