package reasoning

import (
	"reflect"
	"testing"
	"time"
)

func TestParseConstraints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		text        string
		wantAvoided []string
		wantAllowed []string
	}{
		{
			name:        "avoid single weekday",
			text:        "which days should I come in, avoid Fridays",
			wantAvoided: []string{"Friday"},
		},
		{
			name:        "only comma list with and",
			text:        "only Monday, Wednesday and Thursday please",
			wantAllowed: []string{"Monday", "Thursday", "Wednesday"},
		},
		{
			name:        "abbreviated names",
			text:        "avoid fri, only mon and wed",
			wantAvoided: []string{"Friday"},
			wantAllowed: []string{"Monday", "Wednesday"},
		},
		{
			name: "no constraints",
			text: "when should I go to the office",
		},
		{
			name: "unrecognized words ignored",
			text: "avoid meetings, only sunshine",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dc := parseConstraints(tc.text)
			if got := dc.avoidedNames(); !reflect.DeepEqual(got, tc.wantAvoided) {
				t.Errorf("avoided = %v, want %v", got, tc.wantAvoided)
			}
			if got := dc.allowedNames(); !reflect.DeepEqual(got, tc.wantAllowed) {
				t.Errorf("allowed = %v, want %v", got, tc.wantAllowed)
			}
		})
	}
}

func TestConstraintsPermit(t *testing.T) {
	t.Parallel()

	dc := parseConstraints("only monday and wednesday, avoid wednesday")
	// Avoided always wins, even inside an allowed set.
	if dc.permits(time.Wednesday) {
		t.Error("Wednesday should be excluded when both allowed and avoided")
	}
	if !dc.permits(time.Monday) {
		t.Error("Monday should be permitted")
	}
	if dc.permits(time.Friday) {
		t.Error("Friday is outside the allowed set")
	}
}

func TestOptimize_MeetPerson(t *testing.T) {
	t.Parallel()

	subject := schedule("u1", "Asha", nil)
	target := schedule("u2", "Ravi", map[string]Entry{
		"2026-03-03": office(),
		"2026-03-04": office(),
		"2026-03-05": halfLeaveOffice(),
	})

	opt, err := Optimize(OptimizeRequest{
		Goal:           GoalMeetPerson,
		Subject:        subject,
		Team:           []UserSchedule{subject, target},
		TargetUserID:   "u2",
		CandidateDates: weekOf(),
		Limit:          3,
	})
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if len(opt.Recommendations) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(opt.Recommendations))
	}
	// Full days first in date order, then the half day.
	if opt.Recommendations[0].Date != "2026-03-03" || opt.Recommendations[0].Score != 1 {
		t.Errorf("top pick = %+v, want 2026-03-03 at 1.0", opt.Recommendations[0])
	}
	if opt.Recommendations[1].Date != "2026-03-04" {
		t.Errorf("second pick = %+v, want 2026-03-04", opt.Recommendations[1])
	}
	if opt.Recommendations[2].Date != "2026-03-05" || opt.Recommendations[2].Score != 0.5 {
		t.Errorf("third pick = %+v, want 2026-03-05 at 0.5", opt.Recommendations[2])
	}
}

func TestOptimize_MeetPerson_UnknownTarget(t *testing.T) {
	t.Parallel()

	_, err := Optimize(OptimizeRequest{
		Goal:         GoalMeetPerson,
		Subject:      schedule("u1", "Asha", nil),
		Team:         []UserSchedule{schedule("u1", "Asha", nil)},
		TargetUserID: "ghost",
	})
	if err == nil {
		t.Fatal("expected error for target absent from schedules")
	}
}

func TestOptimize_MaximizeOverlapWithConstraints(t *testing.T) {
	t.Parallel()

	subject := schedule("u1", "Asha", map[string]Entry{
		"2026-03-04": fullLeave(),
	})
	ravi := schedule("u2", "Ravi", map[string]Entry{
		"2026-03-03": office(),
		"2026-03-04": office(),
		"2026-03-06": office(),
	})
	meera := schedule("u3", "Meera", map[string]Entry{
		"2026-03-04": office(),
		"2026-03-06": office(),
	})

	opt, err := Optimize(OptimizeRequest{
		Goal:           GoalMaximizeOverlap,
		Subject:        subject,
		Team:           []UserSchedule{subject, ravi, meera},
		CandidateDates: weekOf(),
		ConstraintText: "avoid Fridays",
	})
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}

	// Friday the 6th is filtered out despite being the busiest remaining
	// day, and Wednesday the 4th is skipped for Asha's full-day leave.
	for _, rec := range opt.Recommendations {
		if rec.Date == "2026-03-06" {
			t.Error("Friday should have been filtered by the avoid constraint")
		}
		if rec.Date == "2026-03-04" {
			t.Error("full-leave day should not be recommended")
		}
	}
	if opt.Recommendations[0].Date != "2026-03-03" || opt.Recommendations[0].Score != 1 {
		t.Errorf("top pick = %+v, want 2026-03-03 with one teammate present", opt.Recommendations[0])
	}
	if want := []string{"Friday"}; !reflect.DeepEqual(opt.AvoidedWeekdays, want) {
		t.Errorf("AvoidedWeekdays = %v, want %v", opt.AvoidedWeekdays, want)
	}
}

func TestOptimize_MinimizeOverlap(t *testing.T) {
	t.Parallel()

	subject := schedule("u1", "Asha", nil)
	ravi := schedule("u2", "Ravi", map[string]Entry{
		"2026-03-02": office(),
		"2026-03-03": office(),
	})
	meera := schedule("u3", "Meera", map[string]Entry{
		"2026-03-02": office(),
	})

	for _, goal := range []Goal{GoalMinimizeOverlap, GoalLeastCrowded, GoalMinimizeCommute} {
		opt, err := Optimize(OptimizeRequest{
			Goal:           goal,
			Subject:        subject,
			Team:           []UserSchedule{subject, ravi, meera},
			CandidateDates: []string{"2026-03-02", "2026-03-03", "2026-03-04"},
		})
		if err != nil {
			t.Fatalf("Optimize(%s) error: %v", goal, err)
		}
		// Wednesday is empty, Tuesday has one person, Monday has two.
		wantOrder := []string{"2026-03-04", "2026-03-03", "2026-03-02"}
		for i, want := range wantOrder {
			if opt.Recommendations[i].Date != want {
				t.Errorf("goal %s recommendation %d = %s, want %s", goal, i, opt.Recommendations[i].Date, want)
			}
		}
	}
}

func TestOptimize_UnknownGoal(t *testing.T) {
	t.Parallel()

	_, err := Optimize(OptimizeRequest{
		Goal:           Goal("maximize_snacks"),
		Subject:        schedule("u1", "Asha", nil),
		CandidateDates: weekOf(),
	})
	if err == nil {
		t.Fatal("expected error for unrecognized goal")
	}
}

func TestOptimize_DefaultLimit(t *testing.T) {
	t.Parallel()

	dates := []string{
		"2026-03-02", "2026-03-03", "2026-03-04", "2026-03-05", "2026-03-06",
		"2026-03-09", "2026-03-10",
	}
	subject := UserSchedule{UserID: "u1", Name: "Asha", WorkingDays: dates}

	opt, err := Optimize(OptimizeRequest{
		Goal:           GoalUnspecified,
		Subject:        subject,
		Team:           []UserSchedule{subject},
		CandidateDates: dates,
	})
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if len(opt.Recommendations) != defaultRecommendationLimit {
		t.Errorf("got %d recommendations, want default %d", len(opt.Recommendations), defaultRecommendationLimit)
	}
}

func TestOptimize_InvalidCandidateDate(t *testing.T) {
	t.Parallel()

	_, err := Optimize(OptimizeRequest{
		Goal:           GoalMaximizeOverlap,
		Subject:        schedule("u1", "Asha", nil),
		CandidateDates: []string{"not-a-date"},
	})
	if err == nil {
		t.Fatal("expected error for malformed candidate date")
	}
}

func TestTeamPresence(t *testing.T) {
	t.Parallel()

	team := []UserSchedule{
		schedule("u1", "Asha", map[string]Entry{"2026-03-02": office()}),
		schedule("u2", "Ravi", map[string]Entry{"2026-03-02": halfLeaveOffice()}),
	}
	days := TeamPresence(team, []string{"2026-03-02", "2026-03-03"})
	if days[0].Count != 1.5 {
		t.Errorf("Monday count = %v, want 1.5", days[0].Count)
	}
	if days[1].Count != 0 {
		t.Errorf("Tuesday count = %v, want 0", days[1].Count)
	}
	if days[0].TotalTeam != 2 {
		t.Errorf("TotalTeam = %d, want 2", days[0].TotalTeam)
	}
}
