package reasoning

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Goal selects what the optimizer ranks candidate days for.
type Goal string

const (
	// GoalMaximizeOverlap favors days when the most teammates are in office.
	GoalMaximizeOverlap Goal = "maximize_overlap"
	// GoalMaximizeTeamPresence is an alias the classifier emits for team-wide
	// overlap questions. It scores the same way as GoalMaximizeOverlap.
	GoalMaximizeTeamPresence Goal = "maximize_team_presence"
	// GoalMinimizeOverlap favors days when the fewest teammates are in office.
	GoalMinimizeOverlap Goal = "minimize_overlap"
	// GoalLeastCrowded scores the same way as GoalMinimizeOverlap.
	GoalLeastCrowded Goal = "least_crowded"
	// GoalMinimizeCommute favors quiet days too, on the reading that a trip
	// worth making is one that can be a short, uncrowded one.
	GoalMinimizeCommute Goal = "minimize_commute"
	// GoalMeetPerson favors days when one named teammate is in office.
	GoalMeetPerson Goal = "meet_person"
	// GoalUnspecified is what the classifier sends when the user gave no
	// preference. It falls back to maximizing overlap.
	GoalUnspecified Goal = "unspecified"
)

const defaultRecommendationLimit = 5

var (
	avoidPattern = regexp.MustCompile(`(?i)\bavoid\s+([a-z]+(?:days?)?)`)
	onlyPattern  = regexp.MustCompile(`(?i)\bonly\s+((?:[a-z]+(?:days?)?)(?:\s*(?:,|and|or)\s*[a-z]+(?:days?)?)*)`)
)

var constraintWeekdays = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday, "mondays": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tuesdays": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "wednesdays": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thursdays": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "fridays": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "saturdays": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday, "sundays": time.Sunday,
}

// dayConstraints are hard weekday filters parsed out of free-text wishes such
// as "avoid Fridays" or "only Monday and Wednesday".
type dayConstraints struct {
	avoided map[time.Weekday]struct{}
	allowed map[time.Weekday]struct{}
}

// parseConstraints extracts weekday constraints from free text. Unrecognized
// words are ignored rather than rejected, since the text is conversational.
func parseConstraints(text string) dayConstraints {
	dc := dayConstraints{
		avoided: make(map[time.Weekday]struct{}),
		allowed: make(map[time.Weekday]struct{}),
	}
	for _, m := range avoidPattern.FindAllStringSubmatch(text, -1) {
		if wd, ok := constraintWeekdays[strings.ToLower(m[1])]; ok {
			dc.avoided[wd] = struct{}{}
		}
	}
	for _, m := range onlyPattern.FindAllStringSubmatch(text, -1) {
		for _, word := range splitWeekdayList(m[1]) {
			if wd, ok := constraintWeekdays[word]; ok {
				dc.allowed[wd] = struct{}{}
			}
		}
	}
	return dc
}

func splitWeekdayList(list string) []string {
	fields := strings.FieldsFunc(strings.ToLower(list), func(r rune) bool {
		return r == ',' || r == ' '
	})
	var words []string
	for _, f := range fields {
		if f == "and" || f == "or" {
			continue
		}
		words = append(words, f)
	}
	return words
}

// permits applies the hard filters: an allowed set restricts to its members,
// and avoided weekdays are always excluded.
func (dc dayConstraints) permits(wd time.Weekday) bool {
	if _, bad := dc.avoided[wd]; bad {
		return false
	}
	if len(dc.allowed) > 0 {
		_, ok := dc.allowed[wd]
		return ok
	}
	return true
}

func (dc dayConstraints) avoidedNames() []string { return weekdaySetNames(dc.avoided) }
func (dc dayConstraints) allowedNames() []string { return weekdaySetNames(dc.allowed) }

func weekdaySetNames(set map[time.Weekday]struct{}) []string {
	var names []string
	for wd := range set {
		names = append(names, wd.String())
	}
	sort.Strings(names)
	return names
}

// OptimizeRequest describes one ranking request for a user's candidate days.
type OptimizeRequest struct {
	Goal           Goal
	Subject        UserSchedule
	Team           []UserSchedule
	TargetUserID   string
	CandidateDates []string
	ConstraintText string
	Limit          int
}

// Optimize ranks the subject's candidate days for the requested goal. Days on
// which the subject has full-day leave are skipped, weekday constraints from
// the free-text wish are applied as hard filters, and ties keep date order.
func Optimize(req OptimizeRequest) (*Optimization, error) {
	switch req.Goal {
	case GoalMaximizeOverlap, GoalMaximizeTeamPresence, GoalMinimizeOverlap,
		GoalLeastCrowded, GoalMinimizeCommute, GoalMeetPerson, GoalUnspecified, "":
	default:
		return nil, fmt.Errorf("unknown optimization goal %q", req.Goal)
	}
	constraints := parseConstraints(req.ConstraintText)
	opt := &Optimization{
		Goal:            req.Goal,
		AvoidedWeekdays: constraints.avoidedNames(),
		AllowedWeekdays: constraints.allowedNames(),
	}

	var target *UserSchedule
	if req.Goal == GoalMeetPerson {
		for i := range req.Team {
			if req.Team[i].UserID == req.TargetUserID {
				target = &req.Team[i]
				break
			}
		}
		if target == nil {
			return nil, fmt.Errorf("target user %q is not in the compared schedules", req.TargetUserID)
		}
	}

	candidates := append([]string(nil), req.CandidateDates...)
	sort.Strings(candidates)
	var scored []DayScore
	for _, date := range candidates {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("candidate date %q is not a valid date", date)
		}
		if !constraints.permits(t.Weekday()) {
			continue
		}
		if isFullLeave(req.Subject, date) {
			continue
		}
		scored = append(scored, scoreCandidate(req, target, date))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	limit := req.Limit
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}
	if len(scored) > limit {
		scored = scored[:limit]
	}
	opt.Recommendations = scored
	return opt, nil
}

func scoreCandidate(req OptimizeRequest, target *UserSchedule, date string) DayScore {
	ds := DayScore{Date: date}
	switch req.Goal {
	case GoalMeetPerson:
		ds.Score = dayScore(*target, date)
		switch {
		case ds.Score >= 1:
			ds.Reasons = append(ds.Reasons, fmt.Sprintf("%s is in office all day", target.Name))
		case ds.Score > 0:
			ds.Reasons = append(ds.Reasons, fmt.Sprintf("%s is in office for half the day", target.Name))
		default:
			ds.Reasons = append(ds.Reasons, fmt.Sprintf("%s is not in office", target.Name))
		}
	case GoalMinimizeOverlap, GoalLeastCrowded, GoalMinimizeCommute:
		present := teamPresence(req.Team, req.Subject.UserID, date)
		peers := peerCount(req.Team, req.Subject.UserID)
		ds.Score = float64(peers) - present
		ds.Reasons = append(ds.Reasons, fmt.Sprintf("%.1f of %d teammates in office", present, peers))
	default: // maximize overlap, team presence, or no stated goal
		present := teamPresence(req.Team, req.Subject.UserID, date)
		ds.Score = present
		ds.Reasons = append(ds.Reasons, fmt.Sprintf("%.1f teammates in office", present))
	}
	return ds
}

// teamPresence sums office presence across the team for one date, excluding
// the subject.
func teamPresence(team []UserSchedule, subjectID, date string) float64 {
	total := 0.0
	for _, member := range team {
		if member.UserID == subjectID {
			continue
		}
		total += dayScore(member, date)
	}
	return total
}

func peerCount(team []UserSchedule, subjectID string) int {
	n := 0
	for _, member := range team {
		if member.UserID != subjectID {
			n++
		}
	}
	return n
}

// TeamPresence builds the per-day presence series used for crowd summaries.
func TeamPresence(team []UserSchedule, dates []string) []TeamPresenceDay {
	out := make([]TeamPresenceDay, 0, len(dates))
	for _, date := range dates {
		day := TeamPresenceDay{Date: date, TotalTeam: len(team)}
		for _, member := range team {
			day.Count += dayScore(member, date)
		}
		out = append(out, day)
	}
	return out
}
