package reasoning

import (
	"math"
	"sort"
)

// sharedWorkingDays intersects the working-day sets of all schedules and
// returns the common dates sorted ascending.
func sharedWorkingDays(scheds ...UserSchedule) []string {
	if len(scheds) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, s := range scheds {
		seen := make(map[string]struct{}, len(s.WorkingDays))
		for _, d := range s.WorkingDays {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			counts[d]++
		}
	}
	var shared []string
	for d, n := range counts {
		if n == len(scheds) {
			shared = append(shared, d)
		}
	}
	sort.Strings(shared)
	return shared
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// CompareUsers reports who has more office days over the compared range.
// Winner is empty on a tie.
func CompareUsers(a, b UserSchedule) *Comparison {
	cmp := &Comparison{
		UserA:       a.Name,
		UserB:       b.Name,
		OfficeDaysA: officeDayCount(a),
		OfficeDaysB: officeDayCount(b),
	}
	cmp.Difference = cmp.OfficeDaysA - cmp.OfficeDaysB
	cmp.PercentPointDiff = round1(officePercent(a) - officePercent(b))
	switch {
	case cmp.Difference > 0:
		cmp.Winner = a.Name
	case cmp.Difference < 0:
		cmp.Winner = b.Name
	}
	return cmp
}

// CompareToTeam positions one user's office rate against the average of the
// other schedules. The subject is excluded from the average so a lone user
// never compares against themselves.
func CompareToTeam(subject UserSchedule, team []UserSchedule) *TeamComparison {
	tc := &TeamComparison{
		User:        subject.Name,
		UserPercent: round1(officePercent(subject)),
	}
	sum := 0.0
	for _, peer := range team {
		if peer.UserID == subject.UserID {
			continue
		}
		sum += officePercent(peer)
		tc.PeerCount++
	}
	if tc.PeerCount > 0 {
		tc.TeamAverage = round1(sum / float64(tc.PeerCount))
	}
	switch {
	case tc.UserPercent > tc.TeamAverage:
		tc.Position = PositionAbove
	case tc.UserPercent < tc.TeamAverage:
		tc.Position = PositionBelow
	default:
		tc.Position = PositionAt
	}
	return tc
}

// ComputeOverlap buckets the shared working days of two users by joint office
// presence. A day's overlap is the lower of the two presence scores, so the
// result is symmetric in its arguments.
func ComputeOverlap(a, b UserSchedule) *Overlap {
	shared := sharedWorkingDays(a, b)
	ov := &Overlap{
		UserA:             a.Name,
		UserB:             b.Name,
		SharedWorkingDays: len(shared),
	}
	for _, date := range shared {
		joint := math.Min(dayScore(a, date), dayScore(b, date))
		ov.TotalOverlap += joint
		switch {
		case joint >= 1:
			ov.FullOverlapDays = append(ov.FullOverlapDays, date)
		case joint > 0:
			ov.PartialOverlaps = append(ov.PartialOverlaps, date)
		default:
			ov.ZeroOverlapDays = append(ov.ZeroOverlapDays, date)
		}
	}
	if len(shared) > 0 {
		ov.OverlapPercent = round1(100 * ov.TotalOverlap / float64(len(shared)))
	}
	return ov
}

// ComputeMultiPersonOverlap finds the shared working days on which every
// participant is fully in office. Half days do not qualify.
func ComputeMultiPersonOverlap(scheds []UserSchedule) *MultiOverlap {
	mo := &MultiOverlap{}
	for _, s := range scheds {
		mo.Users = append(mo.Users, s.Name)
	}
	if len(scheds) < 2 {
		return mo
	}
	mo.SharedWorkingDays = sharedWorkingDays(scheds...)
	for _, date := range mo.SharedWorkingDays {
		all := true
		for _, s := range scheds {
			if dayScore(s, date) < 1 {
				all = false
				break
			}
		}
		if all {
			mo.AllInOfficeDays = append(mo.AllInOfficeDays, date)
		}
	}
	return mo
}

// Simulate scores a hypothetical set of office dates against one target
// user's real schedule. A proposed date counts as an overlap when the target
// has any office presence on it, half days included. Proposed dates outside
// the target's working days are ignored for the percentage base.
func Simulate(target UserSchedule, proposedDates []string) *Simulation {
	sim := &Simulation{
		TargetUser:    target.Name,
		ProposedDates: append([]string(nil), proposedDates...),
	}
	sort.Strings(sim.ProposedDates)
	working := make(map[string]struct{}, len(target.WorkingDays))
	for _, d := range target.WorkingDays {
		working[d] = struct{}{}
	}
	considered := 0
	for _, date := range sim.ProposedDates {
		if _, ok := working[date]; !ok {
			continue
		}
		considered++
		if dayScore(target, date) > 0 {
			sim.OverlapDates = append(sim.OverlapDates, date)
		}
	}
	if considered > 0 {
		sim.OverlapPercent = round1(100 * float64(len(sim.OverlapDates)) / float64(considered))
	}
	return sim
}

// ComputeTrend compares the user's office-day count between two period
// snapshots, typically this month against last month.
func ComputeTrend(current, previous UserSchedule) *Trend {
	tr := &Trend{
		User:               current.Name,
		CurrentOfficeDays:  officeDayCount(current),
		PreviousOfficeDays: officeDayCount(previous),
	}
	tr.Difference = tr.CurrentOfficeDays - tr.PreviousOfficeDays
	switch {
	case tr.Difference > 0:
		tr.Direction = TrendMore
	case tr.Difference < 0:
		tr.Direction = TrendFewer
	default:
		tr.Direction = TrendSame
	}
	return tr
}
