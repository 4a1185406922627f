// Package reasoning answers scheduling questions over pre-fetched attendance
// data: comparisons, overlap, coordination, constraint-aware day ranking,
// hypothetical simulation and period-over-period trends. Every function is
// pure; data retrieval happens upstream.
package reasoning

// EntryStatus is the persisted attendance status for one day. Days without an
// entry are implicitly worked from home.
type EntryStatus string

const (
	StatusOffice EntryStatus = "office"
	StatusLeave  EntryStatus = "leave"
)

// LeaveDuration distinguishes full-day from half-day leave.
type LeaveDuration string

const (
	LeaveFull LeaveDuration = "full"
	LeaveHalf LeaveDuration = "half"
)

// HalfDayPortion marks which half of the day a half-day leave covers.
type HalfDayPortion string

const (
	FirstHalf  HalfDayPortion = "first_half"
	SecondHalf HalfDayPortion = "second_half"
)

// WorkingPortion records where the non-leave half of a half-day is worked.
type WorkingPortion string

const (
	PortionWFH    WorkingPortion = "wfh"
	PortionOffice WorkingPortion = "office"
)

// Entry is one user's attendance record for one day. HalfDayPortion and
// WorkingPortion are meaningful only when LeaveDuration is half.
type Entry struct {
	Status         EntryStatus    `json:"status"`
	LeaveDuration  LeaveDuration  `json:"leave_duration,omitempty"`
	HalfDayPortion HalfDayPortion `json:"half_day_portion,omitempty"`
	WorkingPortion WorkingPortion `json:"working_portion,omitempty"`
	StartTime      string         `json:"start_time,omitempty"`
	EndTime        string         `json:"end_time,omitempty"`
	Note           string         `json:"note,omitempty"`
}

// ScheduleStats summarizes one user's attendance over the queried range.
type ScheduleStats struct {
	OfficeDays    int     `json:"office_days"`
	LeaveDays     int     `json:"leave_days"`
	WFHDays       int     `json:"wfh_days"`
	OfficePercent float64 `json:"office_percent"`
}

// UserSchedule is a per-user snapshot assembled upstream: working days are the
// weekdays of the queried range minus holidays, and Entries maps each recorded
// date to its attendance entry.
type UserSchedule struct {
	UserID      string           `json:"user_id"`
	Name        string           `json:"name"`
	WorkingDays []string         `json:"working_days"`
	Entries     map[string]Entry `json:"entries"`
	Stats       ScheduleStats    `json:"stats"`
}

// TeamPresenceDay counts people physically in office on one day, with
// half-day office presence contributing 0.5.
type TeamPresenceDay struct {
	Date      string  `json:"date"`
	Count     float64 `json:"count"`
	TotalTeam int     `json:"total_team"`
}

// Intent tags the reasoning computation a request asks for.
type Intent string

const (
	IntentCompare      Intent = "compare"
	IntentTeamCompare  Intent = "team_compare"
	IntentOverlap      Intent = "overlap"
	IntentMultiOverlap Intent = "multi_overlap"
	IntentOptimize     Intent = "optimize"
	IntentSimulate     Intent = "simulate"
	IntentTrend        Intent = "trend"
)

// Comparison reports the office-day difference between two users.
type Comparison struct {
	UserA            string  `json:"user_a"`
	UserB            string  `json:"user_b"`
	OfficeDaysA      int     `json:"office_days_a"`
	OfficeDaysB      int     `json:"office_days_b"`
	Difference       int     `json:"difference"`
	Winner           string  `json:"winner,omitempty"`
	PercentPointDiff float64 `json:"percent_point_diff"`
}

// TeamComparison places one user's office rate against the peer average. The
// subject is excluded from the average.
type TeamComparison struct {
	User        string  `json:"user"`
	UserPercent float64 `json:"user_percent"`
	TeamAverage float64 `json:"team_average"`
	Position    string  `json:"position"`
	PeerCount   int     `json:"peer_count"`
}

// Team comparison positions.
const (
	PositionAbove = "above"
	PositionBelow = "below"
	PositionAt    = "at"
)

// Overlap buckets the shared working days of two users by how much of the day
// both were in office.
type Overlap struct {
	UserA             string   `json:"user_a"`
	UserB             string   `json:"user_b"`
	SharedWorkingDays int      `json:"shared_working_days"`
	FullOverlapDays   []string `json:"full_overlap_days"`
	PartialOverlaps   []string `json:"partial_overlap_days"`
	ZeroOverlapDays   []string `json:"zero_overlap_days"`
	TotalOverlap      float64  `json:"total_overlap"`
	OverlapPercent    float64  `json:"overlap_percent"`
}

// MultiOverlap reports the days every listed participant is fully in office.
type MultiOverlap struct {
	Users             []string `json:"users"`
	SharedWorkingDays []string `json:"shared_working_days"`
	AllInOfficeDays   []string `json:"all_in_office_days"`
}

// DayScore is one ranked recommendation from the optimizer.
type DayScore struct {
	Date    string   `json:"date"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// Optimization carries the ranked day recommendations for a goal.
type Optimization struct {
	Goal            Goal       `json:"goal"`
	Recommendations []DayScore `json:"recommendations"`
	AvoidedWeekdays []string   `json:"avoided_weekdays,omitempty"`
	AllowedWeekdays []string   `json:"allowed_weekdays,omitempty"`
}

// Simulation reports how a hypothetical schedule would overlap with one
// target user's real schedule.
type Simulation struct {
	TargetUser     string   `json:"target_user"`
	ProposedDates  []string `json:"proposed_dates"`
	OverlapDates   []string `json:"overlap_dates"`
	OverlapPercent float64  `json:"overlap_percent"`
}

// Trend compares office-day counts between two period snapshots.
type Trend struct {
	User               string `json:"user"`
	CurrentOfficeDays  int    `json:"current_office_days"`
	PreviousOfficeDays int    `json:"previous_office_days"`
	Difference         int    `json:"difference"`
	Direction          string `json:"direction"`
}

// Trend directions.
const (
	TrendMore  = "more"
	TrendFewer = "fewer"
	TrendSame  = "same"
)

// Result is the tagged union returned to the response formatter: Intent names
// the variant and exactly one pointer field is populated.
type Result struct {
	Intent         Intent          `json:"intent"`
	Comparison     *Comparison     `json:"comparison,omitempty"`
	TeamComparison *TeamComparison `json:"team_comparison,omitempty"`
	Overlap        *Overlap        `json:"overlap,omitempty"`
	MultiOverlap   *MultiOverlap   `json:"multi_overlap,omitempty"`
	Optimization   *Optimization   `json:"optimization,omitempty"`
	Simulation     *Simulation     `json:"simulation,omitempty"`
	Trend          *Trend          `json:"trend,omitempty"`
}
