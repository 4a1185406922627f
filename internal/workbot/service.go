package workbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/dateexpr"
	"github.com/example/attendance-tracker/internal/reasoning"
)

// UserDirectory exposes the user listing needed to resolve names in queries.
type UserDirectory interface {
	ListUsers(ctx context.Context) ([]application.User, error)
}

// EntrySource exposes attendance entry reads.
type EntrySource interface {
	ListEntries(ctx context.Context, userIDs []string, fromDate, toDate string) ([]application.Entry, error)
}

// HolidaySource exposes holiday calendar reads.
type HolidaySource interface {
	ListHolidays(ctx context.Context, fromDate, toDate string) ([]application.Holiday, error)
}

// ErrUnknownUser is returned when a query names someone outside the directory.
var ErrUnknownUser = errors.New("workbot: unknown user")

// Service executes classified instructions against the date and reasoning
// engines using live attendance data.
type Service struct {
	classifier Classifier
	users      UserDirectory
	entries    EntrySource
	holidays   HolidaySource
	engine     *dateexpr.Engine
	cache      *classificationCache
	now        func() time.Time
	logger     *slog.Logger
}

// NewService wires dependencies for the workbot service.
func NewService(classifier Classifier, users UserDirectory, entries EntrySource, holidays HolidaySource, engine *dateexpr.Engine, now func() time.Time, logger *slog.Logger) *Service {
	if engine == nil {
		engine = dateexpr.NewEngine(nil)
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		classifier: classifier,
		users:      users,
		entries:    entries,
		holidays:   holidays,
		engine:     engine,
		cache:      newClassificationCache(0, 0, now),
		now:        now,
		logger:     logger,
	}
}

// HandleQuery classifies the query, runs the selected computation, and
// returns the structured response.
func (s *Service) HandleQuery(ctx context.Context, principal application.Principal, query string) (Response, error) {
	if s == nil {
		return Response{}, fmt.Errorf("workbot service is nil")
	}
	if s.classifier == nil {
		return Response{}, fmt.Errorf("classifier not configured")
	}

	today := s.engine.Today(s.now())
	logger := s.logger.With("service", "WorkbotService", "operation", "HandleQuery", "user_id", principal.UserID)

	key := classificationKey(query, today)
	instruction, cached := s.cache.Get(key)
	if !cached {
		var err error
		instruction, err = s.classifier.Classify(ctx, query, today)
		if err != nil {
			logger.ErrorContext(ctx, "classification failed", "error", err)
			return Response{}, fmt.Errorf("failed to understand the question: %w", err)
		}
		s.cache.Store(key, instruction)
	}

	switch instruction.Kind {
	case KindDate:
		return s.executeDate(ctx, *instruction.Date, today)
	case KindReasoning:
		return s.executeReasoning(ctx, principal, *instruction.Reasoning, today)
	default:
		return Response{}, fmt.Errorf("unknown instruction kind %q", instruction.Kind)
	}
}

func (s *Service) executeDate(ctx context.Context, inst DateInstruction, today string) (Response, error) {
	execCtx := dateexpr.ExecContext{}
	if s.holidays != nil {
		holidays, err := s.holidays.ListHolidays(ctx, "", "")
		if err != nil {
			return Response{}, err
		}
		execCtx.Holidays = make(map[string]struct{}, len(holidays))
		for _, holiday := range holidays {
			execCtx.Holidays[holiday.Date] = struct{}{}
		}
	}

	result := s.engine.Execute(
		dateexpr.ToolCall{Tool: inst.Tool, Params: inst.Params},
		inst.Modifiers,
		today,
		execCtx,
	)
	if !result.Success {
		return Response{
			Kind:    KindDate,
			Message: fmt.Sprintf("I could not expand those dates: %s", result.Error),
		}, nil
	}

	message := fmt.Sprintf("Resolved %d dates (%s).", len(result.Dates), result.Description)
	if len(result.ModifierErrors) > 0 {
		message += fmt.Sprintf(" %d modifier(s) could not be applied.", len(result.ModifierErrors))
	}
	return Response{
		Kind:           KindDate,
		Message:        message,
		Dates:          result.Dates,
		ModifierErrors: result.ModifierErrors,
	}, nil
}

func (s *Service) executeReasoning(ctx context.Context, principal application.Principal, inst ReasoningInstruction, today string) (Response, error) {
	if s.users == nil || s.entries == nil || s.holidays == nil {
		return Response{}, fmt.Errorf("attendance data sources not configured")
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return Response{}, err
	}

	period := inst.Period
	if period == "" {
		period = dateexpr.PeriodThisMonth
	}
	first, err := periodFirstDay(today, period)
	if err != nil {
		return Response{}, err
	}

	schedules, err := s.buildSchedules(ctx, users, first)
	if err != nil {
		return Response{}, err
	}
	byID := make(map[string]reasoning.UserSchedule, len(schedules))
	for _, sched := range schedules {
		byID[sched.UserID] = sched
	}

	subject, ok := byID[principal.UserID]
	if !ok {
		return Response{}, fmt.Errorf("%w: requesting user is not in the directory", ErrUnknownUser)
	}

	result := &reasoning.Result{Intent: inst.Intent}
	var message string

	switch inst.Intent {
	case reasoning.IntentCompare:
		a, b, err := s.resolvePair(users, byID, subject, inst.UserNames)
		if err != nil {
			return Response{}, err
		}
		cmp := reasoning.CompareUsers(a, b)
		result.Comparison = cmp
		if cmp.Winner == "" {
			message = fmt.Sprintf("%s and %s both have %d office days.", cmp.UserA, cmp.UserB, cmp.OfficeDaysA)
		} else {
			message = fmt.Sprintf("%s has more office days (%d vs %d).", cmp.Winner, maxInt(cmp.OfficeDaysA, cmp.OfficeDaysB), minInt(cmp.OfficeDaysA, cmp.OfficeDaysB))
		}

	case reasoning.IntentTeamCompare:
		target := subject
		if len(inst.UserNames) > 0 {
			resolved, err := s.resolveOne(users, byID, inst.UserNames[0], subject)
			if err != nil {
				return Response{}, err
			}
			target = resolved
		}
		tc := reasoning.CompareToTeam(target, schedules)
		result.TeamComparison = tc
		message = fmt.Sprintf("%s is at %.1f%% office attendance, %s the team average of %.1f%%.",
			tc.User, tc.UserPercent, positionPhrase(tc.Position), tc.TeamAverage)

	case reasoning.IntentOverlap:
		a, b, err := s.resolvePair(users, byID, subject, inst.UserNames)
		if err != nil {
			return Response{}, err
		}
		ov := reasoning.ComputeOverlap(a, b)
		result.Overlap = ov
		message = fmt.Sprintf("%s and %s fully overlap in office on %d of %d shared working days.",
			ov.UserA, ov.UserB, len(ov.FullOverlapDays), ov.SharedWorkingDays)

	case reasoning.IntentMultiOverlap:
		group, err := s.resolveGroup(users, byID, subject, inst.UserNames)
		if err != nil {
			return Response{}, err
		}
		mo := reasoning.ComputeMultiPersonOverlap(group)
		result.MultiOverlap = mo
		message = fmt.Sprintf("Everyone is in office together on %d day(s).", len(mo.AllInOfficeDays))

	case reasoning.IntentOptimize:
		req := reasoning.OptimizeRequest{
			Goal:           inst.Goal,
			Subject:        subject,
			Team:           schedules,
			CandidateDates: subject.WorkingDays,
			ConstraintText: inst.ConstraintText,
			Limit:          inst.Limit,
		}
		if inst.Goal == reasoning.GoalMeetPerson {
			target, err := s.resolveOne(users, byID, inst.TargetName, subject)
			if err != nil {
				return Response{}, err
			}
			req.TargetUserID = target.UserID
		}
		opt, err := reasoning.Optimize(req)
		if err != nil {
			return Response{}, err
		}
		result.Optimization = opt
		message = fmt.Sprintf("Found %d recommended day(s).", len(opt.Recommendations))

	case reasoning.IntentSimulate:
		target, err := s.resolveOne(users, byID, inst.TargetName, subject)
		if err != nil {
			return Response{}, err
		}
		sim := reasoning.Simulate(target, inst.Dates)
		result.Simulation = sim
		message = fmt.Sprintf("Those dates would overlap with %s on %d day(s) (%.1f%%).",
			sim.TargetUser, len(sim.OverlapDates), sim.OverlapPercent)

	case reasoning.IntentTrend:
		previousFirst, err := periodFirstDay(today, "last_month")
		if err != nil {
			return Response{}, err
		}
		previousSchedules, err := s.buildSchedules(ctx, users, previousFirst)
		if err != nil {
			return Response{}, err
		}
		target := subject
		if len(inst.UserNames) > 0 {
			resolved, err := s.resolveOne(users, byID, inst.UserNames[0], subject)
			if err != nil {
				return Response{}, err
			}
			target = resolved
		}
		var previous reasoning.UserSchedule
		for _, sched := range previousSchedules {
			if sched.UserID == target.UserID {
				previous = sched
				break
			}
		}
		tr := reasoning.ComputeTrend(target, previous)
		result.Trend = tr
		if tr.Direction == reasoning.TrendSame {
			message = fmt.Sprintf("%s has the same number of office days as last month (%d).",
				tr.User, tr.CurrentOfficeDays)
		} else {
			message = fmt.Sprintf("%s has %s office days than last month (%d vs %d).",
				tr.User, trendPhrase(tr.Direction), tr.CurrentOfficeDays, tr.PreviousOfficeDays)
		}

	default:
		return Response{}, fmt.Errorf("unknown reasoning intent %q", inst.Intent)
	}

	return Response{Kind: KindReasoning, Message: message, Reasoning: result}, nil
}

// buildSchedules assembles one month's schedule snapshot for every user.
// Working days are the month's weekdays minus holidays; days without an
// entry are implicitly worked from home.
func (s *Service) buildSchedules(ctx context.Context, users []application.User, firstOfMonth string) ([]reasoning.UserSchedule, error) {
	expanded := s.engine.RunTool(dateexpr.ToolCall{
		Tool:   dateexpr.ToolExpandMonth,
		Params: map[string]any{"period": dateexpr.PeriodThisMonth},
	}, firstOfMonth)
	if !expanded.Success {
		return nil, fmt.Errorf("failed to expand month: %s", expanded.Error)
	}
	from := expanded.Dates[0]
	to := expanded.Dates[len(expanded.Dates)-1]

	holidays, err := s.holidays.ListHolidays(ctx, from, to)
	if err != nil {
		return nil, err
	}
	holidaySet := make(map[string]struct{}, len(holidays))
	for _, holiday := range holidays {
		holidaySet[holiday.Date] = struct{}{}
	}
	var workingDays []string
	for _, date := range expanded.Dates {
		if _, off := holidaySet[date]; !off {
			workingDays = append(workingDays, date)
		}
	}

	userIDs := make([]string, 0, len(users))
	for _, user := range users {
		userIDs = append(userIDs, user.ID)
	}
	entries, err := s.entries.ListEntries(ctx, userIDs, from, to)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]map[string]reasoning.Entry)
	for _, entry := range entries {
		if byUser[entry.UserID] == nil {
			byUser[entry.UserID] = make(map[string]reasoning.Entry)
		}
		byUser[entry.UserID][entry.Date] = toReasoningEntry(entry)
	}

	schedules := make([]reasoning.UserSchedule, 0, len(users))
	for _, user := range users {
		sched := reasoning.UserSchedule{
			UserID:      user.ID,
			Name:        user.DisplayName,
			WorkingDays: workingDays,
			Entries:     byUser[user.ID],
		}
		if sched.Entries == nil {
			sched.Entries = map[string]reasoning.Entry{}
		}
		sched.Stats = reasoning.ComputeStats(sched)
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

func toReasoningEntry(entry application.Entry) reasoning.Entry {
	return reasoning.Entry{
		Status:         reasoning.EntryStatus(entry.Status),
		LeaveDuration:  reasoning.LeaveDuration(entry.LeaveDuration),
		HalfDayPortion: reasoning.HalfDayPortion(entry.HalfDayPortion),
		WorkingPortion: reasoning.WorkingPortion(entry.WorkingPortion),
		StartTime:      entry.StartTime,
		EndTime:        entry.EndTime,
		Note:           entry.Note,
	}
}

// resolveOne finds the schedule for one named user. Empty names and the
// pronouns people actually type fall back to the requesting user.
func (s *Service) resolveOne(users []application.User, byID map[string]reasoning.UserSchedule, name string, subject reasoning.UserSchedule) (reasoning.UserSchedule, error) {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" || trimmed == "me" || trimmed == "i" || trimmed == "myself" {
		return subject, nil
	}

	var matches []application.User
	for _, user := range users {
		display := strings.ToLower(user.DisplayName)
		local := strings.ToLower(strings.SplitN(user.Email, "@", 2)[0])
		if display == trimmed || local == trimmed || strings.HasPrefix(display, trimmed) {
			matches = append(matches, user)
		}
	}
	if len(matches) == 0 {
		return reasoning.UserSchedule{}, fmt.Errorf("%w: %q", ErrUnknownUser, name)
	}
	if len(matches) > 1 {
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, m.DisplayName)
		}
		sort.Strings(names)
		return reasoning.UserSchedule{}, fmt.Errorf("%w: %q is ambiguous (%s)", ErrUnknownUser, name, strings.Join(names, ", "))
	}

	sched, ok := byID[matches[0].ID]
	if !ok {
		return reasoning.UserSchedule{}, fmt.Errorf("%w: %q", ErrUnknownUser, name)
	}
	return sched, nil
}

// resolvePair resolves a two-person computation: one name compares against
// the requester, two names compare against each other.
func (s *Service) resolvePair(users []application.User, byID map[string]reasoning.UserSchedule, subject reasoning.UserSchedule, names []string) (reasoning.UserSchedule, reasoning.UserSchedule, error) {
	switch len(names) {
	case 1:
		other, err := s.resolveOne(users, byID, names[0], subject)
		if err != nil {
			return reasoning.UserSchedule{}, reasoning.UserSchedule{}, err
		}
		return subject, other, nil
	case 2:
		a, err := s.resolveOne(users, byID, names[0], subject)
		if err != nil {
			return reasoning.UserSchedule{}, reasoning.UserSchedule{}, err
		}
		b, err := s.resolveOne(users, byID, names[1], subject)
		if err != nil {
			return reasoning.UserSchedule{}, reasoning.UserSchedule{}, err
		}
		return a, b, nil
	default:
		return reasoning.UserSchedule{}, reasoning.UserSchedule{}, fmt.Errorf("comparison needs one or two names, got %d", len(names))
	}
}

// resolveGroup resolves a multi-person computation, always including the
// requester.
func (s *Service) resolveGroup(users []application.User, byID map[string]reasoning.UserSchedule, subject reasoning.UserSchedule, names []string) ([]reasoning.UserSchedule, error) {
	group := []reasoning.UserSchedule{subject}
	seen := map[string]struct{}{subject.UserID: {}}
	for _, name := range names {
		sched, err := s.resolveOne(users, byID, name, subject)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[sched.UserID]; dup {
			continue
		}
		seen[sched.UserID] = struct{}{}
		group = append(group, sched)
	}
	if len(group) < 2 {
		return nil, fmt.Errorf("group overlap needs at least two people")
	}
	return group, nil
}

// periodFirstDay maps a period keyword to the first day of that month
// relative to today.
func periodFirstDay(today, period string) (string, error) {
	t, err := time.Parse("2006-01-02", today)
	if err != nil {
		return "", fmt.Errorf("invalid reference date %q", today)
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	switch period {
	case dateexpr.PeriodThisMonth:
	case dateexpr.PeriodNextMonth:
		first = first.AddDate(0, 1, 0)
	case "last_month":
		first = first.AddDate(0, -1, 0)
	default:
		return "", fmt.Errorf("unknown period %q", period)
	}
	return first.Format("2006-01-02"), nil
}

func positionPhrase(position string) string {
	switch position {
	case reasoning.PositionAbove:
		return "above"
	case reasoning.PositionBelow:
		return "below"
	default:
		return "at"
	}
}

func trendPhrase(direction string) string {
	switch direction {
	case reasoning.TrendMore:
		return "more"
	case reasoning.TrendFewer:
		return "fewer"
	default:
		return "the same number of"
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
