package application

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"

	"github.com/example/attendance-tracker/internal/dateexpr"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ReportService produces monthly attendance summaries across the whole team.
type ReportService struct {
	users    UserRepository
	entries  EntryRepository
	holidays HolidayRepository
	engine   *dateexpr.Engine
	logger   *slog.Logger
}

// NewReportService wires dependencies for the report service.
func NewReportService(users UserRepository, entries EntryRepository, holidays HolidayRepository, engine *dateexpr.Engine, logger *slog.Logger) *ReportService {
	if engine == nil {
		engine = dateexpr.NewEngine(nil)
	}
	return &ReportService{
		users:    users,
		entries:  entries,
		holidays: holidays,
		engine:   engine,
		logger:   defaultLogger(logger),
	}
}

// MonthlyReport summarizes every user's attendance for one month. Working
// days are the month's weekdays minus holidays; dates without an entry count
// as work-from-home.
func (s *ReportService) MonthlyReport(ctx context.Context, params MonthlyReportParams) ([]MonthlyReportRow, error) {
	if s == nil {
		return nil, fmt.Errorf("ReportService is nil")
	}
	if params.Principal.UserID == "" && !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.users == nil || s.entries == nil || s.holidays == nil {
		return nil, fmt.Errorf("report dependencies not configured")
	}

	if !monthPattern.MatchString(params.Month) {
		vErr := &ValidationError{}
		vErr.add("month", "month must be formatted as YYYY-MM")
		return nil, vErr
	}

	firstOfMonth := params.Month + "-01"
	workingDays, err := s.monthWorkingDays(ctx, firstOfMonth)
	if err != nil {
		return nil, err
	}
	if len(workingDays) == 0 {
		return nil, fmt.Errorf("no working days resolved for %s", params.Month)
	}
	lastDay := workingDays[len(workingDays)-1]

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(users))
	for _, user := range users {
		userIDs = append(userIDs, user.ID)
	}

	entries, err := s.entries.ListEntries(ctx, userIDs, firstOfMonth, lastDay)
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]map[string]Entry)
	for _, entry := range entries {
		if byUser[entry.UserID] == nil {
			byUser[entry.UserID] = make(map[string]Entry)
		}
		byUser[entry.UserID][entry.Date] = entry
	}

	rows := make([]MonthlyReportRow, 0, len(users))
	for _, user := range users {
		rows = append(rows, summarizeUser(user, workingDays, byUser[user.ID]))
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Email < rows[j].Email })

	serviceLogger(ctx, s.logger, "ReportService", "MonthlyReport").
		InfoContext(ctx, "monthly report generated", "month", params.Month, "users", len(rows))
	return rows, nil
}

// WriteCSV renders report rows in a spreadsheet-friendly layout.
func (s *ReportService) WriteCSV(w io.Writer, month string, rows []MonthlyReportRow) error {
	writer := csv.NewWriter(w)

	header := []string{"month", "email", "display_name", "working_days", "office_days", "leave_days", "wfh_days", "office_percent"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			month,
			row.Email,
			row.DisplayName,
			strconv.Itoa(row.WorkingDays),
			strconv.Itoa(row.OfficeDays),
			strconv.Itoa(row.LeaveDays),
			strconv.Itoa(row.WFHDays),
			strconv.FormatFloat(row.OfficePercent, 'f', 1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write report row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (s *ReportService) monthWorkingDays(ctx context.Context, firstOfMonth string) ([]string, error) {
	result := s.engine.RunTool(dateexpr.ToolCall{
		Tool:   dateexpr.ToolExpandMonth,
		Params: map[string]any{"period": dateexpr.PeriodThisMonth},
	}, firstOfMonth)
	if !result.Success {
		return nil, fmt.Errorf("failed to expand month: %s", result.Error)
	}

	holidays, err := s.holidays.ListHolidays(ctx, result.Dates[0], result.Dates[len(result.Dates)-1])
	if err != nil {
		return nil, err
	}
	holidaySet := make(map[string]struct{}, len(holidays))
	for _, holiday := range holidays {
		holidaySet[holiday.Date] = struct{}{}
	}

	var working []string
	for _, date := range result.Dates {
		if _, off := holidaySet[date]; !off {
			working = append(working, date)
		}
	}
	return working, nil
}

func summarizeUser(user User, workingDays []string, entries map[string]Entry) MonthlyReportRow {
	row := MonthlyReportRow{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		WorkingDays: len(workingDays),
	}

	presence := 0.0
	for _, date := range workingDays {
		entry, ok := entries[date]
		if !ok {
			row.WFHDays++
			continue
		}
		switch entry.Status {
		case EntryStatusOffice:
			row.OfficeDays++
			presence++
		case EntryStatusLeave:
			row.LeaveDays++
			if entry.LeaveDuration == LeaveDurationHalf && entry.WorkingPortion == WorkingPortionOffice {
				row.OfficeDays++
				presence += 0.5
			}
		default:
			row.WFHDays++
		}
	}
	if len(workingDays) > 0 {
		row.OfficePercent = round1(100 * presence / float64(len(workingDays)))
	}
	return row
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
