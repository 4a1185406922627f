package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// EntryRepository captures the persistence operations needed by the entry service.
type EntryRepository interface {
	UpsertEntry(ctx context.Context, entry Entry) (Entry, error)
	GetEntry(ctx context.Context, userID, date string) (Entry, error)
	ListEntries(ctx context.Context, userIDs []string, fromDate, toDate string) ([]Entry, error)
	DeleteEntry(ctx context.Context, userID, date string) error
}

// EntryService orchestrates validation, authorization, and persistence for
// attendance entries.
type EntryService struct {
	entries     EntryRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEntryService wires dependencies for the entry service.
func NewEntryService(entries EntryRepository, idGenerator func() string, now func() time.Time) *EntryService {
	return NewEntryServiceWithLogger(entries, idGenerator, now, nil)
}

// NewEntryServiceWithLogger wires dependencies for the entry service with a specified logger.
func NewEntryServiceWithLogger(entries EntryRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EntryService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EntryService{
		entries:     entries,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EntryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EntryService", operation, attrs...)
}

// UpsertEntry records attendance for one date, replacing any existing entry
// for the same user and date. Users may only write their own entries unless
// they are administrators.
func (s *EntryService) UpsertEntry(ctx context.Context, params UpsertEntryParams) (Entry, error) {
	if s == nil {
		return Entry{}, fmt.Errorf("EntryService is nil")
	}
	if err := s.authorizeWrite(params.Principal, params.UserID); err != nil {
		return Entry{}, err
	}
	if s.entries == nil {
		return Entry{}, fmt.Errorf("entry repository not configured")
	}

	normalized := normalizeEntryInput(params.Input)
	if vErr := validateEntryInput(normalized); vErr.HasErrors() {
		return Entry{}, vErr
	}

	now := s.now()
	entry := Entry{
		ID:             s.idGenerator(),
		UserID:         params.UserID,
		Date:           normalized.Date,
		Status:         normalized.Status,
		LeaveDuration:  normalized.LeaveDuration,
		HalfDayPortion: normalized.HalfDayPortion,
		WorkingPortion: normalized.WorkingPortion,
		StartTime:      normalized.StartTime,
		EndTime:        normalized.EndTime,
		Note:           normalized.Note,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	persisted, err := s.entries.UpsertEntry(ctx, entry)
	if err != nil {
		s.loggerWith(ctx, "UpsertEntry", "user_id", params.UserID, "date", entry.Date).
			ErrorContext(ctx, "failed to record attendance", "error", err, "error_kind", ErrorKind(err))
		return Entry{}, err
	}
	return persisted, nil
}

// BulkApply records the same attendance input across many dates, typically
// the output of a natural-language date expansion. Dates that fail are
// reported individually; the rest still apply.
func (s *EntryService) BulkApply(ctx context.Context, params BulkApplyParams) (BulkApplyResult, error) {
	if s == nil {
		return BulkApplyResult{}, fmt.Errorf("EntryService is nil")
	}
	if err := s.authorizeWrite(params.Principal, params.UserID); err != nil {
		return BulkApplyResult{}, err
	}
	if len(params.Dates) == 0 {
		vErr := &ValidationError{}
		vErr.add("dates", "at least one date is required")
		return BulkApplyResult{}, vErr
	}

	result := BulkApplyResult{Failed: make(map[string]string)}
	for _, date := range params.Dates {
		input := params.Input
		input.Date = date
		_, err := s.UpsertEntry(ctx, UpsertEntryParams{
			Principal: params.Principal,
			UserID:    params.UserID,
			Input:     input,
		})
		if err != nil {
			result.Failed[date] = err.Error()
			continue
		}
		result.Applied = append(result.Applied, date)
	}

	s.loggerWith(ctx, "BulkApply", "user_id", params.UserID).
		InfoContext(ctx, "bulk apply finished", "applied", len(result.Applied), "failed", len(result.Failed))
	return result, nil
}

// GetEntry returns one user's entry for one date.
func (s *EntryService) GetEntry(ctx context.Context, principal Principal, userID, date string) (Entry, error) {
	if s == nil {
		return Entry{}, fmt.Errorf("EntryService is nil")
	}
	if principal.UserID == "" && !principal.IsAdmin {
		return Entry{}, ErrUnauthorized
	}
	if s.entries == nil {
		return Entry{}, fmt.Errorf("entry repository not configured")
	}
	if !isCalendarDate(date) {
		vErr := &ValidationError{}
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
		return Entry{}, vErr
	}
	return s.entries.GetEntry(ctx, userID, date)
}

// ListEntries returns entries for the requested users within a date range.
// Schedules are team-visible, so any authenticated principal may read them.
func (s *EntryService) ListEntries(ctx context.Context, params ListEntriesParams) ([]Entry, error) {
	if s == nil {
		return nil, fmt.Errorf("EntryService is nil")
	}
	if params.Principal.UserID == "" && !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.entries == nil {
		return nil, fmt.Errorf("entry repository not configured")
	}

	vErr := &ValidationError{}
	if params.FromDate != "" && !isCalendarDate(params.FromDate) {
		vErr.add("from", "from must be formatted as YYYY-MM-DD")
	}
	if params.ToDate != "" && !isCalendarDate(params.ToDate) {
		vErr.add("to", "to must be formatted as YYYY-MM-DD")
	}
	if params.FromDate != "" && params.ToDate != "" && params.FromDate > params.ToDate {
		vErr.add("to", "to must not precede from")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	return s.entries.ListEntries(ctx, params.UserIDs, params.FromDate, params.ToDate)
}

// DeleteEntry removes one user's entry for one date, reverting the date to
// the implicit work-from-home default.
func (s *EntryService) DeleteEntry(ctx context.Context, principal Principal, userID, date string) error {
	if s == nil {
		return fmt.Errorf("EntryService is nil")
	}
	if err := s.authorizeWrite(principal, userID); err != nil {
		return err
	}
	if s.entries == nil {
		return fmt.Errorf("entry repository not configured")
	}

	if err := s.entries.DeleteEntry(ctx, userID, date); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *EntryService) authorizeWrite(principal Principal, userID string) error {
	if principal.IsAdmin {
		return nil
	}
	if principal.UserID == "" || principal.UserID != userID {
		return ErrUnauthorized
	}
	return nil
}

func normalizeEntryInput(input EntryInput) EntryInput {
	return EntryInput{
		Date:           strings.TrimSpace(input.Date),
		Status:         strings.ToLower(strings.TrimSpace(input.Status)),
		LeaveDuration:  strings.ToLower(strings.TrimSpace(input.LeaveDuration)),
		HalfDayPortion: strings.ToLower(strings.TrimSpace(input.HalfDayPortion)),
		WorkingPortion: strings.ToLower(strings.TrimSpace(input.WorkingPortion)),
		StartTime:      strings.TrimSpace(input.StartTime),
		EndTime:        strings.TrimSpace(input.EndTime),
		Note:           strings.TrimSpace(input.Note),
	}
}

// validateEntryInput enforces the attendance invariants: half-day fields are
// meaningful only on half-day leave, and a half-day leave must say where the
// working half happens.
func validateEntryInput(input EntryInput) *ValidationError {
	vErr := &ValidationError{}

	if !isCalendarDate(input.Date) {
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
	}

	switch input.Status {
	case EntryStatusOffice:
		if input.LeaveDuration != "" {
			vErr.add("leave_duration", "leave duration applies only to leave entries")
		}
		if input.HalfDayPortion != "" {
			vErr.add("half_day_portion", "half day portion applies only to half-day leave")
		}
		if input.WorkingPortion != "" {
			vErr.add("working_portion", "working portion applies only to half-day leave")
		}
	case EntryStatusLeave:
		switch input.LeaveDuration {
		case "", LeaveDurationFull:
			if input.HalfDayPortion != "" {
				vErr.add("half_day_portion", "half day portion applies only to half-day leave")
			}
			if input.WorkingPortion != "" {
				vErr.add("working_portion", "working portion applies only to half-day leave")
			}
		case LeaveDurationHalf:
			if input.HalfDayPortion != HalfDayFirst && input.HalfDayPortion != HalfDaySecond {
				vErr.add("half_day_portion", "half day portion must be first_half or second_half")
			}
			if input.WorkingPortion != WorkingPortionWFH && input.WorkingPortion != WorkingPortionOffice {
				vErr.add("working_portion", "working portion must be wfh or office")
			}
		default:
			vErr.add("leave_duration", "leave duration must be full or half")
		}
	case "":
		vErr.add("status", "status is required")
	default:
		vErr.add("status", "status must be office or leave")
	}

	if input.StartTime != "" && !isClockTime(input.StartTime) {
		vErr.add("start_time", "start time must be formatted as HH:MM")
	}
	if input.EndTime != "" && !isClockTime(input.EndTime) {
		vErr.add("end_time", "end time must be formatted as HH:MM")
	}
	if input.StartTime != "" && input.EndTime != "" &&
		isClockTime(input.StartTime) && isClockTime(input.EndTime) &&
		input.EndTime <= input.StartTime {
		vErr.add("end_time", "end time must be after start time")
	}

	return vErr
}

func isCalendarDate(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

func isClockTime(value string) bool {
	_, err := time.Parse("15:04", value)
	return err == nil
}
