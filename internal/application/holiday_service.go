package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// HolidayRepository captures the persistence operations needed by the holiday service.
type HolidayRepository interface {
	UpsertHoliday(ctx context.Context, holiday Holiday) (Holiday, error)
	ListHolidays(ctx context.Context, fromDate, toDate string) ([]Holiday, error)
	DeleteHoliday(ctx context.Context, date string) error
}

// HolidayService manages the organization holiday calendar. Writes are
// admin-only; reads are open to any authenticated principal.
type HolidayService struct {
	holidays HolidayRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewHolidayService wires dependencies for the holiday service.
func NewHolidayService(holidays HolidayRepository, now func() time.Time) *HolidayService {
	return NewHolidayServiceWithLogger(holidays, now, nil)
}

// NewHolidayServiceWithLogger wires dependencies for the holiday service with a specified logger.
func NewHolidayServiceWithLogger(holidays HolidayRepository, now func() time.Time, logger *slog.Logger) *HolidayService {
	if now == nil {
		now = time.Now
	}
	return &HolidayService{holidays: holidays, now: now, logger: defaultLogger(logger)}
}

func (s *HolidayService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "HolidayService", operation, attrs...)
}

// UpsertHoliday creates or renames a holiday for administrators.
func (s *HolidayService) UpsertHoliday(ctx context.Context, principal Principal, input HolidayInput) (Holiday, error) {
	if s == nil {
		return Holiday{}, fmt.Errorf("HolidayService is nil")
	}
	if !principal.IsAdmin {
		return Holiday{}, ErrUnauthorized
	}
	if s.holidays == nil {
		return Holiday{}, fmt.Errorf("holiday repository not configured")
	}

	date := strings.TrimSpace(input.Date)
	name := strings.TrimSpace(input.Name)

	vErr := &ValidationError{}
	if !isCalendarDate(date) {
		vErr.add("date", "date must be formatted as YYYY-MM-DD")
	}
	if name == "" {
		vErr.add("name", "name is required")
	}
	if vErr.HasErrors() {
		return Holiday{}, vErr
	}

	now := s.now()
	persisted, err := s.holidays.UpsertHoliday(ctx, Holiday{
		Date:      date,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.loggerWith(ctx, "UpsertHoliday", "date", date).
			ErrorContext(ctx, "failed to store holiday", "error", err, "error_kind", ErrorKind(err))
		return Holiday{}, err
	}
	return persisted, nil
}

// ListHolidays returns holidays within the inclusive range, both bounds
// optional.
func (s *HolidayService) ListHolidays(ctx context.Context, principal Principal, fromDate, toDate string) ([]Holiday, error) {
	if s == nil {
		return nil, fmt.Errorf("HolidayService is nil")
	}
	if principal.UserID == "" && !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.holidays == nil {
		return nil, fmt.Errorf("holiday repository not configured")
	}

	vErr := &ValidationError{}
	if fromDate != "" && !isCalendarDate(fromDate) {
		vErr.add("from", "from must be formatted as YYYY-MM-DD")
	}
	if toDate != "" && !isCalendarDate(toDate) {
		vErr.add("to", "to must be formatted as YYYY-MM-DD")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	return s.holidays.ListHolidays(ctx, fromDate, toDate)
}

// DeleteHoliday removes a holiday for administrators.
func (s *HolidayService) DeleteHoliday(ctx context.Context, principal Principal, date string) error {
	if s == nil {
		return fmt.Errorf("HolidayService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.holidays == nil {
		return fmt.Errorf("holiday repository not configured")
	}

	if err := s.holidays.DeleteHoliday(ctx, strings.TrimSpace(date)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
