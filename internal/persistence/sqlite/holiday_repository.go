package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/attendance-tracker/internal/persistence"
)

// HolidayRepository implements persistence.HolidayRepository using SQLite.
type HolidayRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewHolidayRepository creates a new SQLite holiday repository.
func NewHolidayRepository(pool *ConnectionPool) *HolidayRepository {
	return &HolidayRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertHoliday inserts or renames the holiday for the given date.
func (r *HolidayRepository) UpsertHoliday(ctx context.Context, holiday persistence.Holiday) (persistence.Holiday, error) {
	if holiday.Date == "" || holiday.Name == "" {
		return persistence.Holiday{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	holiday.CreatedAt = now
	holiday.UpdatedAt = now

	query := `
		INSERT INTO holidays (holiday_date, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (holiday_date) DO UPDATE SET
			name = excluded.name,
			updated_at = excluded.updated_at
	`

	_, err := r.helper.Exec(ctx, query,
		holiday.Date,
		holiday.Name,
		formatTime(holiday.CreatedAt),
		formatTime(holiday.UpdatedAt),
	)
	if err != nil {
		return persistence.Holiday{}, r.mapper.MapError(err)
	}

	row := r.helper.QueryRow(ctx,
		"SELECT holiday_date, name, created_at, updated_at FROM holidays WHERE holiday_date = ?",
		holiday.Date,
	)
	stored, err := r.scanHoliday(row)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Holiday{}, persistence.ErrNotFound
	}
	return stored, err
}

// ListHolidays returns holidays within the inclusive date range ordered by
// date. Empty bounds are open.
func (r *HolidayRepository) ListHolidays(ctx context.Context, fromDate, toDate string) ([]persistence.Holiday, error) {
	query := "SELECT holiday_date, name, created_at, updated_at FROM holidays"
	var conditions []string
	var args []any

	if fromDate != "" {
		conditions = append(conditions, "holiday_date >= ?")
		args = append(args, fromDate)
	}
	if toDate != "" {
		conditions = append(conditions, "holiday_date <= ?")
		args = append(args, toDate)
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY holiday_date ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var holidays []persistence.Holiday
	for rows.Next() {
		holiday, err := r.scanHoliday(rows)
		if err != nil {
			return nil, err
		}
		holidays = append(holidays, holiday)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return holidays, nil
}

// DeleteHoliday removes the holiday on the given date.
func (r *HolidayRepository) DeleteHoliday(ctx context.Context, date string) error {
	if date == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, "DELETE FROM holidays WHERE holiday_date = ?", date)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *HolidayRepository) scanHoliday(row rowScanner) (persistence.Holiday, error) {
	var holiday persistence.Holiday
	var createdAt, updatedAt string

	err := row.Scan(&holiday.Date, &holiday.Name, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Holiday{}, err
		}
		return persistence.Holiday{}, r.mapper.MapError(err)
	}

	if holiday.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Holiday{}, err
	}
	if holiday.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Holiday{}, err
	}
	return holiday, nil
}
