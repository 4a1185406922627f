package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/attendance-tracker/internal/persistence"
)

// EntryRepository implements persistence.EntryRepository using SQLite.
type EntryRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEntryRepository creates a new SQLite attendance entry repository.
func NewEntryRepository(pool *ConnectionPool) *EntryRepository {
	return &EntryRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const entryColumns = "id, user_id, entry_date, status, leave_duration, half_day_portion, working_portion, start_time, end_time, note, created_at, updated_at"

// UpsertEntry inserts the entry or replaces the existing record for the same
// user and date. The stored row keeps its original id and created_at on
// replacement.
func (r *EntryRepository) UpsertEntry(ctx context.Context, entry persistence.Entry) (persistence.Entry, error) {
	if entry.ID == "" || entry.UserID == "" || entry.EntryDate == "" {
		return persistence.Entry{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, entry_date) DO UPDATE SET
			status = excluded.status,
			leave_duration = excluded.leave_duration,
			half_day_portion = excluded.half_day_portion,
			working_portion = excluded.working_portion,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			note = excluded.note,
			updated_at = excluded.updated_at
	`

	_, err := r.helper.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.EntryDate,
		entry.Status,
		nullString(entry.LeaveDuration),
		nullString(entry.HalfDayPortion),
		nullString(entry.WorkingPortion),
		nullString(entry.StartTime),
		nullString(entry.EndTime),
		nullString(entry.Note),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return persistence.Entry{}, r.mapper.MapError(err)
	}

	return r.GetEntry(ctx, entry.UserID, entry.EntryDate)
}

// GetEntry retrieves one user's entry for one date.
func (r *EntryRepository) GetEntry(ctx context.Context, userID, date string) (persistence.Entry, error) {
	if userID == "" || date == "" {
		return persistence.Entry{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE user_id = ? AND entry_date = ?",
		userID, date,
	)
	entry, err := r.scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Entry{}, persistence.ErrNotFound
	}
	return entry, err
}

// ListEntries returns entries matching the filter ordered by date then user.
func (r *EntryRepository) ListEntries(ctx context.Context, filter persistence.EntryFilter) ([]persistence.Entry, error) {
	query := "SELECT " + entryColumns + " FROM entries"
	var conditions []string
	var args []any

	if len(filter.UserIDs) > 0 {
		placeholders := strings.Repeat("?, ", len(filter.UserIDs))
		conditions = append(conditions, fmt.Sprintf("user_id IN (%s)", strings.TrimSuffix(placeholders, ", ")))
		for _, id := range filter.UserIDs {
			args = append(args, id)
		}
	}
	if filter.FromDate != "" {
		conditions = append(conditions, "entry_date >= ?")
		args = append(args, filter.FromDate)
	}
	if filter.ToDate != "" {
		conditions = append(conditions, "entry_date <= ?")
		args = append(args, filter.ToDate)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY entry_date ASC, user_id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.Entry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return entries, nil
}

// DeleteEntry removes one user's entry for one date.
func (r *EntryRepository) DeleteEntry(ctx context.Context, userID, date string) error {
	if userID == "" || date == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		"DELETE FROM entries WHERE user_id = ? AND entry_date = ?",
		userID, date,
	)
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

func (r *EntryRepository) scanEntry(row rowScanner) (persistence.Entry, error) {
	var entry persistence.Entry
	var leaveDuration, halfDayPortion, workingPortion, startTime, endTime, note sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.EntryDate,
		&entry.Status,
		&leaveDuration,
		&halfDayPortion,
		&workingPortion,
		&startTime,
		&endTime,
		&note,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Entry{}, err
		}
		return persistence.Entry{}, r.mapper.MapError(err)
	}

	entry.LeaveDuration = stringPtr(leaveDuration)
	entry.HalfDayPortion = stringPtr(halfDayPortion)
	entry.WorkingPortion = stringPtr(workingPortion)
	entry.StartTime = stringPtr(startTime)
	entry.EndTime = stringPtr(endTime)
	entry.Note = stringPtr(note)

	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Entry{}, err
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Entry{}, err
	}
	return entry, nil
}
