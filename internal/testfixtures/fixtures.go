package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/persistence"
)

var (
	userCounter    uint64
	entryCounter   uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Timezone     string
	IsAdmin      bool
	Disabled     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Timezone:     "Asia/Kolkata",
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the fixture identifier.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserEmail overrides the fixture email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithDisplayName overrides the fixture display name.
func WithDisplayName(name string) UserOption {
	return func(f *UserFixture) { f.DisplayName = name }
}

// AsAdmin marks the fixture as an administrator.
func AsAdmin() UserOption {
	return func(f *UserFixture) { f.IsAdmin = true }
}

// AsDisabled marks the fixture account as disabled.
func AsDisabled() UserOption {
	return func(f *UserFixture) { f.Disabled = true }
}

// ToPersistence converts the fixture into a persistence layer user.
func (f UserFixture) ToPersistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		Timezone:     f.Timezone,
		IsAdmin:      f.IsAdmin,
		Disabled:     f.Disabled,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ToApplication converts the fixture into an application layer user.
func (f UserFixture) ToApplication() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Timezone:    f.Timezone,
		IsAdmin:     f.IsAdmin,
		Disabled:    f.Disabled,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ---------------------------- Entry fixtures -----------------------------

// EntryFixture represents a deterministic attendance entry.
type EntryFixture struct {
	ID             string
	UserID         string
	Date           string
	Status         string
	LeaveDuration  string
	HalfDayPortion string
	WorkingPortion string
	StartTime      string
	EndTime        string
	Note           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EntryOption configures the generated entry fixture.
type EntryOption func(*EntryFixture)

// NewEntryFixture returns a deterministic office entry for the given user and
// date, with optional overrides.
func NewEntryFixture(userID, date string, opts ...EntryOption) EntryFixture {
	idx := atomic.AddUint64(&entryCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := EntryFixture{
		ID:        fmt.Sprintf("entry-%03d", idx),
		UserID:    userID,
		Date:      date,
		Status:    application.EntryStatusOffice,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// AsFullLeave marks the entry as a full day of leave.
func AsFullLeave() EntryOption {
	return func(f *EntryFixture) {
		f.Status = application.EntryStatusLeave
		f.LeaveDuration = application.LeaveDurationFull
		f.HalfDayPortion = ""
		f.WorkingPortion = ""
	}
}

// AsHalfLeave marks the entry as a half day of leave with the other half
// spent as described by portion and working.
func AsHalfLeave(portion, working string) EntryOption {
	return func(f *EntryFixture) {
		f.Status = application.EntryStatusLeave
		f.LeaveDuration = application.LeaveDurationHalf
		f.HalfDayPortion = portion
		f.WorkingPortion = working
	}
}

// WithEntryTimes sets the expected in-office window.
func WithEntryTimes(start, end string) EntryOption {
	return func(f *EntryFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithEntryNote attaches a note to the entry.
func WithEntryNote(note string) EntryOption {
	return func(f *EntryFixture) { f.Note = note }
}

// ToPersistence converts the fixture into a persistence layer entry.
func (f EntryFixture) ToPersistence() persistence.Entry {
	return persistence.Entry{
		ID:             f.ID,
		UserID:         f.UserID,
		EntryDate:      f.Date,
		Status:         f.Status,
		LeaveDuration:  optionalString(f.LeaveDuration),
		HalfDayPortion: optionalString(f.HalfDayPortion),
		WorkingPortion: optionalString(f.WorkingPortion),
		StartTime:      optionalString(f.StartTime),
		EndTime:        optionalString(f.EndTime),
		Note:           optionalString(f.Note),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// ToApplication converts the fixture into an application layer entry.
func (f EntryFixture) ToApplication() application.Entry {
	return application.Entry{
		ID:             f.ID,
		UserID:         f.UserID,
		Date:           f.Date,
		Status:         f.Status,
		LeaveDuration:  f.LeaveDuration,
		HalfDayPortion: f.HalfDayPortion,
		WorkingPortion: f.WorkingPortion,
		StartTime:      f.StartTime,
		EndTime:        f.EndTime,
		Note:           f.Note,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// --------------------------- Holiday fixtures ----------------------------

// HolidayFixture represents an organization-wide holiday.
type HolidayFixture struct {
	Date      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewHolidayFixture returns a holiday on the given date.
func NewHolidayFixture(date, name string) HolidayFixture {
	return HolidayFixture{
		Date:      date,
		Name:      name,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
}

// ToPersistence converts the fixture into a persistence layer holiday.
func (f HolidayFixture) ToPersistence() persistence.Holiday {
	return persistence.Holiday{
		Date:      f.Date,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ToApplication converts the fixture into an application layer holiday.
func (f HolidayFixture) ToApplication() application.Holiday {
	return application.Holiday{
		Date:      f.Date,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// --------------------------- Session fixtures ----------------------------

// SessionFixture represents an authenticated session.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a live session for the given user.
func NewSessionFixture(userID string, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// Expired moves the session expiry into the past.
func Expired() SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = f.CreatedAt.Add(-time.Hour)
	}
}

// Revoked marks the session as revoked at its creation instant.
func Revoked() SessionOption {
	return func(f *SessionFixture) {
		revoked := f.CreatedAt
		f.RevokedAt = &revoked
	}
}

// ToPersistence converts the fixture into a persistence layer session.
func (f SessionFixture) ToPersistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
