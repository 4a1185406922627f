package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// EntryFilter narrows attendance entry queries. Dates are inclusive
// YYYY-MM-DD bounds; empty strings leave the bound open.
type EntryFilter struct {
	UserIDs  []string
	FromDate string
	ToDate   string
}

// EntryRepository stores attendance entries keyed by user and date.
type EntryRepository interface {
	UpsertEntry(ctx context.Context, entry Entry) (Entry, error)
	GetEntry(ctx context.Context, userID, date string) (Entry, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, error)
	DeleteEntry(ctx context.Context, userID, date string) error
}

// HolidayRepository stores the organization holiday calendar.
type HolidayRepository interface {
	UpsertHoliday(ctx context.Context, holiday Holiday) (Holiday, error)
	ListHolidays(ctx context.Context, fromDate, toDate string) ([]Holiday, error)
	DeleteHoliday(ctx context.Context, date string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
