package persistence

import "time"

// User represents an employee account in the attendance domain.
type User struct {
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

// Entry represents one user's attendance record for one calendar date.
// EntryDate is stored as YYYY-MM-DD and is unique per user.
type Entry struct {
	ID             string
	UserID         string
	EntryDate      string
	Status         string
	LeaveDuration  *string
	HalfDayPortion *string
	WorkingPortion *string
	StartTime      *string
	EndTime        *string
	Note           *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Holiday represents an organization-wide non-working date.
type Holiday struct {
	Date      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
