package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	Timezone    string
	IsAdmin     bool
	Disabled    bool
}

// User represents an employee account exposed by the application services.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Timezone    string
	IsAdmin     bool
	Disabled    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user. Password is
// changed only when Input.Password is non-empty.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// EntryInput captures caller provided attendance fields for one date.
type EntryInput struct {
	Date           string
	Status         string
	LeaveDuration  string
	HalfDayPortion string
	WorkingPortion string
	StartTime      string
	EndTime        string
	Note           string
}

// Entry represents a persisted attendance record exposed by the services.
type Entry struct {
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

// Attendance statuses accepted by the entry service.
const (
	EntryStatusOffice = "office"
	EntryStatusLeave  = "leave"
)

// Leave durations accepted by the entry service.
const (
	LeaveDurationFull = "full"
	LeaveDurationHalf = "half"
)

// Half day portions accepted by the entry service.
const (
	HalfDayFirst  = "first_half"
	HalfDaySecond = "second_half"
)

// Working portions accepted by the entry service.
const (
	WorkingPortionWFH    = "wfh"
	WorkingPortionOffice = "office"
)

// UpsertEntryParams wraps the data required to record attendance for a date.
type UpsertEntryParams struct {
	Principal Principal
	UserID    string
	Input     EntryInput
}

// BulkApplyParams applies the same attendance input to many dates at once.
// Input.Date is ignored; Dates supplies the targets.
type BulkApplyParams struct {
	Principal Principal
	UserID    string
	Dates     []string
	Input     EntryInput
}

// BulkApplyResult reports the per-date outcome of a bulk apply.
type BulkApplyResult struct {
	Applied []string
	Failed  map[string]string
}

// ListEntriesParams narrows an entry listing to a user and date range.
type ListEntriesParams struct {
	Principal Principal
	UserIDs   []string
	FromDate  string
	ToDate    string
}

// HolidayInput captures caller provided holiday fields.
type HolidayInput struct {
	Date string
	Name string
}

// Holiday represents an organization-wide non-working date.
type Holiday struct {
	Date      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
	Disabled     bool
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}

// MonthlyReportParams identifies the month to summarize, as YYYY-MM.
type MonthlyReportParams struct {
	Principal Principal
	Month     string
}

// MonthlyReportRow is one user's attendance summary within a report.
type MonthlyReportRow struct {
	UserID        string
	Email         string
	DisplayName   string
	WorkingDays   int
	OfficeDays    int
	LeaveDays     int
	WFHDays       int
	OfficePercent float64
}
