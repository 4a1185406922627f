package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/attendance-tracker/internal/persistence"
)

func setupStorage(t *testing.T) *Storage {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "attendance.db")
	storage, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { storage.Close() })

	if err := storage.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return storage
}

func createTestUser(t *testing.T, storage *Storage, id, email string) {
	t.Helper()

	err := storage.Users.CreateUser(context.Background(), persistence.User{
		ID:           id,
		Email:        email,
		DisplayName:  "Test User",
		PasswordHash: "hashed",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	err := storage.Users.CreateUser(ctx, persistence.User{
		ID:           "user1",
		Email:        "Asha@Example.com",
		DisplayName:  "Asha",
		PasswordHash: "hashed",
		Timezone:     "Asia/Kolkata",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := storage.Users.GetUser(ctx, "user1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Email != "asha@example.com" {
		t.Errorf("email not normalized: %q", got.Email)
	}
	if got.Timezone != "Asia/Kolkata" {
		t.Errorf("Timezone = %q, want Asia/Kolkata", got.Timezone)
	}

	byEmail, err := storage.Users.GetUserByEmail(ctx, "ASHA@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != "user1" {
		t.Errorf("GetUserByEmail returned %q", byEmail.ID)
	}
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	createTestUser(t, storage, "user1", "asha@example.com")
	err := storage.Users.CreateUser(ctx, persistence.User{
		ID:           "user2",
		Email:        "ASHA@example.com",
		DisplayName:  "Other",
		PasswordHash: "hashed",
	})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepository_NotFound(t *testing.T) {
	storage := setupStorage(t)

	_, err := storage.Users.GetUser(context.Background(), "missing")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := storage.Users.DeleteUser(context.Background(), "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestEntryRepository_UpsertReplacesSameDay(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()
	createTestUser(t, storage, "user1", "asha@example.com")

	first := persistence.Entry{
		ID:        "entry1",
		UserID:    "user1",
		EntryDate: "2026-03-02",
		Status:    "office",
	}
	if _, err := storage.Entries.UpsertEntry(ctx, first); err != nil {
		t.Fatalf("UpsertEntry failed: %v", err)
	}

	half := "half"
	portion := "first_half"
	working := "office"
	second := persistence.Entry{
		ID:             "entry2",
		UserID:         "user1",
		EntryDate:      "2026-03-02",
		Status:         "leave",
		LeaveDuration:  &half,
		HalfDayPortion: &portion,
		WorkingPortion: &working,
	}
	stored, err := storage.Entries.UpsertEntry(ctx, second)
	if err != nil {
		t.Fatalf("replacing UpsertEntry failed: %v", err)
	}

	// The UNIQUE(user_id, entry_date) row is updated in place, so the
	// original id survives.
	if stored.ID != "entry1" {
		t.Errorf("stored ID = %q, want entry1", stored.ID)
	}
	if stored.Status != "leave" {
		t.Errorf("Status = %q, want leave", stored.Status)
	}
	if stored.LeaveDuration == nil || *stored.LeaveDuration != "half" {
		t.Errorf("LeaveDuration = %v, want half", stored.LeaveDuration)
	}

	entries, err := storage.Entries.ListEntries(ctx, persistence.EntryFilter{UserIDs: []string{"user1"}})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
}

func TestEntryRepository_ListByDateRange(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()
	createTestUser(t, storage, "user1", "asha@example.com")
	createTestUser(t, storage, "user2", "ravi@example.com")

	dates := []string{"2026-03-02", "2026-03-10", "2026-04-01"}
	for i, date := range dates {
		for _, userID := range []string{"user1", "user2"} {
			_, err := storage.Entries.UpsertEntry(ctx, persistence.Entry{
				ID:        userID + "-" + dates[i],
				UserID:    userID,
				EntryDate: date,
				Status:    "office",
			})
			if err != nil {
				t.Fatalf("UpsertEntry failed: %v", err)
			}
		}
	}

	entries, err := storage.Entries.ListEntries(ctx, persistence.EntryFilter{
		UserIDs:  []string{"user1"},
		FromDate: "2026-03-01",
		ToDate:   "2026-03-31",
	})
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 March entries for user1", len(entries))
	}
	if entries[0].EntryDate != "2026-03-02" || entries[1].EntryDate != "2026-03-10" {
		t.Errorf("entries out of order: %s, %s", entries[0].EntryDate, entries[1].EntryDate)
	}
}

func TestEntryRepository_DeleteCascadesWithUser(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()
	createTestUser(t, storage, "user1", "asha@example.com")

	_, err := storage.Entries.UpsertEntry(ctx, persistence.Entry{
		ID:        "entry1",
		UserID:    "user1",
		EntryDate: "2026-03-02",
		Status:    "office",
	})
	if err != nil {
		t.Fatalf("UpsertEntry failed: %v", err)
	}

	if err := storage.Users.DeleteUser(ctx, "user1"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	_, err = storage.Entries.GetEntry(ctx, "user1", "2026-03-02")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected entry to cascade away, got %v", err)
	}
}

func TestEntryRepository_InvalidStatusRejected(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()
	createTestUser(t, storage, "user1", "asha@example.com")

	_, err := storage.Entries.UpsertEntry(ctx, persistence.Entry{
		ID:        "entry1",
		UserID:    "user1",
		EntryDate: "2026-03-02",
		Status:    "vacation",
	})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestHolidayRepository_UpsertAndRange(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()

	holidays := []persistence.Holiday{
		{Date: "2026-03-10", Name: "Founders Day"},
		{Date: "2026-03-25", Name: "Spring Festival"},
		{Date: "2026-04-14", Name: "Regional Holiday"},
	}
	for _, h := range holidays {
		if _, err := storage.Holidays.UpsertHoliday(ctx, h); err != nil {
			t.Fatalf("UpsertHoliday failed: %v", err)
		}
	}

	// Renaming the same date keeps a single row.
	renamed, err := storage.Holidays.UpsertHoliday(ctx, persistence.Holiday{Date: "2026-03-10", Name: "Company Day"})
	if err != nil {
		t.Fatalf("renaming UpsertHoliday failed: %v", err)
	}
	if renamed.Name != "Company Day" {
		t.Errorf("Name = %q, want Company Day", renamed.Name)
	}

	march, err := storage.Holidays.ListHolidays(ctx, "2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("ListHolidays failed: %v", err)
	}
	if len(march) != 2 {
		t.Fatalf("got %d March holidays, want 2", len(march))
	}
	if march[0].Date != "2026-03-10" || march[0].Name != "Company Day" {
		t.Errorf("first holiday = %+v", march[0])
	}

	if err := storage.Holidays.DeleteHoliday(ctx, "2026-03-25"); err != nil {
		t.Fatalf("DeleteHoliday failed: %v", err)
	}
	if err := storage.Holidays.DeleteHoliday(ctx, "2026-03-25"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()
	createTestUser(t, storage, "user1", "asha@example.com")

	expires := time.Now().UTC().Add(time.Hour)
	created, err := storage.Sessions.CreateSession(ctx, persistence.Session{
		ID:        "sess1",
		UserID:    "user1",
		Token:     "token-abc",
		ExpiresAt: expires,
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if created.Token != "token-abc" {
		t.Errorf("Token = %q", created.Token)
	}

	got, err := storage.Sessions.GetSession(ctx, "token-abc")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.RevokedAt != nil {
		t.Error("new session should not be revoked")
	}

	revoked, err := storage.Sessions.RevokeSession(ctx, "token-abc", time.Now().UTC())
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatal("RevokedAt not set after revocation")
	}
	firstRevocation := *revoked.RevokedAt

	// Revoking again keeps the original timestamp.
	again, err := storage.Sessions.RevokeSession(ctx, "token-abc", time.Now().UTC().Add(time.Minute))
	if err != nil {
		t.Fatalf("second RevokeSession failed: %v", err)
	}
	if !again.RevokedAt.Equal(firstRevocation) {
		t.Errorf("revocation time changed: %v vs %v", again.RevokedAt, firstRevocation)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	storage := setupStorage(t)
	ctx := context.Background()
	createTestUser(t, storage, "user1", "asha@example.com")

	now := time.Now().UTC()
	sessions := []persistence.Session{
		{ID: "old", UserID: "user1", Token: "token-old", ExpiresAt: now.Add(-time.Hour)},
		{ID: "live", UserID: "user1", Token: "token-live", ExpiresAt: now.Add(time.Hour)},
	}
	for _, sess := range sessions {
		if _, err := storage.Sessions.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	if err := storage.Sessions.DeleteExpiredSessions(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := storage.Sessions.GetSession(ctx, "token-old"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expired session should be gone, got %v", err)
	}
	if _, err := storage.Sessions.GetSession(ctx, "token-live"); err != nil {
		t.Fatalf("live session should remain: %v", err)
	}
}
