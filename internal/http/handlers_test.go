package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/workbot"
)

type fakeAuthService struct {
	authenticateResult application.AuthenticateResult
	authenticateErr    error
	refreshResult      application.RefreshSessionResult
	refreshErr         error
	revokedTokens      []string
}

func (f *fakeAuthService) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	return f.authenticateResult, f.authenticateErr
}

func (f *fakeAuthService) RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error) {
	return f.refreshResult, f.refreshErr
}

func (f *fakeAuthService) RevokeSession(ctx context.Context, token string) error {
	f.revokedTokens = append(f.revokedTokens, token)
	return nil
}

type fakeEntryService struct {
	upserted   []application.UpsertEntryParams
	listParams application.ListEntriesParams
	entries    []application.Entry
	err        error
}

func (f *fakeEntryService) UpsertEntry(ctx context.Context, params application.UpsertEntryParams) (application.Entry, error) {
	if f.err != nil {
		return application.Entry{}, f.err
	}
	f.upserted = append(f.upserted, params)
	return application.Entry{
		ID:     "entry1",
		UserID: params.UserID,
		Date:   params.Input.Date,
		Status: params.Input.Status,
	}, nil
}

func (f *fakeEntryService) BulkApply(ctx context.Context, params application.BulkApplyParams) (application.BulkApplyResult, error) {
	if f.err != nil {
		return application.BulkApplyResult{}, f.err
	}
	return application.BulkApplyResult{Applied: params.Dates}, nil
}

func (f *fakeEntryService) GetEntry(ctx context.Context, principal application.Principal, userID, date string) (application.Entry, error) {
	if f.err != nil {
		return application.Entry{}, f.err
	}
	return application.Entry{ID: "entry1", UserID: userID, Date: date, Status: application.EntryStatusOffice}, nil
}

func (f *fakeEntryService) ListEntries(ctx context.Context, params application.ListEntriesParams) ([]application.Entry, error) {
	f.listParams = params
	return f.entries, f.err
}

func (f *fakeEntryService) DeleteEntry(ctx context.Context, principal application.Principal, userID, date string) error {
	return f.err
}

type fakeHolidayService struct {
	holidays []application.Holiday
	upserted []application.HolidayInput
	err      error
}

func (f *fakeHolidayService) UpsertHoliday(ctx context.Context, principal application.Principal, input application.HolidayInput) (application.Holiday, error) {
	if f.err != nil {
		return application.Holiday{}, f.err
	}
	f.upserted = append(f.upserted, input)
	return application.Holiday{Date: input.Date, Name: input.Name}, nil
}

func (f *fakeHolidayService) ListHolidays(ctx context.Context, principal application.Principal, fromDate, toDate string) ([]application.Holiday, error) {
	return f.holidays, f.err
}

func (f *fakeHolidayService) DeleteHoliday(ctx context.Context, principal application.Principal, date string) error {
	return f.err
}

type fakeWorkbotService struct {
	response workbot.Response
	err      error
	queries  []string
}

func (f *fakeWorkbotService) HandleQuery(ctx context.Context, principal application.Principal, query string) (workbot.Response, error) {
	f.queries = append(f.queries, query)
	return f.response, f.err
}

func withPrincipal(req *http.Request, principal application.Principal) *http.Request {
	return req.WithContext(ContextWithPrincipal(req.Context(), principal))
}

func TestAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("login issues session token via cookie and header", func(t *testing.T) {
		t.Parallel()

		service := &fakeAuthService{authenticateResult: application.AuthenticateResult{
			User: application.User{ID: "u1", IsAdmin: true},
			Session: application.Session{
				Token:     "token-abc",
				ExpiresAt: time.Date(2026, time.March, 3, 9, 0, 0, 0, time.UTC),
			},
		}}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"asha@example.com","password":"secret123"}`))
		recorder := httptest.NewRecorder()
		handler.CreateSession(recorder, req)

		if recorder.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201", recorder.Code)
		}
		if got := recorder.Header().Get("X-Session-Token"); got != "token-abc" {
			t.Errorf("X-Session-Token = %q", got)
		}
		cookieFound := false
		for _, cookie := range recorder.Result().Cookies() {
			if cookie.Name == "session_token" && cookie.Value == "token-abc" {
				cookieFound = true
			}
		}
		if !cookieFound {
			t.Error("session_token cookie was not set")
		}

		var body loginResponse
		if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Token != "token-abc" || body.UserID != "u1" || !body.IsAdmin {
			t.Errorf("unexpected body: %+v", body)
		}
	})

	t.Run("invalid credentials map to 401", func(t *testing.T) {
		t.Parallel()

		service := &fakeAuthService{authenticateErr: application.ErrInvalidCredentials}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"email":"asha@example.com","password":"wrong"}`))
		recorder := httptest.NewRecorder()
		handler.CreateSession(recorder, req)

		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", recorder.Code)
		}
		if !strings.Contains(recorder.Body.String(), "AUTH_INVALID_CREDENTIALS") {
			t.Errorf("body missing error code: %s", recorder.Body.String())
		}
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		t.Parallel()

		service := &fakeAuthService{}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodDelete, "/sessions/current", nil)
		req.Header.Set("Authorization", "Bearer token-abc")
		recorder := httptest.NewRecorder()
		handler.DeleteCurrentSession(recorder, req)

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", recorder.Code)
		}
		if len(service.revokedTokens) != 1 || service.revokedTokens[0] != "token-abc" {
			t.Errorf("revoked tokens = %v", service.revokedTokens)
		}
	})

	t.Run("refresh rotates the token", func(t *testing.T) {
		t.Parallel()

		service := &fakeAuthService{refreshResult: application.RefreshSessionResult{
			Session: application.Session{
				UserID:    "u1",
				Token:     "token-rotated",
				ExpiresAt: time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC),
			},
		}}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodPut, "/sessions/current", nil)
		req.Header.Set("Authorization", "Bearer token-abc")
		recorder := httptest.NewRecorder()
		handler.RefreshSession(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if got := recorder.Header().Get("X-Session-Token"); got != "token-rotated" {
			t.Errorf("X-Session-Token = %q", got)
		}
	})

	t.Run("admin revocation requires the admin role", func(t *testing.T) {
		t.Parallel()

		service := &fakeAuthService{}
		handler := NewAuthHandler(service, nil)

		req := httptest.NewRequest(http.MethodDelete, "/sessions/other-token", nil)
		req = withPrincipal(req, application.Principal{UserID: "u2"})
		recorder := httptest.NewRecorder()
		handler.DeleteSession(recorder, req, "other-token")

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", recorder.Code)
		}
		if len(service.revokedTokens) != 0 {
			t.Errorf("revocation should not have happened: %v", service.revokedTokens)
		}
	})
}

func TestEntryHandlers(t *testing.T) {
	t.Parallel()

	t.Run("upsert defaults the target user to the caller", func(t *testing.T) {
		t.Parallel()

		service := &fakeEntryService{}
		handler := NewEntryHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(`{"date":"2026-03-02","status":"office"}`))
		req = withPrincipal(req, application.Principal{UserID: "u1"})
		recorder := httptest.NewRecorder()
		handler.Upsert(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
		}
		if len(service.upserted) != 1 || service.upserted[0].UserID != "u1" {
			t.Fatalf("upserted = %+v", service.upserted)
		}
	})

	t.Run("list forwards range filters to the service", func(t *testing.T) {
		t.Parallel()

		service := &fakeEntryService{}
		handler := NewEntryHandler(service, nil)

		req := httptest.NewRequest(http.MethodGet, "/entries?user_id=u1&user_id=u2&from=2026-03-01&to=2026-03-31", nil)
		req = withPrincipal(req, application.Principal{UserID: "u1"})
		recorder := httptest.NewRecorder()
		handler.List(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if len(service.listParams.UserIDs) != 2 || service.listParams.FromDate != "2026-03-01" || service.listParams.ToDate != "2026-03-31" {
			t.Fatalf("listParams = %+v", service.listParams)
		}
	})

	t.Run("validation errors map to 422 with field details", func(t *testing.T) {
		t.Parallel()

		vErr := &application.ValidationError{FieldErrors: map[string]string{"status": "status must be office or leave"}}
		service := &fakeEntryService{err: vErr}
		handler := NewEntryHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(`{"date":"2026-03-02","status":"remote"}`))
		req = withPrincipal(req, application.Principal{UserID: "u1"})
		recorder := httptest.NewRecorder()
		handler.Upsert(recorder, req)

		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", recorder.Code)
		}
		if !strings.Contains(recorder.Body.String(), "status must be office or leave") {
			t.Errorf("body missing field error: %s", recorder.Body.String())
		}
	})

	t.Run("forbidden writes map to 403", func(t *testing.T) {
		t.Parallel()

		service := &fakeEntryService{err: application.ErrUnauthorized}
		handler := NewEntryHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(`{"user_id":"u2","date":"2026-03-02","status":"office"}`))
		req = withPrincipal(req, application.Principal{UserID: "u1"})
		recorder := httptest.NewRecorder()
		handler.Upsert(recorder, req)

		if recorder.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", recorder.Code)
		}
	})
}

func TestHolidayHandlers(t *testing.T) {
	t.Parallel()

	t.Run("exports holidays as an iCalendar feed", func(t *testing.T) {
		t.Parallel()

		service := &fakeHolidayService{holidays: []application.Holiday{
			{Date: "2026-03-10", Name: "Festival", UpdatedAt: time.Now()},
		}}
		handler := NewHolidayHandler(service, nil)

		req := httptest.NewRequest(http.MethodGet, "/holidays/calendar.ics", nil)
		req = withPrincipal(req, application.Principal{UserID: "u1"})
		recorder := httptest.NewRecorder()
		handler.ExportCalendar(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		if got := recorder.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/calendar") {
			t.Errorf("Content-Type = %q", got)
		}
		body := recorder.Body.String()
		if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "SUMMARY:Festival") {
			t.Errorf("unexpected calendar body:\n%s", body)
		}
	})

	t.Run("imports all-day events as holidays", func(t *testing.T) {
		t.Parallel()

		payload := strings.Join([]string{
			"BEGIN:VCALENDAR",
			"VERSION:2.0",
			"PRODID:-//test//EN",
			"BEGIN:VEVENT",
			"UID:holi@test",
			"DTSTAMP:20260101T000000Z",
			"DTSTART;VALUE=DATE:20260310",
			"SUMMARY:Festival",
			"END:VEVENT",
			"END:VCALENDAR",
			"",
		}, "\r\n")

		service := &fakeHolidayService{}
		handler := NewHolidayHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/holidays/import", strings.NewReader(payload))
		req = withPrincipal(req, application.Principal{UserID: "admin", IsAdmin: true})
		recorder := httptest.NewRecorder()
		handler.ImportCalendar(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
		}
		if len(service.upserted) != 1 {
			t.Fatalf("upserted = %+v", service.upserted)
		}
		if service.upserted[0].Date != "2026-03-10" || service.upserted[0].Name != "Festival" {
			t.Errorf("imported holiday = %+v", service.upserted[0])
		}
	})

	t.Run("rejects unparseable calendar payloads", func(t *testing.T) {
		t.Parallel()

		service := &fakeHolidayService{}
		handler := NewHolidayHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/holidays/import", strings.NewReader("this is not a calendar"))
		req = withPrincipal(req, application.Principal{UserID: "admin", IsAdmin: true})
		recorder := httptest.NewRecorder()
		handler.ImportCalendar(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", recorder.Code)
		}
	})
}

func TestWorkbotHandler(t *testing.T) {
	t.Parallel()

	t.Run("serves resolved dates", func(t *testing.T) {
		t.Parallel()

		service := &fakeWorkbotService{response: workbot.Response{
			Kind:    workbot.KindDate,
			Message: "Resolved 2 dates.",
			Dates:   []string{"2026-03-02", "2026-03-09"},
		}}
		handler := NewWorkbotHandler(service, nil)

		req := httptest.NewRequest(http.MethodPost, "/workbot/query", strings.NewReader(`{"query":"mondays this month"}`))
		req = withPrincipal(req, application.Principal{UserID: "u1"})
		recorder := httptest.NewRecorder()
		handler.Query(recorder, req)

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", recorder.Code)
		}
		var body workbotQueryResponse
		if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Kind != workbot.KindDate || len(body.Dates) != 2 {
			t.Errorf("unexpected body: %+v", body)
		}
		if len(service.queries) != 1 || service.queries[0] != "mondays this month" {
			t.Errorf("queries = %v", service.queries)
		}
	})

	t.Run("rejects empty queries", func(t *testing.T) {
		t.Parallel()

		handler := NewWorkbotHandler(&fakeWorkbotService{}, nil)

		req := httptest.NewRequest(http.MethodPost, "/workbot/query", strings.NewReader(`{"query":"   "}`))
		req = withPrincipal(req, application.Principal{UserID: "u1"})
		recorder := httptest.NewRecorder()
		handler.Query(recorder, req)

		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", recorder.Code)
		}
	})
}

func TestRouterMethodHandling(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{
		Entries: NewEntryHandler(&fakeEntryService{}, nil),
	})

	req := httptest.NewRequest(http.MethodPut, "/entries", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", recorder.Code)
	}
	if got := recorder.Header().Get("Allow"); !strings.Contains(got, http.MethodPost) {
		t.Errorf("Allow header = %q", got)
	}

	resp := recorder.Result()
	defer resp.Body.Close()
	if _, err := io.ReadAll(resp.Body); err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
}
