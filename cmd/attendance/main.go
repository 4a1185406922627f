package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/config"
	"github.com/example/attendance-tracker/internal/dateexpr"
	httptransport "github.com/example/attendance-tracker/internal/http"
	"github.com/example/attendance-tracker/internal/persistence"
	"github.com/example/attendance-tracker/internal/persistence/sqlite"
	"github.com/example/attendance-tracker/internal/workbot"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("failed to load timezone", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := func() string { return randomHex(32) }
	now := time.Now
	engine := dateexpr.NewEngine(location)

	userRepo := newUserRepositoryAdapter(storage.Users)
	entryRepo := newEntryRepositoryAdapter(storage.Entries)
	holidayRepo := newHolidayRepositoryAdapter(storage.Holidays)
	sessionRepo := newSessionRepositoryAdapter(storage.Sessions)
	credentialStore := newCredentialStoreAdapter(storage.Users)

	userService := application.NewUserServiceWithLogger(userRepo, nil, idGenerator, now, logger)
	entryService := application.NewEntryServiceWithLogger(entryRepo, idGenerator, now, logger)
	holidayService := application.NewHolidayServiceWithLogger(holidayRepo, now, logger)
	authService := application.NewAuthServiceWithLogger(credentialStore, sessionRepo, nil, tokenGenerator, now, cfg.SessionTTL, logger)
	reportService := application.NewReportService(userRepo, entryRepo, holidayRepo, engine, logger)

	if err := bootstrapAdmin(ctx, userService, userRepo, cfg.Bootstrap, cfg.Timezone, logger); err != nil {
		logger.Error("failed to bootstrap administrator", "error", err)
		os.Exit(1)
	}

	var workbotHandler *httptransport.WorkbotHandler
	if cfg.Classifier.BaseURL != "" {
		classifier := workbot.NewHTTPClassifier(workbot.HTTPClassifierConfig{
			BaseURL: cfg.Classifier.BaseURL,
			APIKey:  cfg.Classifier.APIKey,
			Model:   cfg.Classifier.Model,
			Timeout: cfg.Classifier.Timeout,
		}, nil)
		workbotService := workbot.NewService(classifier, userRepo, entryRepo, holidayRepo, engine, now, logger)
		workbotHandler = httptransport.NewWorkbotHandler(workbotService, logger)
	} else {
		logger.Info("workbot disabled: no classifier endpoint configured")
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:     httptransport.NewAuthHandler(authService, logger),
		Users:    httptransport.NewUserHandler(userService, logger),
		Entries:  httptransport.NewEntryHandler(entryService, logger),
		Holidays: httptransport.NewHolidayHandler(holidayService, logger),
		Reports:  httptransport.NewReportHandler(reportService, logger),
		Workbot:  workbotHandler,
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Session creation, refresh, and self-logout carry their own
		// tokens; everything else needs a validated session first.
		path := strings.TrimSuffix(r.URL.Path, "/")
		if strings.EqualFold(path, "/sessions") || strings.EqualFold(path, "/sessions/current") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.PurgeSchedule, func() {
		purgeCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := sessionRepo.DeleteExpiredSessions(purgeCtx, time.Now()); err != nil {
			logger.Error("failed to purge expired sessions", "error", err)
			return
		}
		logger.Info("expired sessions purged")
	}); err != nil {
		logger.Error("failed to schedule session purge", "schedule", cfg.PurgeSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("attendance API listening", "addr", server.Addr, "timezone", cfg.Timezone)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// bootstrapAdmin seeds the first administrator when the user table is empty
// so a fresh deployment can be logged into.
func bootstrapAdmin(ctx context.Context, users *application.UserService, repo application.UserRepository, cfg config.BootstrapConfig, timezone string, logger *slog.Logger) error {
	if cfg.AdminEmail == "" {
		return nil
	}

	existing, err := repo.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	created, err := users.CreateUser(ctx, application.CreateUserParams{
		Principal: application.Principal{IsAdmin: true},
		Input: application.UserInput{
			Email:       cfg.AdminEmail,
			DisplayName: "Administrator",
			Password:    cfg.AdminPassword,
			Timezone:    timezone,
			IsAdmin:     true,
		},
	})
	if err != nil {
		return err
	}
	logger.Info("administrator account created", "user_id", created.ID, "email", created.Email)
	return nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

// mapStorageError translates persistence sentinels into the application's.
func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return application.ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return application.ErrAlreadyExists
	default:
		return err
	}
}

type userRepositoryAdapter struct {
	repo *sqlite.UserRepository
}

func newUserRepositoryAdapter(repo *sqlite.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, mapStorageError(err)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	if err := a.repo.UpdateUser(ctx, toPersistenceUser(user, passwordHash)); err != nil {
		return application.User{}, mapStorageError(err)
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return mapStorageError(a.repo.DeleteUser(ctx, id))
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	models, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, mapStorageError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	users := make([]application.User, 0, len(models))
	for _, model := range models {
		users = append(users, toApplicationUser(model))
	}
	return users, nil
}

func (a *userRepositoryAdapter) GetPasswordHash(ctx context.Context, id string) (string, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return "", mapStorageError(err)
	}
	return stored.PasswordHash, nil
}

type credentialStoreAdapter struct {
	repo *sqlite.UserRepository
}

func newCredentialStoreAdapter(repo *sqlite.UserRepository) *credentialStoreAdapter {
	return &credentialStoreAdapter{repo: repo}
}

func (a *credentialStoreAdapter) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserCredentials{}, mapStorageError(err)
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
		Disabled:     stored.Disabled,
	}, nil
}

func (a *credentialStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, mapStorageError(err)
	}
	return toApplicationUser(stored), nil
}

type entryRepositoryAdapter struct {
	repo *sqlite.EntryRepository
}

func newEntryRepositoryAdapter(repo *sqlite.EntryRepository) *entryRepositoryAdapter {
	return &entryRepositoryAdapter{repo: repo}
}

func (a *entryRepositoryAdapter) UpsertEntry(ctx context.Context, entry application.Entry) (application.Entry, error) {
	stored, err := a.repo.UpsertEntry(ctx, toPersistenceEntry(entry))
	if err != nil {
		return application.Entry{}, mapStorageError(err)
	}
	return toApplicationEntry(stored), nil
}

func (a *entryRepositoryAdapter) GetEntry(ctx context.Context, userID, date string) (application.Entry, error) {
	stored, err := a.repo.GetEntry(ctx, userID, date)
	if err != nil {
		return application.Entry{}, mapStorageError(err)
	}
	return toApplicationEntry(stored), nil
}

func (a *entryRepositoryAdapter) ListEntries(ctx context.Context, userIDs []string, fromDate, toDate string) ([]application.Entry, error) {
	models, err := a.repo.ListEntries(ctx, persistence.EntryFilter{
		UserIDs:  append([]string(nil), userIDs...),
		FromDate: fromDate,
		ToDate:   toDate,
	})
	if err != nil {
		return nil, mapStorageError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	entries := make([]application.Entry, 0, len(models))
	for _, model := range models {
		entries = append(entries, toApplicationEntry(model))
	}
	return entries, nil
}

func (a *entryRepositoryAdapter) DeleteEntry(ctx context.Context, userID, date string) error {
	return mapStorageError(a.repo.DeleteEntry(ctx, userID, date))
}

type holidayRepositoryAdapter struct {
	repo *sqlite.HolidayRepository
}

func newHolidayRepositoryAdapter(repo *sqlite.HolidayRepository) *holidayRepositoryAdapter {
	return &holidayRepositoryAdapter{repo: repo}
}

func (a *holidayRepositoryAdapter) UpsertHoliday(ctx context.Context, holiday application.Holiday) (application.Holiday, error) {
	stored, err := a.repo.UpsertHoliday(ctx, persistence.Holiday{
		Date:      holiday.Date,
		Name:      holiday.Name,
		CreatedAt: holiday.CreatedAt,
		UpdatedAt: holiday.UpdatedAt,
	})
	if err != nil {
		return application.Holiday{}, mapStorageError(err)
	}
	return toApplicationHoliday(stored), nil
}

func (a *holidayRepositoryAdapter) ListHolidays(ctx context.Context, fromDate, toDate string) ([]application.Holiday, error) {
	models, err := a.repo.ListHolidays(ctx, fromDate, toDate)
	if err != nil {
		return nil, mapStorageError(err)
	}
	if len(models) == 0 {
		return nil, nil
	}
	holidays := make([]application.Holiday, 0, len(models))
	for _, model := range models {
		holidays = append(holidays, toApplicationHoliday(model))
	}
	return holidays, nil
}

func (a *holidayRepositoryAdapter) DeleteHoliday(ctx context.Context, date string) error {
	return mapStorageError(a.repo.DeleteHoliday(ctx, date))
}

type sessionRepositoryAdapter struct {
	repo *sqlite.SessionRepository
}

func newSessionRepositoryAdapter(repo *sqlite.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, mapStorageError(err)
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return mapStorageError(a.repo.DeleteExpiredSessions(ctx, reference))
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:          model.ID,
		Email:       model.Email,
		DisplayName: model.DisplayName,
		Timezone:    model.Timezone,
		IsAdmin:     model.IsAdmin,
		Disabled:    model.Disabled,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User, passwordHash string) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: passwordHash,
		Timezone:     user.Timezone,
		IsAdmin:      user.IsAdmin,
		Disabled:     user.Disabled,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationEntry(model persistence.Entry) application.Entry {
	return application.Entry{
		ID:             model.ID,
		UserID:         model.UserID,
		Date:           model.EntryDate,
		Status:         model.Status,
		LeaveDuration:  fromOptional(model.LeaveDuration),
		HalfDayPortion: fromOptional(model.HalfDayPortion),
		WorkingPortion: fromOptional(model.WorkingPortion),
		StartTime:      fromOptional(model.StartTime),
		EndTime:        fromOptional(model.EndTime),
		Note:           fromOptional(model.Note),
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func toPersistenceEntry(entry application.Entry) persistence.Entry {
	return persistence.Entry{
		ID:             entry.ID,
		UserID:         entry.UserID,
		EntryDate:      entry.Date,
		Status:         entry.Status,
		LeaveDuration:  toOptional(entry.LeaveDuration),
		HalfDayPortion: toOptional(entry.HalfDayPortion),
		WorkingPortion: toOptional(entry.WorkingPortion),
		StartTime:      toOptional(entry.StartTime),
		EndTime:        toOptional(entry.EndTime),
		Note:           toOptional(entry.Note),
		CreatedAt:      entry.CreatedAt,
		UpdatedAt:      entry.UpdatedAt,
	}
}

func toApplicationHoliday(model persistence.Holiday) application.Holiday {
	return application.Holiday{
		Date:      model.Date,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func toOptional(value string) *string {
	if value == "" {
		return nil
	}
	clone := value
	return &clone
}

func fromOptional(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
