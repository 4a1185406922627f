package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/attendance-tracker/internal/application"
)

type entryService interface {
	UpsertEntry(ctx context.Context, params application.UpsertEntryParams) (application.Entry, error)
	BulkApply(ctx context.Context, params application.BulkApplyParams) (application.BulkApplyResult, error)
	GetEntry(ctx context.Context, principal application.Principal, userID, date string) (application.Entry, error)
	ListEntries(ctx context.Context, params application.ListEntriesParams) ([]application.Entry, error)
	DeleteEntry(ctx context.Context, principal application.Principal, userID, date string) error
}

type EntryHandler struct {
	service   entryService
	responder responder
	logger    *slog.Logger
}

func NewEntryHandler(service entryService, logger *slog.Logger) *EntryHandler {
	base := defaultLogger(logger)
	return &EntryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EntryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EntryHandler", operation, attrs...)
}

func (h *EntryHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Upsert", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode entry request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	userID := req.targetUser(principal)
	logger := h.log(r.Context(), "Upsert", "principal_id", principal.UserID, "user_id", userID, "date", req.Date)

	entry, err := h.service.UpsertEntry(r.Context(), application.UpsertEntryParams{
		Principal: principal,
		UserID:    userID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "entry upsert failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "entry recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, entryResponse{Entry: toEntryDTO(entry)})
}

func (h *EntryHandler) BulkApply(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bulkApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "BulkApply", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode bulk apply request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = req.Entry.targetUser(principal)
	}
	logger := h.log(r.Context(), "BulkApply", "principal_id", principal.UserID, "user_id", userID, "date_count", len(req.Dates))

	result, err := h.service.BulkApply(r.Context(), application.BulkApplyParams{
		Principal: principal,
		UserID:    userID,
		Dates:     req.Dates,
		Input:     req.Entry.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "bulk apply failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("applied", len(result.Applied), "failed", len(result.Failed)).InfoContext(r.Context(), "bulk apply completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bulkApplyResponse{
		Applied: result.Applied,
		Failed:  result.Failed,
	})
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, ok := DateFromContext(r.Context())
	if !ok || strings.TrimSpace(date) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = principal.UserID
	}

	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "user_id", userID, "date", date)
	entry, err := h.service.GetEntry(r.Context(), principal, userID, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "entry get failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, entryResponse{Entry: toEntryDTO(entry)})
}

func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	userIDs := query["user_id"]
	if len(userIDs) == 0 {
		userIDs = []string{principal.UserID}
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "user_count", len(userIDs))
	entries, err := h.service.ListEntries(r.Context(), application.ListEntriesParams{
		Principal: principal,
		UserIDs:   userIDs,
		FromDate:  strings.TrimSpace(query.Get("from")),
		ToDate:    strings.TrimSpace(query.Get("to")),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "entry list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(entries)).InfoContext(r.Context(), "entries listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEntriesResponse{Entries: toEntryDTOs(entries)})
}

func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date, ok := DateFromContext(r.Context())
	if !ok || strings.TrimSpace(date) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = principal.UserID
	}

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "user_id", userID, "date", date)
	if err := h.service.DeleteEntry(r.Context(), principal, userID, date); err != nil {
		logger.ErrorContext(r.Context(), "entry delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "entry deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type entryRequest struct {
	UserID         string `json:"user_id,omitempty"`
	Date           string `json:"date"`
	Status         string `json:"status"`
	LeaveDuration  string `json:"leave_duration,omitempty"`
	HalfDayPortion string `json:"half_day_portion,omitempty"`
	WorkingPortion string `json:"working_portion,omitempty"`
	StartTime      string `json:"start_time,omitempty"`
	EndTime        string `json:"end_time,omitempty"`
	Note           string `json:"note,omitempty"`
}

// targetUser defaults to the caller when the payload names nobody.
func (r entryRequest) targetUser(principal application.Principal) string {
	if id := strings.TrimSpace(r.UserID); id != "" {
		return id
	}
	return principal.UserID
}

func (r entryRequest) toInput() application.EntryInput {
	return application.EntryInput{
		Date:           strings.TrimSpace(r.Date),
		Status:         strings.TrimSpace(r.Status),
		LeaveDuration:  strings.TrimSpace(r.LeaveDuration),
		HalfDayPortion: strings.TrimSpace(r.HalfDayPortion),
		WorkingPortion: strings.TrimSpace(r.WorkingPortion),
		StartTime:      strings.TrimSpace(r.StartTime),
		EndTime:        strings.TrimSpace(r.EndTime),
		Note:           strings.TrimSpace(r.Note),
	}
}

type bulkApplyRequest struct {
	UserID string       `json:"user_id,omitempty"`
	Dates  []string     `json:"dates"`
	Entry  entryRequest `json:"entry"`
}

type bulkApplyResponse struct {
	Applied []string          `json:"applied"`
	Failed  map[string]string `json:"failed,omitempty"`
}

type entryResponse struct {
	Entry entryDTO `json:"entry"`
}

type listEntriesResponse struct {
	Entries []entryDTO `json:"entries"`
}

type entryDTO struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Date           string `json:"date"`
	Status         string `json:"status"`
	LeaveDuration  string `json:"leave_duration,omitempty"`
	HalfDayPortion string `json:"half_day_portion,omitempty"`
	WorkingPortion string `json:"working_portion,omitempty"`
	StartTime      string `json:"start_time,omitempty"`
	EndTime        string `json:"end_time,omitempty"`
	Note           string `json:"note,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toEntryDTO(entry application.Entry) entryDTO {
	return entryDTO{
		ID:             entry.ID,
		UserID:         entry.UserID,
		Date:           entry.Date,
		Status:         entry.Status,
		LeaveDuration:  entry.LeaveDuration,
		HalfDayPortion: entry.HalfDayPortion,
		WorkingPortion: entry.WorkingPortion,
		StartTime:      entry.StartTime,
		EndTime:        entry.EndTime,
		Note:           entry.Note,
		CreatedAt:      entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      entry.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toEntryDTOs(entries []application.Entry) []entryDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toEntryDTO(entry))
	}
	return out
}
