package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/example/attendance-tracker/internal/application"
)

// maxICSBodyBytes bounds imported calendar payloads.
const maxICSBodyBytes = 2 << 20

type holidayService interface {
	UpsertHoliday(ctx context.Context, principal application.Principal, input application.HolidayInput) (application.Holiday, error)
	ListHolidays(ctx context.Context, principal application.Principal, fromDate, toDate string) ([]application.Holiday, error)
	DeleteHoliday(ctx context.Context, principal application.Principal, date string) error
}

type HolidayHandler struct {
	service   holidayService
	responder responder
	logger    *slog.Logger
}

func NewHolidayHandler(service holidayService, logger *slog.Logger) *HolidayHandler {
	base := defaultLogger(logger)
	return &HolidayHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *HolidayHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "HolidayHandler", operation, attrs...)
}

func (h *HolidayHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Upsert", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode holiday request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Upsert", "principal_id", principal.UserID, "date", req.Date)

	holiday, err := h.service.UpsertHoliday(r.Context(), principal, application.HolidayInput{
		Date: strings.TrimSpace(req.Date),
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "holiday upsert failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "holiday recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, holidayResponse{Holiday: toHolidayDTO(holiday)})
}

func (h *HolidayHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	holidays, err := h.service.ListHolidays(r.Context(), principal, strings.TrimSpace(query.Get("from")), strings.TrimSpace(query.Get("to")))
	if err != nil {
		logger.ErrorContext(r.Context(), "holiday list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(holidays)).InfoContext(r.Context(), "holidays listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listHolidaysResponse{Holidays: toHolidayDTOs(holidays)})
}

func (h *HolidayHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "date", date)
	if err := h.service.DeleteHoliday(r.Context(), principal, date); err != nil {
		logger.ErrorContext(r.Context(), "holiday delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "holiday deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ExportCalendar renders the holiday table as an iCalendar feed of all-day
// events so employees can subscribe from their calendar client.
func (h *HolidayHandler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	logger := h.log(r.Context(), "ExportCalendar", "principal_id", principal.UserID)
	holidays, err := h.service.ListHolidays(r.Context(), principal, strings.TrimSpace(query.Get("from")), strings.TrimSpace(query.Get("to")))
	if err != nil {
		logger.ErrorContext(r.Context(), "holiday export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//attendance-tracker//holidays//EN")
	for _, holiday := range holidays {
		day, err := time.Parse("2006-01-02", holiday.Date)
		if err != nil {
			continue
		}
		event := cal.AddEvent(fmt.Sprintf("holiday-%s@attendance-tracker", holiday.Date))
		event.SetDtStampTime(holiday.UpdatedAt.UTC())
		event.SetAllDayStartAt(day)
		event.SetAllDayEndAt(day.AddDate(0, 0, 1))
		event.SetSummary(holiday.Name)
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="holidays.ics"`)
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		logger.ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

// ImportCalendar ingests an iCalendar payload and records every all-day
// event as a holiday. Partial imports are reported per date.
func (h *HolidayHandler) ImportCalendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ImportCalendar", "principal_id", principal.UserID)

	cal, err := ical.ParseCalendar(io.LimitReader(r.Body, maxICSBodyBytes))
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to parse calendar", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errors.New("the calendar payload could not be parsed"))
		return
	}

	imported := make([]string, 0)
	failed := make(map[string]string)
	for _, event := range cal.Events() {
		start, err := event.GetStartAt()
		if err != nil {
			continue
		}
		name := ""
		if p := event.GetProperty(ical.ComponentPropertySummary); p != nil {
			name = p.Value
		}
		date := start.Format("2006-01-02")
		if _, err := h.service.UpsertHoliday(r.Context(), principal, application.HolidayInput{
			Date: date,
			Name: name,
		}); err != nil {
			failed[date] = err.Error()
			continue
		}
		imported = append(imported, date)
	}

	logger.With("imported", len(imported), "failed", len(failed)).InfoContext(r.Context(), "calendar imported")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, importCalendarResponse{
		Imported: imported,
		Failed:   failed,
	})
}

type holidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

type holidayResponse struct {
	Holiday holidayDTO `json:"holiday"`
}

type listHolidaysResponse struct {
	Holidays []holidayDTO `json:"holidays"`
}

type importCalendarResponse struct {
	Imported []string          `json:"imported"`
	Failed   map[string]string `json:"failed,omitempty"`
}

type holidayDTO struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toHolidayDTO(holiday application.Holiday) holidayDTO {
	return holidayDTO{
		Date:      holiday.Date,
		Name:      holiday.Name,
		CreatedAt: holiday.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: holiday.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toHolidayDTOs(holidays []application.Holiday) []holidayDTO {
	if len(holidays) == 0 {
		return nil
	}
	out := make([]holidayDTO, 0, len(holidays))
	for _, holiday := range holidays {
		out = append(out, toHolidayDTO(holiday))
	}
	return out
}
