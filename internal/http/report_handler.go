package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/attendance-tracker/internal/application"
)

type reportService interface {
	MonthlyReport(ctx context.Context, params application.MonthlyReportParams) ([]application.MonthlyReportRow, error)
	WriteCSV(w io.Writer, month string, rows []application.MonthlyReportRow) error
}

type ReportHandler struct {
	service   reportService
	responder responder
	logger    *slog.Logger
}

func NewReportHandler(service reportService, logger *slog.Logger) *ReportHandler {
	base := defaultLogger(logger)
	return &ReportHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReportHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReportHandler", operation, attrs...)
}

// Monthly serves the per-user attendance summary for one month. The
// response is JSON by default and CSV when format=csv is requested.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	month := strings.TrimSpace(query.Get("month"))
	if month == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
		return
	}

	logger := h.log(r.Context(), "Monthly", "principal_id", principal.UserID, "month", month)
	rows, err := h.service.MonthlyReport(r.Context(), application.MonthlyReportParams{
		Principal: principal,
		Month:     month,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "monthly report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if strings.EqualFold(query.Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="attendance-%s.csv"`, month))
		if err := h.service.WriteCSV(w, month, rows); err != nil {
			logger.ErrorContext(r.Context(), "failed to write report csv", "error", err)
		}
		return
	}

	logger.With("result_count", len(rows)).InfoContext(r.Context(), "monthly report served")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthlyReportResponse{
		Month: month,
		Rows:  toReportRowDTOs(rows),
	})
}

type monthlyReportResponse struct {
	Month string         `json:"month"`
	Rows  []reportRowDTO `json:"rows"`
}

type reportRowDTO struct {
	UserID        string  `json:"user_id"`
	Email         string  `json:"email"`
	DisplayName   string  `json:"display_name"`
	WorkingDays   int     `json:"working_days"`
	OfficeDays    int     `json:"office_days"`
	LeaveDays     int     `json:"leave_days"`
	WFHDays       int     `json:"wfh_days"`
	OfficePercent float64 `json:"office_percent"`
}

func toReportRowDTOs(rows []application.MonthlyReportRow) []reportRowDTO {
	if len(rows) == 0 {
		return nil
	}
	out := make([]reportRowDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, reportRowDTO{
			UserID:        row.UserID,
			Email:         row.Email,
			DisplayName:   row.DisplayName,
			WorkingDays:   row.WorkingDays,
			OfficeDays:    row.OfficeDays,
			LeaveDays:     row.LeaveDays,
			WFHDays:       row.WFHDays,
			OfficePercent: row.OfficePercent,
		})
	}
	return out
}
