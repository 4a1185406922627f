package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/attendance-tracker/internal/application"
	"github.com/example/attendance-tracker/internal/reasoning"
	"github.com/example/attendance-tracker/internal/workbot"
)

type workbotService interface {
	HandleQuery(ctx context.Context, principal application.Principal, query string) (workbot.Response, error)
}

type WorkbotHandler struct {
	service   workbotService
	responder responder
	logger    *slog.Logger
}

func NewWorkbotHandler(service workbotService, logger *slog.Logger) *WorkbotHandler {
	base := defaultLogger(logger)
	return &WorkbotHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *WorkbotHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "WorkbotHandler", operation, attrs...)
}

func (h *WorkbotHandler) Query(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req workbotQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Query", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode workbot request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errEmptyQuery)
		return
	}

	logger := h.log(r.Context(), "Query", "principal_id", principal.UserID)
	response, err := h.service.HandleQuery(r.Context(), principal, query)
	if err != nil {
		logger.ErrorContext(r.Context(), "workbot query failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("kind", response.Kind).InfoContext(r.Context(), "workbot query answered")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, workbotQueryResponse{
		Kind:           response.Kind,
		Message:        response.Message,
		Dates:          response.Dates,
		ModifierErrors: response.ModifierErrors,
		Reasoning:      response.Reasoning,
	})
}

type workbotQueryRequest struct {
	Query string `json:"query"`
}

type workbotQueryResponse struct {
	Kind           string            `json:"kind"`
	Message        string            `json:"message"`
	Dates          []string          `json:"dates,omitempty"`
	ModifierErrors []string          `json:"modifier_errors,omitempty"`
	Reasoning      *reasoning.Result `json:"reasoning,omitempty"`
}
