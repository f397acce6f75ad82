package payout

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/genixhq/genix/internal/payout"
)

const (
	msgNothingPending = "No pending payouts"
	msgRunInProgress  = "A payout run is already in progress"
	msgSchemaMissing  = "Payout tables are missing. Apply the database schema (cmd/migrate) before running payouts."
	msgInternal       = "Failed to process payouts"
)

type Handler struct {
	svc        *payout.Service
	logger     *zap.Logger
	validate   *validator.Validate
	production bool
}

// NewHandler builds the admin payout handler. In production, unexpected error
// messages are replaced with a generic one.
func NewHandler(svc *payout.Service, logger *zap.Logger, production bool) *Handler {
	return &Handler{
		svc:        svc,
		logger:     logger,
		validate:   validator.New(),
		production: production,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.preview)
	r.Post("/", h.run)
	r.Get("/transfers", h.listTransfers)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.svc.Preview(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toPreviewResponse(preview))
}

type runRequest struct {
	DryRun *bool `json:"dryRun"`
	Limit  *int  `json:"limit" validate:"omitempty,min=1,max=500"`
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "Invalid request body",
			Fields: validationFields(err),
		})

		return
	}

	params := payout.RunParams{DryRun: true, Limit: payout.DefaultLimit}

	if req.DryRun != nil {
		params.DryRun = *req.DryRun
	}

	if req.Limit != nil {
		params.Limit = *req.Limit
	}

	summary, err := h.svc.Run(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if summary.Processed == 0 {
		h.writeJSON(w, http.StatusOK, emptyRunResponse{
			Processed:         0,
			GroupedDevelopers: 0,
			DryRun:            summary.DryRun,
			Message:           msgNothingPending,
		})

		return
	}

	h.writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	var filter payout.ListFilter

	q := r.URL.Query()

	if s := strings.TrimSpace(q.Get("developer_id")); s != "" {
		filter.DeveloperID = new(s)
	}

	if s := q.Get("status"); s != "" {
		status := payout.Status(s)
		if !status.Valid() {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid status"})
			return
		}

		filter.Status = new(status)
	}

	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid limit"})
			return
		}

		filter.Limit = limit
	}

	records, err := h.svc.ListTransfers(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toTransferResponseList(records))
}

// writeError is the single mapping from service errors to HTTP responses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payout.ErrRunInProgress):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: msgRunInProgress})
	case isSchemaMissing(err):
		h.logger.Error("payout schema missing", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgSchemaMissing})
	default:
		h.logger.Error("payout request failed", zap.Error(err))

		msg := err.Error()
		if h.production {
			msg = msgInternal
		}

		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
	}
}

func isSchemaMissing(err error) bool {
	return errors.Is(err, payout.ErrSchemaMissing) || strings.Contains(err.Error(), "payout_transfers")
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func validationFields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make(map[string]string, len(verrs))
	for _, ve := range verrs {
		fields[ve.Field()] = ve.Tag()
	}

	return fields
}
