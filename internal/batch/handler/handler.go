package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"satpay/internal/batch"
	"satpay/internal/batch/csv"
	"satpay/internal/batch/models"
	"satpay/internal/batch/ports"
	"satpay/internal/platform/middleware"
	"satpay/pkg/platform/httputil"
)

// Service defines the pipeline operations the HTTP surface exposes.
type Service interface {
	Parse(raw string) (*models.ParseResult, error)
	Validate(ctx context.Context, raw string) (*batch.RunReport, error)
	Estimate(ctx context.Context, raw string, availableSats int64) (*batch.RunReport, error)
	Execute(ctx context.Context, raw string, availableSats int64, progress ports.ProgressFunc) (*batch.RunReport, error)
}

// Handler wires batch endpoints to the payment pipeline.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a batch handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the read-only batch endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/batch/template", h.HandleTemplate)
	r.Post("/v1/batch/parse", h.HandleParse)
	r.Post("/v1/batch/validate", h.HandleValidate)
	r.Post("/v1/batch/estimate", h.HandleEstimate)
}

// RegisterExecute mounts the money-moving endpoint. Kept separate so the
// router can put it behind operator authentication.
func (h *Handler) RegisterExecute(r chi.Router) {
	r.Post("/v1/batch/execute", h.HandleExecute)
}

// HandleTemplate handles GET /v1/batch/template requests.
func (h *Handler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="batch-template.csv"`)
	_, _ = w.Write([]byte(csv.Template()))
}

// HandleParse handles POST /v1/batch/parse requests.
func (h *Handler) HandleParse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.service.Parse(req.CSV)
	if err != nil {
		h.fail(ctx, w, "parse", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleValidate handles POST /v1/batch/validate requests.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	report, err := h.service.Validate(ctx, req.CSV)
	if err != nil {
		h.fail(ctx, w, "validate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleEstimate handles POST /v1/batch/estimate requests.
func (h *Handler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeJSON[EstimateRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.Estimate(ctx, req.CSV, req.AvailableSats)
	if err != nil {
		h.fail(ctx, w, "estimate", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleExecute handles POST /v1/batch/execute requests. Execution is
// synchronous; the response carries the per-recipient outcomes once the last
// payment attempt has settled.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	operatorID := middleware.GetOperatorID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeJSON[EstimateRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	progress := func(p models.Progress) {
		h.logger.InfoContext(ctx, "batch progress",
			"request_id", requestID,
			"completed", p.Completed,
			"total", p.Total,
			"percent", p.Percent,
		)
	}

	report, err := h.service.Execute(ctx, req.CSV, req.AvailableSats, progress)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch execution failed",
			"request_id", requestID,
			"operator_id", operatorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch executed",
		"request_id", requestID,
		"operator_id", operatorID,
		"batch_id", report.Result.ID,
		"succeeded", report.Result.Summary.Successful,
		"failed", report.Result.Summary.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (ParseRequest, bool) {
	req, ok := httputil.DecodeJSON[ParseRequest](w, r, h.logger)
	if !ok {
		return req, false
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return req, false
	}
	return req, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, phase string, err error) {
	h.logger.ErrorContext(ctx, "batch request failed",
		"request_id", middleware.GetRequestID(ctx),
		"phase", phase,
		"error", err,
	)
	httputil.WriteError(w, err)
}
