package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "optlattice/internal/errors"
	"optlattice/internal/services"
	api "optlattice/pkg/contracts/api/v1"
)

// PricingHandler handles option pricing HTTP requests
type PricingHandler struct {
	service      *services.PricingService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(service *services.PricingService, logger *slog.Logger) *PricingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PricingHandler{
		service:      service,
		logger:       logger,
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
}

// RegisterRoutes registers the pricing routes
func (h *PricingHandler) RegisterRoutes(r chi.Router) {
	r.Route("/pricing", func(r chi.Router) {
		r.Post("/value", h.Value)
		r.Post("/chain", h.Chain)
		r.Post("/grid", h.Grid)
	})
}

// Value prices a single contract
func (h *PricingHandler) Value(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ValueRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode value request",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	resp, err := h.service.Value(ctx, &req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}

// Chain prices one contract per strike
func (h *PricingHandler) Chain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.ChainRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode chain request",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	resp, err := h.service.Chain(ctx, &req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}

// Grid returns the full value and policy grids for a contract
func (h *PricingHandler) Grid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.GridRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode grid request",
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	resp, err := h.service.Grid(ctx, &req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}
