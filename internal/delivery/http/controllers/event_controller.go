package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "eventregistrations/internal/delivery/http/helpers"
	"eventregistrations/internal/domain"
)

type EventController struct {
	Logger         *slog.Logger
	Events         domain.EventRepository
	PaymentMethods domain.PaymentMethodRepository
}

func NewEventController(logger *slog.Logger, events domain.EventRepository, paymentMethods domain.PaymentMethodRepository) *EventController {
	return &EventController{
		Logger:         logger,
		Events:         events,
		PaymentMethods: paymentMethods,
	}
}

// GetEvent godoc
// @Summary Get an event with its products
// @Description Returns the event together with its products and product variants.
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid event id")
		return
	}
	event, err := c.Events.GetWithProducts(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListPaymentMethods godoc
// @Summary List active payment methods
// @Tags events
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the active payment methods"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /paymentmethods [get]
func (c *EventController) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := c.PaymentMethods.ListActive(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, methods)
}
