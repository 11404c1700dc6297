package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	h "eventregistrations/internal/delivery/http/helpers"
	"eventregistrations/internal/domain"
)

type OrderController struct {
	Logger *slog.Logger
	Orders domain.OrderService
}

func NewOrderController(logger *slog.Logger, orders domain.OrderService) *OrderController {
	return &OrderController{
		Logger: logger,
		Orders: orders,
	}
}

// GetOrder godoc
// @Summary Get an order
// @Description Returns the order with its lines and full status audit log.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} helpers.APIResponse "data contains the order"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orders/{id} [get]
func (c *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid order id")
		return
	}
	order, err := c.Orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "order not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, order)
}

// UpdateOrderStatusRequest is the request body for changing the order status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

// Validate implements Validator.
func (u UpdateOrderStatusRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.Status) == "" {
		errs = append(errs, "status is required")
	}
	return errs
}

// UpdateStatus godoc
// @Summary Update the status of an order
// @Description Drives the order state machine: draft -> verified -> invoiced, and any status -> cancelled. Draft cannot be re-entered. Each transition is appended to the order's audit log with the optional note.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body UpdateOrderStatusRequest true "Target status and optional note"
// @Success 204 "transition applied"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request; illegal transition"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict; lost a concurrent transition"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orders/{id}/status [patch]
func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid order id")
		return
	}
	var req UpdateOrderStatusRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
		return
	}

	err = c.Orders.UpdateOrderStatus(r.Context(), id, status, req.Note)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "order not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}

// AddOrderLineRequest is the request body for adding a line to an order.
type AddOrderLineRequest struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
}

// Validate implements Validator.
func (a AddOrderLineRequest) Validate() []string {
	var errs []string
	if a.ProductID <= 0 {
		errs = append(errs, "product_id is required")
	}
	return errs
}

// AddLine godoc
// @Summary Add a line to an order
// @Description Adds a product (optionally a variant) to a draft or verified order. Name and price are snapshotted from the catalog; the variant price wins when a variant is chosen.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param body body AddOrderLineRequest true "Product and optional variant"
// @Success 201 {object} helpers.APIResponse "data contains the created line"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request; product not on the order's event or unknown variant"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict; order no longer editable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orders/{id}/lines [post]
func (c *OrderController) AddLine(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid order id")
		return
	}
	var req AddOrderLineRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	line, err := c.Orders.AddOrderLine(r.Context(), id, req.ProductID, req.VariantID)
	switch {
	case err == nil:
		h.WriteJSONSuccess(w, http.StatusCreated, line)
	case errors.Is(err, domain.ErrNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "order not found")
	case errors.Is(err, domain.ErrOrderNotEditable):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "order is no longer editable")
	case errors.Is(err, domain.ErrInvalidInput):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}

// UpdateOrderLineRequest is the request body for updating an order line.
type UpdateOrderLineRequest struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Validate implements Validator.
func (u UpdateOrderLineRequest) Validate() []string {
	var errs []string
	if u.Quantity < 0 {
		errs = append(errs, "quantity must not be negative")
	}
	if u.Price.IsNegative() {
		errs = append(errs, "price must not be negative")
	}
	return errs
}

// UpdateLine godoc
// @Summary Update an order line
// @Description Overrides quantity and price of a line while the owning order is still editable.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lineID path int true "Order line ID"
// @Param body body UpdateOrderLineRequest true "Quantity and price"
// @Success 204 "updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict; order no longer editable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orders/lines/{lineID} [put]
func (c *OrderController) UpdateLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := pathID(r, "lineID")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid line id")
		return
	}
	var req UpdateOrderLineRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}

	err := c.Orders.UpdateOrderLine(r.Context(), lineID, req.Quantity, req.Price)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "order line not found")
	case errors.Is(err, domain.ErrOrderNotEditable):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "order is no longer editable")
	case errors.Is(err, domain.ErrInvalidInput):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}

// DeleteLine godoc
// @Summary Delete an order line
// @Description Removes a line while the owning order is still editable.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param lineID path int true "Order line ID"
// @Success 204 "deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict; order no longer editable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /orders/lines/{lineID} [delete]
func (c *OrderController) DeleteLine(w http.ResponseWriter, r *http.Request) {
	lineID, ok := pathID(r, "lineID")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid line id")
		return
	}

	deleted, err := c.Orders.DeleteOrderLine(r.Context(), lineID)
	switch {
	case err == nil && deleted:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrNotFound), err == nil && !deleted:
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "order line not found")
	case errors.Is(err, domain.ErrOrderNotEditable):
		h.WriteJSONError(w, http.StatusConflict, h.ErrCodeConflict, "order is no longer editable")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}
