package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	h "eventregistrations/internal/delivery/http/helpers"
	"eventregistrations/internal/domain"
)

type RegistrationController struct {
	Logger        *slog.Logger
	Intake        domain.IntakeService
	Registrations domain.RegistrationService
}

func NewRegistrationController(logger *slog.Logger, intake domain.IntakeService, registrations domain.RegistrationService) *RegistrationController {
	return &RegistrationController{
		Logger:        logger,
		Intake:        intake,
		Registrations: registrations,
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// Register godoc
// @Summary Register for an event
// @Description Submit a registration for an event. Mandatory products are always included regardless of the submitted selections. A draft order is created together with the registration and a confirmation email with a verification link is sent. Repeat submissions for the same participant do not create a second registration; they trigger a verification reminder or an already-registered notice instead.
// @Tags registrations
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body domain.IntakeRequest true "Registration data"
// @Success 201 {object} helpers.APIResponse "data contains the intake result with the created registration and order"
// @Success 200 {object} helpers.APIResponse "data contains the intake result for an existing registration"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request; field errors joined in the message"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/registrations [post]
func (c *RegistrationController) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid event id")
		return
	}

	var req domain.IntakeRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	req.EventID = eventID

	result, err := c.Intake.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}

	switch result.Outcome {
	case domain.IntakeOutcomeInvalid:
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, strings.Join(result.FieldErrors, "; "))
	case domain.IntakeOutcomeCreated:
		h.WriteJSONSuccess(w, http.StatusCreated, result)
	default:
		h.WriteJSONSuccess(w, http.StatusOK, result)
	}
}

// ProductOptions godoc
// @Summary List product selection options for an event
// @Description Returns the product slots presented on the registration form, with mandatory products pre-selected and the first variant chosen as default.
// @Tags registrations
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the selection slots"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/registrations/options [get]
func (c *RegistrationController) ProductOptions(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid event id")
		return
	}
	options, err := c.Intake.ProductOptions(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, options)
}

// ConfirmResponse is the response body for registration confirmation.
type ConfirmResponse struct {
	Verified bool `json:"verified"`
}

// Confirm godoc
// @Summary Confirm a registration
// @Description Verifies the registration when the supplied code matches the one mailed to the participant. A wrong code leaves the registration untouched; confirming an already verified registration succeeds.
// @Tags registrations
// @Produce json
// @Param id path int true "Registration ID"
// @Param code query string true "Verification code"
// @Success 200 {object} helpers.APIResponse "data contains the verification result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request; code did not match"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{id}/confirm [get]
func (c *RegistrationController) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid registration id")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "missing code")
		return
	}

	verified, err := c.Registrations.Confirm(r.Context(), id, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "registration not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	if !verified {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "verification code did not match")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, ConfirmResponse{Verified: true})
}

// GetRegistration godoc
// @Summary Get a registration
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Success 200 {object} helpers.APIResponse "data contains the registration"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{id} [get]
func (c *RegistrationController) GetRegistration(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid registration id")
		return
	}
	reg, err := c.Registrations.GetRegistration(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "registration not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, reg)
}

// UpdateParticipantRequest is the request body for updating participant info.
type UpdateParticipantRequest struct {
	Name     string `json:"name"`
	JobTitle string `json:"job_title"`
	City     string `json:"city"`
	Employer string `json:"employer"`
}

// Validate implements Validator.
func (u UpdateParticipantRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// UpdateParticipant godoc
// @Summary Update participant info on a registration
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param body body UpdateParticipantRequest true "Participant info"
// @Success 204 "updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{id}/participant [put]
func (c *RegistrationController) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid registration id")
		return
	}
	var req UpdateParticipantRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	err := c.Registrations.UpdateParticipantInfo(r.Context(), id, domain.ParticipantInfo{
		Name:     req.Name,
		JobTitle: req.JobTitle,
		City:     req.City,
		Employer: req.Employer,
	})
	c.writeUpdateResult(w, r, err, "registration not found")
}

// UpdateCustomerRequest is the request body for updating customer/billing info.
type UpdateCustomerRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	VatNumber        string `json:"vat_number"`
	InvoiceReference string `json:"invoice_reference"`
	Address          string `json:"address"`
	Zip              string `json:"zip"`
	City             string `json:"city"`
	Country          string `json:"country"`
}

// UpdateCustomer godoc
// @Summary Update customer billing info on a registration
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param body body UpdateCustomerRequest true "Customer info"
// @Success 204 "updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{id}/customer [put]
func (c *RegistrationController) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid registration id")
		return
	}
	var req UpdateCustomerRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	err := c.Registrations.UpdateCustomerInfo(r.Context(), id,
		domain.CustomerInfo{
			Name:             req.Name,
			Email:            req.Email,
			VatNumber:        req.VatNumber,
			InvoiceReference: req.InvoiceReference,
		},
		domain.CustomerAddress{
			Address: req.Address,
			Zip:     req.Zip,
			City:    req.City,
			Country: req.Country,
		})
	c.writeUpdateResult(w, r, err, "registration not found")
}

// UpdatePaymentMethodRequest is the request body for changing the payment method.
type UpdatePaymentMethodRequest struct {
	PaymentMethodID int64 `json:"payment_method_id"`
}

// Validate implements Validator.
func (u UpdatePaymentMethodRequest) Validate() []string {
	var errs []string
	if u.PaymentMethodID <= 0 {
		errs = append(errs, "payment_method_id is required")
	}
	return errs
}

// UpdatePaymentMethod godoc
// @Summary Update the payment method on a registration
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param body body UpdatePaymentMethodRequest true "Payment method"
// @Success 204 "updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request; unknown or inactive payment method"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{id}/paymentmethod [put]
func (c *RegistrationController) UpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid registration id")
		return
	}
	var req UpdatePaymentMethodRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	err := c.Registrations.UpdatePaymentMethod(r.Context(), id, req.PaymentMethodID)
	c.writeUpdateResult(w, r, err, "registration not found")
}

// UpdateRegistrationStatusRequest is the request body for changing the registration status.
type UpdateRegistrationStatusRequest struct {
	Status string `json:"status"`
}

// Validate implements Validator.
func (u UpdateRegistrationStatusRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.Status) == "" {
		errs = append(errs, "status is required")
	}
	return errs
}

// UpdateStatus godoc
// @Summary Update the status of a registration
// @Description Sets the registration status. Cancelling a registration also cancels all of its orders.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param body body UpdateRegistrationStatusRequest true "New status"
// @Success 204 "updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request; unknown status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{id}/status [patch]
func (c *RegistrationController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid registration id")
		return
	}
	var req UpdateRegistrationStatusRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	status, err := domain.ParseRegistrationStatus(req.Status)
	if err != nil {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
		return
	}
	err = c.Registrations.UpdateStatus(r.Context(), id, status)
	c.writeUpdateResult(w, r, err, "registration not found")
}

// UpdateRegistrationTypeRequest is the request body for changing the registration type.
type UpdateRegistrationTypeRequest struct {
	Type string `json:"type"`
}

// Validate implements Validator.
func (u UpdateRegistrationTypeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.Type) == "" {
		errs = append(errs, "type is required")
	}
	return errs
}

// UpdateType godoc
// @Summary Update the type of a registration
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Registration ID"
// @Param body body UpdateRegistrationTypeRequest true "New type"
// @Success 204 "updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request; unknown type"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /registrations/{id}/type [patch]
func (c *RegistrationController) UpdateType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid registration id")
		return
	}
	var req UpdateRegistrationTypeRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	regType, err := domain.ParseRegistrationType(req.Type)
	if err != nil {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
		return
	}
	err = c.Registrations.UpdateType(r.Context(), id, regType)
	c.writeUpdateResult(w, r, err, "registration not found")
}

func (c *RegistrationController) writeUpdateResult(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, domain.ErrNotFound):
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, notFoundMsg)
	case errors.Is(err, domain.ErrInvalidInput):
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteJSONError(w, http.StatusInternalServerError, h.ErrCodeInternalError, err.Error())
	}
}
