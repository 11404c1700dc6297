package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RegistrationStatus is the lifecycle state of a registration.
type RegistrationStatus string

const (
	RegistrationStatusDraft     RegistrationStatus = "draft"
	RegistrationStatusActive    RegistrationStatus = "active"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
	RegistrationStatusFinished  RegistrationStatus = "finished"
)

// ParseRegistrationStatus returns the RegistrationStatus for s, or ErrInvalidInput.
func ParseRegistrationStatus(s string) (RegistrationStatus, error) {
	switch RegistrationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case RegistrationStatusDraft:
		return RegistrationStatusDraft, nil
	case RegistrationStatusActive:
		return RegistrationStatusActive, nil
	case RegistrationStatusCancelled:
		return RegistrationStatusCancelled, nil
	case RegistrationStatusFinished:
		return RegistrationStatusFinished, nil
	}
	return "", fmt.Errorf("%w: unknown registration status %q", ErrInvalidInput, s)
}

// IsTerminal reports whether the status ends the registration lifecycle.
// Only one non-terminal registration may exist per (user, event).
func (s RegistrationStatus) IsTerminal() bool {
	return s == RegistrationStatusCancelled || s == RegistrationStatusFinished
}

// RegistrationType classifies the participant.
type RegistrationType string

const (
	RegistrationTypeParticipant RegistrationType = "participant"
	RegistrationTypeStudent     RegistrationType = "student"
	RegistrationTypeStaff       RegistrationType = "staff"
	RegistrationTypeLecturer    RegistrationType = "lecturer"
)

// ParseRegistrationType returns the RegistrationType for s, or ErrInvalidInput.
func ParseRegistrationType(s string) (RegistrationType, error) {
	switch RegistrationType(strings.ToLower(strings.TrimSpace(s))) {
	case RegistrationTypeParticipant:
		return RegistrationTypeParticipant, nil
	case RegistrationTypeStudent:
		return RegistrationTypeStudent, nil
	case RegistrationTypeStaff:
		return RegistrationTypeStaff, nil
	case RegistrationTypeLecturer:
		return RegistrationTypeLecturer, nil
	}
	return "", fmt.Errorf("%w: unknown registration type %q", ErrInvalidInput, s)
}

// Registration represents one participant's claim to attend one event.
// swagger:model Registration
type Registration struct {
	ID      int64  `json:"id"`
	EventID int64  `json:"event_id"`
	UserID  string `json:"user_id"`

	ParticipantName     string `json:"participant_name"`
	ParticipantEmail    string `json:"participant_email"`
	ParticipantPhone    string `json:"participant_phone"`
	ParticipantEmployer string `json:"participant_employer,omitempty"`
	ParticipantJobTitle string `json:"participant_job_title,omitempty"`
	ParticipantCity     string `json:"participant_city,omitempty"`

	CustomerName             string `json:"customer_name,omitempty"`
	CustomerEmail            string `json:"customer_email,omitempty"`
	CustomerVatNumber        string `json:"customer_vat_number,omitempty"`
	CustomerInvoiceReference string `json:"customer_invoice_reference,omitempty"`
	CustomerAddress          string `json:"customer_address,omitempty"`
	CustomerZip              string `json:"customer_zip,omitempty"`
	CustomerCity             string `json:"customer_city,omitempty"`
	CustomerCountry          string `json:"customer_country,omitempty"`

	PaymentMethodID *int64 `json:"payment_method_id,omitempty"`

	Notes string `json:"notes,omitempty"`

	// VerificationCode is mailed to the participant; Verified flips to true
	// when the participant follows the link with the matching code.
	VerificationCode string `json:"-"`
	Verified         bool   `json:"verified"`

	Status RegistrationStatus `json:"status"`
	Type   RegistrationType   `json:"type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRegistration returns an active, unverified registration with the given
// verification code. ID is set by the repository on create.
func NewRegistration(eventID int64, userID, verificationCode string, now time.Time) *Registration {
	return &Registration{
		EventID:          eventID,
		UserID:           userID,
		VerificationCode: verificationCode,
		Verified:         false,
		Status:           RegistrationStatusActive,
		Type:             RegistrationTypeParticipant,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ParticipantInfo is the updateable participant block.
type ParticipantInfo struct {
	Name     string
	JobTitle string
	City     string
	Employer string
}

// CustomerInfo is the updateable billing block.
type CustomerInfo struct {
	Name             string
	Email            string
	VatNumber        string
	InvoiceReference string
}

// CustomerAddress is the updateable billing address block.
type CustomerAddress struct {
	Address string
	Zip     string
	City    string
	Country string
}

// RegistrationRepository defines storage operations for registrations.
type RegistrationRepository interface {
	// CreateWithOrder inserts the registration, its draft order, the order's
	// audit log, and all order lines in one transaction. The store carries a
	// partial unique index on (user_id, event_id) over non-terminal statuses;
	// a violation is returned as ErrDuplicateRegistration with nothing
	// persisted.
	CreateWithOrder(ctx context.Context, reg *Registration, order *Order) error

	GetByID(ctx context.Context, id int64) (*Registration, error)

	// GetByEventAndUser returns the registration in a non-terminal status for
	// the pair, or ErrNotFound. Cancelled and finished rows are not
	// considered.
	GetByEventAndUser(ctx context.Context, eventID int64, userID string) (*Registration, error)

	SetVerified(ctx context.Context, id int64) error
	UpdateParticipantInfo(ctx context.Context, id int64, info ParticipantInfo) error
	UpdateCustomerInfo(ctx context.Context, id int64, info CustomerInfo) error
	UpdateCustomerAddress(ctx context.Context, id int64, addr CustomerAddress) error
	UpdatePaymentMethod(ctx context.Context, id int64, paymentMethodID int64) error
	UpdateStatus(ctx context.Context, id int64, status RegistrationStatus) error
	UpdateType(ctx context.Context, id int64, t RegistrationType) error
}

// RegistrationService drives verification and the admin-facing registration
// updates.
type RegistrationService interface {
	GetRegistration(ctx context.Context, id int64) (*Registration, error)

	// Confirm verifies the registration when the supplied code matches.
	// It returns false without mutation on a wrong code, and is idempotent
	// once verified.
	Confirm(ctx context.Context, registrationID int64, code string) (bool, error)

	UpdateParticipantInfo(ctx context.Context, id int64, info ParticipantInfo) error
	UpdateCustomerInfo(ctx context.Context, id int64, info CustomerInfo, addr CustomerAddress) error
	UpdatePaymentMethod(ctx context.Context, id int64, paymentMethodID int64) error
	// UpdateStatus sets the registration status; cancelling cascades to
	// cancelling all of the registration's orders.
	UpdateStatus(ctx context.Context, id int64, status RegistrationStatus) error
	UpdateType(ctx context.Context, id int64, t RegistrationType) error
}

// CodeGenerator produces short human-enterable verification codes.
type CodeGenerator interface {
	Generate(length int) string
}
