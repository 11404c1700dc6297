package domain

import "context"

// ProductSelection is one product slot submitted with a registration.
// Slots for products with MandatoryCount > 0 are forced to selected by the
// workflow regardless of the submitted value.
type ProductSelection struct {
	ProductID int64  `json:"product_id"`
	Selected  bool   `json:"selected"`
	VariantID *int64 `json:"variant_id,omitempty"`
}

// IntakeRequest is the full registration submission for one event.
type IntakeRequest struct {
	EventID int64 `json:"-"`

	ParticipantName     string `json:"participant_name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	ParticipantEmployer string `json:"participant_employer,omitempty"`
	ParticipantJobTitle string `json:"participant_job_title,omitempty"`
	ParticipantCity     string `json:"participant_city,omitempty"`
	Notes               string `json:"notes,omitempty"`

	CustomerName             string `json:"customer_name,omitempty"`
	CustomerEmail            string `json:"customer_email,omitempty"`
	CustomerVatNumber        string `json:"customer_vat_number,omitempty"`
	CustomerInvoiceReference string `json:"customer_invoice_reference,omitempty"`

	PaymentMethodID *int64 `json:"payment_method_id,omitempty"`

	Products []ProductSelection `json:"products,omitempty"`
}

// IntakeOutcome names how a registration attempt ended.
type IntakeOutcome string

const (
	// IntakeOutcomeCreated means a new registration and draft order were persisted.
	IntakeOutcomeCreated IntakeOutcome = "created"
	// IntakeOutcomeReminderSent means an unverified registration already existed
	// and a verification reminder was mailed; nothing new was created.
	IntakeOutcomeReminderSent IntakeOutcome = "verification_reminder_sent"
	// IntakeOutcomeAlreadyRegistered means a verified registration already
	// existed; a notice without a verification link was mailed.
	IntakeOutcomeAlreadyRegistered IntakeOutcome = "already_registered"
	// IntakeOutcomeInvalid means the submission failed validation; FieldErrors
	// carries the messages and storage was not touched.
	IntakeOutcomeInvalid IntakeOutcome = "invalid"
)

// IntakeResult reports the end state of one registration attempt.
type IntakeResult struct {
	Outcome      IntakeOutcome `json:"outcome"`
	Registration *Registration `json:"registration,omitempty"`
	Order        *Order        `json:"order,omitempty"`
	FieldErrors  []string      `json:"field_errors,omitempty"`
}

// IntakeService runs the registration intake workflow for an event.
type IntakeService interface {
	// Register resolves the event, forces mandatory product selections,
	// validates the submission, resolves or creates the user, detects
	// duplicates, and materializes registration + draft order + lines in a
	// single transaction before notifying. It returns ErrNotFound when the
	// event does not exist or is archived.
	Register(ctx context.Context, req *IntakeRequest) (*IntakeResult, error)

	// ProductOptions returns the selection slots presented for the event, with
	// mandatory products pre-selected.
	ProductOptions(ctx context.Context, eventID int64) ([]ProductSelection, error)
}
