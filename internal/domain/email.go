package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// RegistrationEmailData holds data for the registration confirmation email and
// the verification reminder email.
type RegistrationEmailData struct {
	Name             string
	Email            string
	Phone            string
	EventTitle       string
	EventDescription string
	VerificationURL  string
}

// AlreadyRegisteredEmailData holds data for the notice sent when a verified
// registration already exists. It carries no verification link.
type AlreadyRegisteredEmailData struct {
	Name       string
	Email      string
	EventTitle string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	// SendRegistrationConfirmation asks a fresh registrant to confirm via the
	// verification link.
	SendRegistrationConfirmation(ctx context.Context, data *RegistrationEmailData) error
	// SendVerificationReminder nudges an existing unverified registrant with
	// the original registration's verification link.
	SendVerificationReminder(ctx context.Context, data *RegistrationEmailData) error
	// SendAlreadyRegistered tells a verified registrant that nothing new was
	// created.
	SendAlreadyRegistered(ctx context.Context, data *AlreadyRegisteredEmailData) error
}
