package services

import (
	"context"
	"fmt"
	"log/slog"

	"eventregistrations/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendRegistrationConfirmation sends the "registration_confirmation" template
// with the verification link for a freshly created registration.
func (s *emailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationEmailData) error {
	if data == nil {
		return fmt.Errorf("registration confirmation data is nil")
	}
	if err := s.send(ctx, "registration_confirmation", data.Email, data); err != nil {
		return err
	}
	s.logger.Info("registration confirmation sent", "to", data.Email)
	return nil
}

// SendVerificationReminder sends the "verification_reminder" template. The
// link references the existing registration, not a new one.
func (s *emailService) SendVerificationReminder(ctx context.Context, data *domain.RegistrationEmailData) error {
	if data == nil {
		return fmt.Errorf("verification reminder data is nil")
	}
	if err := s.send(ctx, "verification_reminder", data.Email, data); err != nil {
		return err
	}
	s.logger.Info("verification reminder sent", "to", data.Email)
	return nil
}

// SendAlreadyRegistered sends the "already_registered" notice without any
// verification link.
func (s *emailService) SendAlreadyRegistered(ctx context.Context, data *domain.AlreadyRegisteredEmailData) error {
	if data == nil {
		return fmt.Errorf("already registered data is nil")
	}
	if err := s.send(ctx, "already_registered", data.Email, data); err != nil {
		return err
	}
	s.logger.Info("already registered notice sent", "to", data.Email)
	return nil
}

func (s *emailService) send(ctx context.Context, templateName, to string, data any) error {
	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", templateName, err)
	}
	if err := s.mailer.Send(ctx, to, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", templateName, err)
	}
	return nil
}
