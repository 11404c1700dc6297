package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"eventregistrations/internal/domain"
)

const maxParticipantNameLength = 100

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IntakeConfig holds the configuration the intake workflow needs.
type IntakeConfig struct {
	// BaseURL is the public base URL verification links are built from.
	BaseURL string
	// DefaultPaymentMethodID is applied when the submission carries none.
	DefaultPaymentMethodID int64
	// CodeLength is the verification code length; zero means the generator's
	// default.
	CodeLength int
}

type intakeService struct {
	eventRepo        domain.EventRepository
	userRepo         domain.UserRepository
	registrationRepo domain.RegistrationRepository
	codes            domain.CodeGenerator
	emailService     domain.EmailService
	cfg              IntakeConfig
	logger           *slog.Logger
}

// NewIntakeService creates the registration intake workflow.
func NewIntakeService(
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	registrationRepo domain.RegistrationRepository,
	codes domain.CodeGenerator,
	emailService domain.EmailService,
	cfg IntakeConfig,
	logger *slog.Logger,
) domain.IntakeService {
	return &intakeService{
		eventRepo:        eventRepo,
		userRepo:         userRepo,
		registrationRepo: registrationRepo,
		codes:            codes,
		emailService:     emailService,
		cfg:              cfg,
		logger:           logger,
	}
}

// ProductOptions returns one selection slot per product on the event, with
// mandatory products pre-selected and the first variant as default.
func (s *intakeService) ProductOptions(ctx context.Context, eventID int64) ([]domain.ProductSelection, error) {
	event, err := s.getOpenEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return defaultSelections(event), nil
}

func (s *intakeService) Register(ctx context.Context, req *domain.IntakeRequest) (*domain.IntakeResult, error) {
	// Step 1: resolve the event; archived events are closed for registration.
	event, err := s.getOpenEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	// Step 2: reconcile the submitted product slots against the catalog.
	// Mandatory products cannot be deselected; unknown slots are dropped.
	selections := reconcileSelections(event, req.Products)

	// Step 3: structural validation. On failure nothing is persisted.
	if fieldErrors := validateIntake(req); len(fieldErrors) > 0 {
		return &domain.IntakeResult{Outcome: domain.IntakeOutcomeInvalid, FieldErrors: fieldErrors}, nil
	}

	// Step 4: resolve or create the user. Identity errors become field errors
	// rather than aborting the request.
	user, fieldErrors := s.resolveUser(ctx, req)
	if len(fieldErrors) > 0 {
		return &domain.IntakeResult{Outcome: domain.IntakeOutcomeInvalid, FieldErrors: fieldErrors}, nil
	}

	// Step 5: duplicate check before any write. A cancelled or finished
	// registration is over; it does not block re-registering.
	existing, err := s.registrationRepo.GetByEventAndUser(ctx, event.ID, user.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if existing != nil && !existing.Status.IsTerminal() {
		return s.notifyDuplicate(ctx, event, existing, req)
	}

	// Step 6: registration notes carry a readable summary of the selected
	// products; a free-text comment from the participant is appended, never
	// overwritten.
	notes := selectionSummary(event, selections)
	if comment := strings.TrimSpace(req.Notes); comment != "" {
		if notes != "" {
			notes += "\n" + comment
		} else {
			notes = comment
		}
	}

	// Step 7: materialize registration + draft order + lines in one transaction.
	now := time.Now()
	reg := domain.NewRegistration(event.ID, user.ID, s.codes.Generate(s.cfg.CodeLength), now)
	reg.ParticipantName = strings.TrimSpace(req.ParticipantName)
	reg.ParticipantEmail = normalizeEmail(req.Email)
	reg.ParticipantPhone = strings.TrimSpace(req.Phone)
	reg.ParticipantEmployer = strings.TrimSpace(req.ParticipantEmployer)
	reg.ParticipantJobTitle = strings.TrimSpace(req.ParticipantJobTitle)
	reg.ParticipantCity = strings.TrimSpace(req.ParticipantCity)
	reg.CustomerName = strings.TrimSpace(req.CustomerName)
	reg.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	reg.CustomerVatNumber = strings.TrimSpace(req.CustomerVatNumber)
	reg.CustomerInvoiceReference = strings.TrimSpace(req.CustomerInvoiceReference)
	reg.Notes = notes

	paymentMethodID := s.cfg.DefaultPaymentMethodID
	if req.PaymentMethodID != nil {
		paymentMethodID = *req.PaymentMethodID
	}
	reg.PaymentMethodID = &paymentMethodID

	order := domain.NewOrder(user.ID, 0, now)
	order.CustomerName = reg.CustomerName
	order.CustomerEmail = reg.CustomerEmail
	order.CustomerVatNumber = reg.CustomerVatNumber
	order.CustomerInvoiceReference = reg.CustomerInvoiceReference
	order.PaymentMethodID = reg.PaymentMethodID
	order.Comments = strings.TrimSpace(req.Notes)
	for _, sel := range selections {
		if !sel.Selected {
			continue
		}
		line := buildOrderLine(0, productByID(event, sel.ProductID), sel.VariantID)
		if line == nil {
			return nil, fmt.Errorf("%w: variant does not belong to product %d", domain.ErrInvalidInput, sel.ProductID)
		}
		order.Lines = append(order.Lines, line)
	}

	if err := s.registrationRepo.CreateWithOrder(ctx, reg, order); err != nil {
		if errors.Is(err, domain.ErrDuplicateRegistration) {
			// Lost the race against a concurrent submission; fall back to the
			// duplicate path against the row that won.
			existing, gerr := s.registrationRepo.GetByEventAndUser(ctx, event.ID, user.ID)
			if gerr != nil {
				return nil, fmt.Errorf("get registration after duplicate: %w", gerr)
			}
			return s.notifyDuplicate(ctx, event, existing, req)
		}
		// No confirmation email may be sent for work that did not persist.
		s.logger.Error("failed to persist registration",
			"event_id", event.ID, "user_id", user.ID, "err", err)
		return nil, fmt.Errorf("create registration: %w", err)
	}
	s.logger.Info("registration created",
		"registration_id", reg.ID, "order_id", order.ID, "event_id", event.ID, "user_id", user.ID)

	// Step 8: notify, strictly after the successful commit.
	data := &domain.RegistrationEmailData{
		Name:             reg.ParticipantName,
		Email:            reg.ParticipantEmail,
		Phone:            reg.ParticipantPhone,
		EventTitle:       event.Title,
		EventDescription: event.Description,
		VerificationURL:  s.verificationURL(reg),
	}
	if err := s.emailService.SendRegistrationConfirmation(ctx, data); err != nil {
		// The registration exists; the participant can still be reminded later.
		s.logger.Error("failed to send registration confirmation",
			"registration_id", reg.ID, "err", err)
	}

	return &domain.IntakeResult{
		Outcome:      domain.IntakeOutcomeCreated,
		Registration: reg,
		Order:        order,
	}, nil
}

func (s *intakeService) getOpenEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	event, err := s.eventRepo.GetWithProducts(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Archived {
		return nil, domain.ErrNotFound
	}
	return event, nil
}

func (s *intakeService) resolveUser(ctx context.Context, req *domain.IntakeRequest) (*domain.User, []string) {
	email := normalizeEmail(req.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, []string{"could not look up user account"}
	}

	now := time.Now()
	user = domain.NewUser(email, strings.TrimSpace(req.ParticipantName), strings.TrimSpace(req.Phone), now, now)
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("failed to create user", "email", email, "err", err)
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, []string{"email is already in use"}
		}
		return nil, []string{"could not create user account"}
	}
	s.logger.Info("created new user for registration", "user_id", user.ID)
	return user, nil
}

// notifyDuplicate ends the workflow without creating state: unverified
// registrants get a reminder with the original verification link, verified
// ones get a plain notice.
func (s *intakeService) notifyDuplicate(ctx context.Context, event *domain.Event, existing *domain.Registration, req *domain.IntakeRequest) (*domain.IntakeResult, error) {
	name := strings.TrimSpace(req.ParticipantName)
	email := normalizeEmail(req.Email)

	if !existing.Verified {
		s.logger.Info("duplicate registration, sending verification reminder",
			"registration_id", existing.ID, "event_id", event.ID)
		data := &domain.RegistrationEmailData{
			Name:            name,
			Email:           email,
			EventTitle:      event.Title,
			VerificationURL: s.verificationURL(existing),
		}
		if err := s.emailService.SendVerificationReminder(ctx, data); err != nil {
			return nil, fmt.Errorf("send verification reminder: %w", err)
		}
		return &domain.IntakeResult{Outcome: domain.IntakeOutcomeReminderSent, Registration: existing}, nil
	}

	s.logger.Info("duplicate registration, already verified",
		"registration_id", existing.ID, "event_id", event.ID)
	data := &domain.AlreadyRegisteredEmailData{
		Name:       name,
		Email:      email,
		EventTitle: event.Title,
	}
	if err := s.emailService.SendAlreadyRegistered(ctx, data); err != nil {
		return nil, fmt.Errorf("send already registered notice: %w", err)
	}
	return &domain.IntakeResult{Outcome: domain.IntakeOutcomeAlreadyRegistered, Registration: existing}, nil
}

func (s *intakeService) verificationURL(reg *domain.Registration) string {
	return fmt.Sprintf("%s/registrations/%d/confirm?code=%s",
		strings.TrimRight(s.cfg.BaseURL, "/"), reg.ID, reg.VerificationCode)
}

func validateIntake(req *domain.IntakeRequest) []string {
	var errs []string
	name := strings.TrimSpace(req.ParticipantName)
	if name == "" {
		errs = append(errs, "participant_name is required")
	} else if utf8.RuneCountInString(name) > maxParticipantNameLength {
		errs = append(errs, fmt.Sprintf("participant_name must be at most %d characters", maxParticipantNameLength))
	}
	if !emailRegexp.MatchString(normalizeEmail(req.Email)) {
		errs = append(errs, "a valid email is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		errs = append(errs, "phone is required")
	}
	return errs
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// defaultSelections builds the slots presented for an event: one per product,
// mandatory ones selected, first variant preselected where variants exist.
func defaultSelections(event *domain.Event) []domain.ProductSelection {
	selections := make([]domain.ProductSelection, 0, len(event.Products))
	for _, p := range event.Products {
		sel := domain.ProductSelection{
			ProductID: p.ID,
			Selected:  p.MandatoryCount > 0,
		}
		if len(p.Variants) > 0 {
			id := p.Variants[0].ID
			sel.VariantID = &id
		}
		selections = append(selections, sel)
	}
	return selections
}

// reconcileSelections merges the submitted slots into the defaults. A
// submitted deselection of a mandatory product is overwritten; slots for
// products not on the event are ignored.
func reconcileSelections(event *domain.Event, submitted []domain.ProductSelection) []domain.ProductSelection {
	selections := defaultSelections(event)
	byProduct := make(map[int64]*domain.ProductSelection, len(selections))
	for i := range selections {
		byProduct[selections[i].ProductID] = &selections[i]
	}
	for _, sub := range submitted {
		slot, ok := byProduct[sub.ProductID]
		if !ok {
			continue
		}
		product := productByID(event, sub.ProductID)
		if product.MandatoryCount > 0 {
			slot.Selected = true
		} else {
			slot.Selected = sub.Selected
		}
		if sub.VariantID != nil && product.Variant(*sub.VariantID) != nil {
			slot.VariantID = sub.VariantID
		}
	}
	return selections
}

// selectionSummary renders the selected products as
// "3. Conference Dinner (7. Vegetarian)" entries joined by ", ".
func selectionSummary(event *domain.Event, selections []domain.ProductSelection) string {
	var parts []string
	for _, sel := range selections {
		if !sel.Selected {
			continue
		}
		product := productByID(event, sel.ProductID)
		if product == nil {
			continue
		}
		entry := fmt.Sprintf("%d. %s", product.ID, product.Name)
		if sel.VariantID != nil {
			if variant := product.Variant(*sel.VariantID); variant != nil {
				entry += fmt.Sprintf(" (%d. %s)", variant.ID, variant.Name)
			}
		}
		parts = append(parts, entry)
	}
	return strings.Join(parts, ", ")
}

func productByID(event *domain.Event, productID int64) *domain.Product {
	for _, p := range event.Products {
		if p.ID == productID {
			return p
		}
	}
	return nil
}
