package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"eventregistrations/internal/domain"
)

type registrationService struct {
	registrationRepo  domain.RegistrationRepository
	orderRepo         domain.OrderRepository
	orderService      domain.OrderService
	paymentMethodRepo domain.PaymentMethodRepository
	logger            *slog.Logger
}

// NewRegistrationService creates a RegistrationService with the given
// repositories. Order cancellation cascades go through the OrderService so
// every transition is audit-logged.
func NewRegistrationService(
	registrationRepo domain.RegistrationRepository,
	orderRepo domain.OrderRepository,
	orderService domain.OrderService,
	paymentMethodRepo domain.PaymentMethodRepository,
	logger *slog.Logger,
) domain.RegistrationService {
	return &registrationService{
		registrationRepo:  registrationRepo,
		orderRepo:         orderRepo,
		orderService:      orderService,
		paymentMethodRepo: paymentMethodRepo,
		logger:            logger,
	}
}

func (s *registrationService) GetRegistration(ctx context.Context, id int64) (*domain.Registration, error) {
	reg, err := s.registrationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (s *registrationService) Confirm(ctx context.Context, registrationID int64, code string) (bool, error) {
	reg, err := s.registrationRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("get registration: %w", err)
	}

	code = strings.TrimSpace(code)
	if subtle.ConstantTimeCompare([]byte(code), []byte(reg.VerificationCode)) != 1 {
		return false, nil
	}
	if reg.Verified {
		// Already confirmed earlier with the same code; nothing to do.
		return true, nil
	}
	if err := s.registrationRepo.SetVerified(ctx, registrationID); err != nil {
		return false, fmt.Errorf("set verified: %w", err)
	}
	s.logger.Info("registration verified", "registration_id", registrationID)
	return true, nil
}

func (s *registrationService) UpdateParticipantInfo(ctx context.Context, id int64, info domain.ParticipantInfo) error {
	info.Name = strings.TrimSpace(info.Name)
	if info.Name == "" {
		return fmt.Errorf("%w: participant name is required", domain.ErrInvalidInput)
	}
	if err := s.registrationRepo.UpdateParticipantInfo(ctx, id, info); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update participant info: %w", err)
	}
	return nil
}

func (s *registrationService) UpdateCustomerInfo(ctx context.Context, id int64, info domain.CustomerInfo, addr domain.CustomerAddress) error {
	if info.Email != "" && !emailRegexp.MatchString(info.Email) {
		return fmt.Errorf("%w: invalid customer email", domain.ErrInvalidInput)
	}
	if err := s.registrationRepo.UpdateCustomerInfo(ctx, id, info); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update customer info: %w", err)
	}
	if err := s.registrationRepo.UpdateCustomerAddress(ctx, id, addr); err != nil {
		return fmt.Errorf("update customer address: %w", err)
	}
	return nil
}

func (s *registrationService) UpdatePaymentMethod(ctx context.Context, id int64, paymentMethodID int64) error {
	method, err := s.paymentMethodRepo.GetByID(ctx, paymentMethodID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: payment method %d not found", domain.ErrInvalidInput, paymentMethodID)
		}
		return fmt.Errorf("get payment method: %w", err)
	}
	if !method.Active {
		return fmt.Errorf("%w: payment method %d is not active", domain.ErrInvalidInput, paymentMethodID)
	}
	if err := s.registrationRepo.UpdatePaymentMethod(ctx, id, paymentMethodID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update payment method: %w", err)
	}
	return nil
}

func (s *registrationService) UpdateStatus(ctx context.Context, id int64, status domain.RegistrationStatus) error {
	if _, err := domain.ParseRegistrationStatus(string(status)); err != nil {
		return err
	}
	if err := s.registrationRepo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update registration status: %w", err)
	}

	// Cancelling a registration cascades to its orders.
	if status == domain.RegistrationStatusCancelled {
		orders, err := s.orderRepo.ListByRegistrationID(ctx, id)
		if err != nil {
			return fmt.Errorf("list orders for registration: %w", err)
		}
		for _, order := range orders {
			if order.Status() == domain.OrderStatusCancelled {
				continue
			}
			if err := s.orderService.MarkAsCancelled(ctx, order.ID, fmt.Sprintf("registration %d cancelled", id)); err != nil {
				return fmt.Errorf("cancel order %d: %w", order.ID, err)
			}
			s.logger.Info("order cancelled with registration", "registration_id", id, "order_id", order.ID)
		}
	}
	return nil
}

func (s *registrationService) UpdateType(ctx context.Context, id int64, t domain.RegistrationType) error {
	if _, err := domain.ParseRegistrationType(string(t)); err != nil {
		return err
	}
	if err := s.registrationRepo.UpdateType(ctx, id, t); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("update registration type: %w", err)
	}
	return nil
}
