package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"eventregistrations/internal/domain"
)

type orderService struct {
	orderRepo        domain.OrderRepository
	registrationRepo domain.RegistrationRepository
	eventRepo        domain.EventRepository
}

// NewOrderService creates an OrderService with the given repositories.
func NewOrderService(
	orderRepo domain.OrderRepository,
	registrationRepo domain.RegistrationRepository,
	eventRepo domain.EventRepository,
) domain.OrderService {
	return &orderService{
		orderRepo:        orderRepo,
		registrationRepo: registrationRepo,
		eventRepo:        eventRepo,
	}
}

func (s *orderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *orderService) MarkAsVerified(ctx context.Context, orderID int64, note string) error {
	return s.transition(ctx, orderID, domain.OrderStatusVerified, note)
}

func (s *orderService) MarkAsInvoiced(ctx context.Context, orderID int64, note string) error {
	return s.transition(ctx, orderID, domain.OrderStatusInvoiced, note)
}

func (s *orderService) MarkAsCancelled(ctx context.Context, orderID int64, note string) error {
	return s.transition(ctx, orderID, domain.OrderStatusCancelled, note)
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus, note string) error {
	return s.transition(ctx, orderID, status, note)
}

// transition loads the order, applies the state machine, and persists with a
// compare-and-set on the previous status. The repository re-checks the
// from-status in the write itself, so a concurrent change between read and
// write surfaces as ErrInvalidTransition instead of a lost update.
func (s *orderService) transition(ctx context.Context, orderID int64, target domain.OrderStatus, note string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}

	from := order.Status()
	if err := order.ApplyStatus(target, note, time.Now()); err != nil {
		return err
	}

	entry := *order.LastLogEntry()
	if err := s.orderRepo.UpdateStatus(ctx, orderID, from, order.Status(), entry); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (s *orderService) AddOrderLine(ctx context.Context, orderID, productID int64, variantID *int64) (*domain.OrderLine, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if !order.CanEdit() {
		return nil, domain.ErrOrderNotEditable
	}

	reg, err := s.registrationRepo.GetByID(ctx, order.RegistrationID)
	if err != nil {
		return nil, fmt.Errorf("get registration for order: %w", err)
	}

	product, err := s.eventRepo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d not found", domain.ErrInvalidInput, productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product.EventID != reg.EventID {
		return nil, fmt.Errorf("%w: product %d does not belong to event %d", domain.ErrInvalidInput, productID, reg.EventID)
	}

	line := buildOrderLine(order.ID, product, variantID)
	if line == nil {
		return nil, fmt.Errorf("%w: variant does not belong to product %d", domain.ErrInvalidInput, productID)
	}

	// The insert is guarded on the order still being editable; a cancel
	// sneaking in between the read above and this write fails the insert.
	if err := s.orderRepo.AddLine(ctx, line); err != nil {
		if errors.Is(err, domain.ErrOrderNotEditable) {
			return nil, domain.ErrOrderNotEditable
		}
		return nil, fmt.Errorf("add order line: %w", err)
	}
	return line, nil
}

// buildOrderLine snapshots name and price from the catalog. When a variant is
// chosen its price wins; returns nil when the variant id is not on the product.
func buildOrderLine(orderID int64, product *domain.Product, variantID *int64) *domain.OrderLine {
	line := &domain.OrderLine{
		OrderID:     orderID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    1,
		Price:       product.Price,
	}
	if product.MandatoryCount > 1 {
		line.Quantity = product.MandatoryCount
	}
	if variantID != nil {
		variant := product.Variant(*variantID)
		if variant == nil {
			return nil
		}
		line.VariantID = variantID
		line.VariantName = variant.Name
		line.Price = variant.Price
	}
	return line
}

func (s *orderService) UpdateOrderLine(ctx context.Context, lineID int64, quantity int, price decimal.Decimal) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidInput)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}
	if err := s.orderRepo.UpdateLine(ctx, lineID, quantity, price); err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrOrderNotEditable) {
			return err
		}
		return fmt.Errorf("update order line: %w", err)
	}
	return nil
}

func (s *orderService) DeleteOrderLine(ctx context.Context, lineID int64) (bool, error) {
	if _, err := s.orderRepo.GetLine(ctx, lineID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrNotFound
		}
		return false, fmt.Errorf("get order line: %w", err)
	}
	if err := s.orderRepo.DeleteLine(ctx, lineID); err != nil {
		if errors.Is(err, domain.ErrOrderNotEditable) {
			return false, domain.ErrOrderNotEditable
		}
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete order line: %w", err)
	}
	return true, nil
}
