package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the financial state of an order.
//
// Allowed transitions:
//
//	draft -> verified -> invoiced
//	draft | verified | invoiced -> cancelled
//
// Draft is construction-only and can never be re-entered.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusVerified  OrderStatus = "verified"
	OrderStatusInvoiced  OrderStatus = "invoiced"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus returns the OrderStatus for s, or ErrInvalidInput.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(strings.ToLower(strings.TrimSpace(s))) {
	case OrderStatusDraft:
		return OrderStatusDraft, nil
	case OrderStatusVerified:
		return OrderStatusVerified, nil
	case OrderStatusInvoiced:
		return OrderStatusInvoiced, nil
	case OrderStatusCancelled:
		return OrderStatusCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, s)
}

// OrderLogEntry is one audit record of an order status change. The log is
// append-only; entries are never edited or removed.
// swagger:model OrderLogEntry
type OrderLogEntry struct {
	At   time.Time   `json:"at"`
	From OrderStatus `json:"from"`
	To   OrderStatus `json:"to"`
	Note string      `json:"note,omitempty"`
}

// String renders the entry as "<RFC3339 UTC>: <NewStatus>", with an optional
// ": note" suffix.
func (e OrderLogEntry) String() string {
	s := fmt.Sprintf("%s: %s", e.At.UTC().Format(time.RFC3339), e.To)
	if e.Note != "" {
		s += ": " + e.Note
	}
	return s
}

// OrderLine is one priced product/variant selection attached to an order.
// Name and price are snapshots taken from the catalog at insertion time.
// swagger:model OrderLine
type OrderLine struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	VariantID   *int64          `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	VariantName string          `json:"variant_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Total returns quantity times price.
func (l *OrderLine) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is the financial record tied to one registration. Status is only
// reachable through the named transition methods so no caller can bypass the
// legality checks.
type Order struct {
	ID             int64
	UserID         string
	RegistrationID int64

	status OrderStatus

	CustomerName             string
	CustomerEmail            string
	CustomerVatNumber        string
	CustomerInvoiceReference string
	PaymentMethodID          *int64

	OrderTime time.Time
	Comments  string

	Log   []OrderLogEntry
	Lines []*OrderLine
}

// NewOrder returns a draft order for the given registration with the creation
// logged. OrderTime is set to now in UTC.
func NewOrder(userID string, registrationID int64, now time.Time) *Order {
	o := &Order{
		UserID:         userID,
		RegistrationID: registrationID,
		status:         OrderStatusDraft,
		OrderTime:      now.UTC(),
	}
	o.appendLog(OrderStatusDraft, OrderStatusDraft, "order created", now)
	return o
}

// RestoreOrder rebuilds an order from stored state. It is intended for
// repositories; status must be a known value.
func RestoreOrder(id int64, userID string, registrationID int64, status OrderStatus, orderTime time.Time) (*Order, error) {
	if _, err := ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}
	return &Order{
		ID:             id,
		UserID:         userID,
		RegistrationID: registrationID,
		status:         status,
		OrderTime:      orderTime,
	}, nil
}

// Status returns the current order status.
func (o *Order) Status() OrderStatus {
	return o.status
}

// CanEdit reports whether order lines and content may still be changed.
// Invoiced and cancelled orders are immutable.
func (o *Order) CanEdit() bool {
	return o.status == OrderStatusDraft || o.status == OrderStatusVerified
}

// MarkAsVerified moves the order from draft to verified.
func (o *Order) MarkAsVerified(note string, now time.Time) error {
	if o.status != OrderStatusDraft {
		return fmt.Errorf("%w: only draft orders can be verified (current: %s)", ErrInvalidTransition, o.status)
	}
	o.transition(OrderStatusVerified, note, now)
	return nil
}

// MarkAsInvoiced moves the order from verified to invoiced.
func (o *Order) MarkAsInvoiced(note string, now time.Time) error {
	if o.status != OrderStatusVerified {
		return fmt.Errorf("%w: only verified orders can be invoiced (current: %s)", ErrInvalidTransition, o.status)
	}
	o.transition(OrderStatusInvoiced, note, now)
	return nil
}

// MarkAsCancelled cancels the order. Any status can be cancelled; repeating
// the call on a cancelled order succeeds and is still logged.
func (o *Order) MarkAsCancelled(note string, now time.Time) error {
	o.transition(OrderStatusCancelled, note, now)
	return nil
}

// ApplyStatus drives the state machine by target status name. Draft is
// rejected: it is construction-only.
func (o *Order) ApplyStatus(target OrderStatus, note string, now time.Time) error {
	switch target {
	case OrderStatusDraft:
		return fmt.Errorf("%w: orders cannot be set as draft", ErrInvalidTransition)
	case OrderStatusVerified:
		return o.MarkAsVerified(note, now)
	case OrderStatusInvoiced:
		return o.MarkAsInvoiced(note, now)
	case OrderStatusCancelled:
		return o.MarkAsCancelled(note, now)
	}
	return fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, target)
}

func (o *Order) transition(to OrderStatus, note string, now time.Time) {
	from := o.status
	o.status = to
	o.appendLog(from, to, note, now)
}

func (o *Order) appendLog(from, to OrderStatus, note string, now time.Time) {
	o.Log = append(o.Log, OrderLogEntry{At: now.UTC(), From: from, To: to, Note: note})
}

// LastLogEntry returns the most recent audit record, or nil when empty.
func (o *Order) LastLogEntry() *OrderLogEntry {
	if len(o.Log) == 0 {
		return nil
	}
	return &o.Log[len(o.Log)-1]
}

// Total returns the sum of all line totals.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Total())
	}
	return total
}

type orderJSON struct {
	ID                       int64           `json:"id"`
	UserID                   string          `json:"user_id"`
	RegistrationID           int64           `json:"registration_id"`
	Status                   OrderStatus     `json:"status"`
	CanEdit                  bool            `json:"can_edit"`
	CustomerName             string          `json:"customer_name,omitempty"`
	CustomerEmail            string          `json:"customer_email,omitempty"`
	CustomerVatNumber        string          `json:"customer_vat_number,omitempty"`
	CustomerInvoiceReference string          `json:"customer_invoice_reference,omitempty"`
	PaymentMethodID          *int64          `json:"payment_method_id,omitempty"`
	OrderTime                time.Time       `json:"order_time"`
	Comments                 string          `json:"comments,omitempty"`
	Total                    decimal.Decimal `json:"total"`
	Log                      []OrderLogEntry `json:"log"`
	Lines                    []*OrderLine    `json:"lines"`
}

// MarshalJSON exposes the unexported status and the derived fields.
func (o *Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(orderJSON{
		ID:                       o.ID,
		UserID:                   o.UserID,
		RegistrationID:           o.RegistrationID,
		Status:                   o.status,
		CanEdit:                  o.CanEdit(),
		CustomerName:             o.CustomerName,
		CustomerEmail:            o.CustomerEmail,
		CustomerVatNumber:        o.CustomerVatNumber,
		CustomerInvoiceReference: o.CustomerInvoiceReference,
		PaymentMethodID:          o.PaymentMethodID,
		OrderTime:                o.OrderTime,
		Comments:                 o.Comments,
		Total:                    o.Total(),
		Log:                      o.Log,
		Lines:                    o.Lines,
	})
}

// OrderRepository defines storage operations for orders and their lines.
// Implementations must keep line mutations atomic with the owning order and
// must re-check editability/transition legality in the write itself.
type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByRegistrationID(ctx context.Context, registrationID int64) ([]*Order, error)

	// UpdateStatus persists a transition with a compare-and-set on the previous
	// status and appends the audit entry in the same transaction. It returns
	// ErrInvalidTransition when the stored status no longer matches from.
	UpdateStatus(ctx context.Context, orderID int64, from, to OrderStatus, entry OrderLogEntry) error

	// AddLine inserts the line only while the owning order is editable;
	// otherwise it returns ErrOrderNotEditable.
	AddLine(ctx context.Context, line *OrderLine) error
	GetLine(ctx context.Context, lineID int64) (*OrderLine, error)
	// UpdateLine updates quantity and price with the same editability guard.
	UpdateLine(ctx context.Context, lineID int64, quantity int, price decimal.Decimal) error
	// DeleteLine removes the line with the same editability guard.
	DeleteLine(ctx context.Context, lineID int64) error
}

// OrderService drives order status transitions and line management.
type OrderService interface {
	GetOrder(ctx context.Context, id int64) (*Order, error)
	MarkAsVerified(ctx context.Context, orderID int64, note string) error
	MarkAsInvoiced(ctx context.Context, orderID int64, note string) error
	MarkAsCancelled(ctx context.Context, orderID int64, note string) error
	UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus, note string) error

	AddOrderLine(ctx context.Context, orderID, productID int64, variantID *int64) (*OrderLine, error)
	UpdateOrderLine(ctx context.Context, lineID int64, quantity int, price decimal.Decimal) error
	DeleteOrderLine(ctx context.Context, lineID int64) (bool, error)
}
