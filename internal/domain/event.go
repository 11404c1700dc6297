package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event represents a course or conference open for registration.
// The core treats events as read-only reference data.
// swagger:model Event
type Event struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Code            string     `json:"code"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	City            string     `json:"city"`
	MaxParticipants int        `json:"max_participants"`
	Published       bool       `json:"published"`
	Archived        bool       `json:"archived"`
	DateStart       *time.Time `json:"date_start,omitempty"`
	DateEnd         *time.Time `json:"date_end,omitempty"`
	Products        []*Product `json:"products"`
}

// Product is a purchasable item attached to an event, such as a course dinner
// or accommodation. MandatoryCount > 0 means every registration for the event
// must include that many units.
// swagger:model Product
type Product struct {
	ID             int64             `json:"id"`
	EventID        int64             `json:"event_id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	VatPercent     decimal.Decimal   `json:"vat_percent"`
	MandatoryCount int               `json:"mandatory_count"`
	Variants       []*ProductVariant `json:"variants"`
}

// Variant returns the variant with the given id, or nil.
func (p *Product) Variant(variantID int64) *ProductVariant {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v
		}
	}
	return nil
}

// ProductVariant is one selectable option of a product (e.g. a vegetarian
// dinner). A variant carries its own price.
// swagger:model ProductVariant
type ProductVariant struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
}

// EventRepository defines read access to the event and product catalog.
type EventRepository interface {
	GetByID(ctx context.Context, id int64) (*Event, error)
	// GetWithProducts loads the event together with its products and variants.
	GetWithProducts(ctx context.Context, id int64) (*Event, error)
	GetProduct(ctx context.Context, productID int64) (*Product, error)
}

// PaymentMethod is a read-only reference lookup (invoice, card, EHF, ...).
// swagger:model PaymentMethod
type PaymentMethod struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Active   bool   `json:"active"`
}

// PaymentMethodRepository defines read access to the payment method catalog.
type PaymentMethodRepository interface {
	GetByID(ctx context.Context, id int64) (*PaymentMethod, error)
	ListActive(ctx context.Context) ([]*PaymentMethod, error)
}
