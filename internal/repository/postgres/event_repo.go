package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventregistrations/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns a domain.EventRepository implemented with Postgres.
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `
		SELECT id, title, code, description, location, city, max_participants, published, archived, date_start, date_end
		FROM events
		WHERE id = $1
	`
	e := &domain.Event{}
	var startNull, endNull sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Code, &e.Description, &e.Location, &e.City,
		&e.MaxParticipants, &e.Published, &e.Archived, &startNull, &endNull,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if startNull.Valid {
		e.DateStart = &startNull.Time
	}
	if endNull.Valid {
		e.DateEnd = &endNull.Time
	}
	return e, nil
}

func (r *eventRepository) GetWithProducts(ctx context.Context, id int64) (*domain.Event, error) {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Products, err = r.listProducts(ctx, id); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) listProducts(ctx context.Context, eventID int64) ([]*domain.Product, error) {
	query := `
		SELECT id, event_id, name, description, price, vat_percent, mandatory_count
		FROM products
		WHERE event_id = $1
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	byID := map[int64]*domain.Product{}
	for rows.Next() {
		p := &domain.Product{}
		if err := rows.Scan(&p.ID, &p.EventID, &p.Name, &p.Description, &p.Price, &p.VatPercent, &p.MandatoryCount); err != nil {
			return nil, err
		}
		products = append(products, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}

	variantQuery := `
		SELECT v.id, v.product_id, v.name, v.price
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE p.event_id = $1
		ORDER BY v.id
	`
	vrows, err := r.DB.QueryContext(ctx, variantQuery, eventID)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()

	for vrows.Next() {
		v := &domain.ProductVariant{}
		if err := vrows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price); err != nil {
			return nil, err
		}
		if p, ok := byID[v.ProductID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}
	return products, vrows.Err()
}

func (r *eventRepository) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	query := `
		SELECT id, event_id, name, description, price, vat_percent, mandatory_count
		FROM products
		WHERE id = $1
	`
	p := &domain.Product{}
	err := r.DB.QueryRowContext(ctx, query, productID).Scan(
		&p.ID, &p.EventID, &p.Name, &p.Description, &p.Price, &p.VatPercent, &p.MandatoryCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	variantQuery := `
		SELECT id, product_id, name, price
		FROM product_variants
		WHERE product_id = $1
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, variantQuery, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		v := &domain.ProductVariant{}
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price); err != nil {
			return nil, err
		}
		p.Variants = append(p.Variants, v)
	}
	return p, rows.Err()
}
