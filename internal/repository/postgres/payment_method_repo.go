package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventregistrations/internal/domain"
)

type paymentMethodRepository struct {
	DB *sql.DB
}

func NewPaymentMethodRepository(db *sql.DB) domain.PaymentMethodRepository {
	return &paymentMethodRepository{DB: db}
}

func (r *paymentMethodRepository) GetByID(ctx context.Context, id int64) (*domain.PaymentMethod, error) {
	query := `
		SELECT id, name, provider, active
		FROM payment_methods
		WHERE id = $1
	`
	pm := &domain.PaymentMethod{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&pm.ID, &pm.Name, &pm.Provider, &pm.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return pm, nil
}

func (r *paymentMethodRepository) ListActive(ctx context.Context) ([]*domain.PaymentMethod, error) {
	query := `
		SELECT id, name, provider, active
		FROM payment_methods
		WHERE active = TRUE
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	methods := make([]*domain.PaymentMethod, 0)
	for rows.Next() {
		pm := &domain.PaymentMethod{}
		if err := rows.Scan(&pm.ID, &pm.Name, &pm.Provider, &pm.Active); err != nil {
			return nil, err
		}
		methods = append(methods, pm)
	}
	return methods, rows.Err()
}
