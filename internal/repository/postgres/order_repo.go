package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"eventregistrations/internal/domain"
)

type orderRepository struct {
	DB *sql.DB
}

// NewOrderRepository returns a domain.OrderRepository implemented with
// Postgres. Status transitions compare-and-set on the previous status and line
// writes are guarded on the owning order still being editable, so concurrent
// transitions cannot be lost or bypassed.
func NewOrderRepository(db *sql.DB) domain.OrderRepository {
	return &orderRepository{DB: db}
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `
		SELECT id, user_id, registration_id, status,
		       customer_name, customer_email, customer_vat_number, customer_invoice_reference,
		       payment_method_id, order_time, comments
		FROM orders
		WHERE id = $1
	`
	order, err := scanOrder(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadLog(ctx, order); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListByRegistrationID(ctx context.Context, registrationID int64) ([]*domain.Order, error) {
	query := `
		SELECT id, user_id, registration_id, status,
		       customer_name, customer_email, customer_vat_number, customer_invoice_reference,
		       payment_method_id, order_time, comments
		FROM orders
		WHERE registration_id = $1
		ORDER BY order_time
	`
	rows, err := r.DB.QueryContext(ctx, query, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, order := range orders {
		if err := r.loadLog(ctx, order); err != nil {
			return nil, err
		}
		if err := r.loadLines(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		id, registrationID                 int64
		userID, status                     string
		name, email, vatNumber, invoiceRef sql.NullString
		paymentMethodID                    sql.NullInt64
		orderTime                          sql.NullTime
		comments                           sql.NullString
	)
	err := row.Scan(&id, &userID, &registrationID, &status,
		&name, &email, &vatNumber, &invoiceRef,
		&paymentMethodID, &orderTime, &comments)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	order, err := domain.RestoreOrder(id, userID, registrationID, domain.OrderStatus(status), orderTime.Time)
	if err != nil {
		return nil, err
	}
	order.CustomerName = name.String
	order.CustomerEmail = email.String
	order.CustomerVatNumber = vatNumber.String
	order.CustomerInvoiceReference = invoiceRef.String
	order.Comments = comments.String
	if paymentMethodID.Valid {
		order.PaymentMethodID = &paymentMethodID.Int64
	}
	return order, nil
}

func (r *orderRepository) loadLog(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT at, from_status, to_status, note
		FROM order_log
		WHERE order_id = $1
		ORDER BY at, id
	`
	rows, err := r.DB.QueryContext(ctx, query, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.OrderLogEntry
		if err := rows.Scan(&entry.At, &entry.From, &entry.To, &entry.Note); err != nil {
			return err
		}
		order.Log = append(order.Log, entry)
	}
	return rows.Err()
}

func (r *orderRepository) loadLines(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT id, order_id, product_id, variant_id, product_name, variant_name, quantity, price
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := r.DB.QueryContext(ctx, query, order.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	order.Lines = make([]*domain.OrderLine, 0)
	for rows.Next() {
		line := &domain.OrderLine{}
		var variantID sql.NullInt64
		var variantName sql.NullString
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &variantID, &line.ProductName, &variantName, &line.Quantity, &line.Price); err != nil {
			return err
		}
		if variantID.Valid {
			line.VariantID = &variantID.Int64
		}
		line.VariantName = variantName.String
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus, entry domain.OrderLogEntry) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE orders
		SET status = $3
		WHERE id = $1 AND status = $2
	`
	res, err := tx.ExecContext(ctx, query, orderID, from, to)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the order is gone or another transition won the race.
		return fmt.Errorf("%w: order %d is no longer %s", domain.ErrInvalidTransition, orderID, from)
	}

	if err := insertOrderLogEntry(ctx, tx, orderID, entry); err != nil {
		return err
	}
	return tx.Commit()
}

const editableStatuses = `'draft', 'verified'`

func (r *orderRepository) AddLine(ctx context.Context, line *domain.OrderLine) error {
	query := `
		INSERT INTO order_lines (order_id, product_id, variant_id, product_name, variant_name, quantity, price)
		SELECT o.id, $2, $3, $4, $5, $6, $7
		FROM orders o
		WHERE o.id = $1 AND o.status IN (` + editableStatuses + `)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		line.OrderID, line.ProductID, line.VariantID, line.ProductName, line.VariantName, line.Quantity, line.Price,
	).Scan(&line.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotEditable
		}
		return err
	}
	return nil
}

func (r *orderRepository) GetLine(ctx context.Context, lineID int64) (*domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, variant_id, product_name, variant_name, quantity, price
		FROM order_lines
		WHERE id = $1
	`
	line := &domain.OrderLine{}
	var variantID sql.NullInt64
	var variantName sql.NullString
	err := r.DB.QueryRowContext(ctx, query, lineID).Scan(
		&line.ID, &line.OrderID, &line.ProductID, &variantID, &line.ProductName, &variantName, &line.Quantity, &line.Price,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if variantID.Valid {
		line.VariantID = &variantID.Int64
	}
	line.VariantName = variantName.String
	return line, nil
}

func (r *orderRepository) UpdateLine(ctx context.Context, lineID int64, quantity int, price decimal.Decimal) error {
	query := `
		UPDATE order_lines l
		SET quantity = $2, price = $3
		FROM orders o
		WHERE l.id = $1 AND o.id = l.order_id AND o.status IN (` + editableStatuses + `)
	`
	return r.execLine(ctx, lineID, query, lineID, quantity, price)
}

func (r *orderRepository) DeleteLine(ctx context.Context, lineID int64) error {
	query := `
		DELETE FROM order_lines l
		USING orders o
		WHERE l.id = $1 AND o.id = l.order_id AND o.status IN (` + editableStatuses + `)
	`
	return r.execLine(ctx, lineID, query, lineID)
}

// execLine runs a guarded line mutation. Zero rows means either the line does
// not exist (ErrNotFound) or its order is no longer editable
// (ErrOrderNotEditable); a follow-up existence check tells the two apart.
func (r *orderRepository) execLine(ctx context.Context, lineID int64, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	err = r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM order_lines WHERE id = $1)`, lineID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrOrderNotEditable
	}
	return domain.ErrNotFound
}
