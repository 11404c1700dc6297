package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventregistrations/internal/domain"

	"github.com/lib/pq"
)

type registrationRepository struct {
	DB *sql.DB
}

// NewRegistrationRepository returns a domain.RegistrationRepository implemented
// with Postgres. Registrations are unique per (user_id, event_id); the insert
// relies on that constraint to close the duplicate-check race.
func NewRegistrationRepository(db *sql.DB) domain.RegistrationRepository {
	return &registrationRepository{DB: db}
}

func (r *registrationRepository) CreateWithOrder(ctx context.Context, reg *domain.Registration, order *domain.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	regQuery := `
		INSERT INTO registrations (
			event_id, user_id,
			participant_name, participant_email, participant_phone,
			participant_employer, participant_job_title, participant_city,
			customer_name, customer_email, customer_vat_number, customer_invoice_reference,
			customer_address, customer_zip, customer_city, customer_country,
			payment_method_id, notes, verification_code, verified, status, type,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, regQuery,
		reg.EventID, reg.UserID,
		reg.ParticipantName, reg.ParticipantEmail, reg.ParticipantPhone,
		reg.ParticipantEmployer, reg.ParticipantJobTitle, reg.ParticipantCity,
		reg.CustomerName, reg.CustomerEmail, reg.CustomerVatNumber, reg.CustomerInvoiceReference,
		reg.CustomerAddress, reg.CustomerZip, reg.CustomerCity, reg.CustomerCountry,
		reg.PaymentMethodID, reg.Notes, reg.VerificationCode, reg.Verified, reg.Status, reg.Type,
		reg.CreatedAt, reg.UpdatedAt,
	).Scan(&reg.ID)
	if err != nil {
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23505" {
			return domain.ErrDuplicateRegistration
		}
		return fmt.Errorf("insert registration: %w", err)
	}

	order.RegistrationID = reg.ID
	if err := insertOrder(ctx, tx, order); err != nil {
		return err
	}
	return tx.Commit()
}

// insertOrder writes the order, its audit log, and its lines. Shared with the
// order repository's status update for log persistence consistency.
func insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	orderQuery := `
		INSERT INTO orders (
			user_id, registration_id, status,
			customer_name, customer_email, customer_vat_number, customer_invoice_reference,
			payment_method_id, order_time, comments
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := tx.QueryRowContext(ctx, orderQuery,
		order.UserID, order.RegistrationID, order.Status(),
		order.CustomerName, order.CustomerEmail, order.CustomerVatNumber, order.CustomerInvoiceReference,
		order.PaymentMethodID, order.OrderTime, order.Comments,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, entry := range order.Log {
		if err := insertOrderLogEntry(ctx, tx, order.ID, entry); err != nil {
			return err
		}
	}

	lineQuery := `
		INSERT INTO order_lines (order_id, product_id, variant_id, product_name, variant_name, quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	for _, line := range order.Lines {
		line.OrderID = order.ID
		err := tx.QueryRowContext(ctx, lineQuery,
			order.ID, line.ProductID, line.VariantID, line.ProductName, line.VariantName, line.Quantity, line.Price,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

func insertOrderLogEntry(ctx context.Context, tx *sql.Tx, orderID int64, entry domain.OrderLogEntry) error {
	query := `
		INSERT INTO order_log (order_id, at, from_status, to_status, note)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, query, orderID, entry.At, entry.From, entry.To, entry.Note); err != nil {
		return fmt.Errorf("insert order log entry: %w", err)
	}
	return nil
}

const registrationColumns = `
	id, event_id, user_id,
	participant_name, participant_email, participant_phone,
	participant_employer, participant_job_title, participant_city,
	customer_name, customer_email, customer_vat_number, customer_invoice_reference,
	customer_address, customer_zip, customer_city, customer_country,
	payment_method_id, notes, verification_code, verified, status, type,
	created_at, updated_at
`

func scanRegistration(row *sql.Row) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var status, regType string
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.UserID,
		&reg.ParticipantName, &reg.ParticipantEmail, &reg.ParticipantPhone,
		&reg.ParticipantEmployer, &reg.ParticipantJobTitle, &reg.ParticipantCity,
		&reg.CustomerName, &reg.CustomerEmail, &reg.CustomerVatNumber, &reg.CustomerInvoiceReference,
		&reg.CustomerAddress, &reg.CustomerZip, &reg.CustomerCity, &reg.CustomerCountry,
		&reg.PaymentMethodID, &reg.Notes, &reg.VerificationCode, &reg.Verified, &status, &regType,
		&reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if reg.Status, err = domain.ParseRegistrationStatus(status); err != nil {
		return nil, err
	}
	if reg.Type, err = domain.ParseRegistrationType(regType); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id int64) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return scanRegistration(r.DB.QueryRowContext(ctx, query, id))
}

func (r *registrationRepository) GetByEventAndUser(ctx context.Context, eventID int64, userID string) (*domain.Registration, error) {
	// Terminal rows are skipped; the partial unique index on
	// (event_id, user_id) covers non-terminal statuses only, so at most one
	// row matches.
	query := `SELECT ` + registrationColumns + ` FROM registrations
		WHERE event_id = $1 AND user_id = $2 AND status NOT IN ('cancelled', 'finished')`
	return scanRegistration(r.DB.QueryRowContext(ctx, query, eventID, userID))
}

func (r *registrationRepository) SetVerified(ctx context.Context, id int64) error {
	query := `
		UPDATE registrations
		SET verified = TRUE, updated_at = $2
		WHERE id = $1
	`
	return r.exec(ctx, query, id, time.Now().UTC())
}

func (r *registrationRepository) UpdateParticipantInfo(ctx context.Context, id int64, info domain.ParticipantInfo) error {
	query := `
		UPDATE registrations
		SET participant_name = $2, participant_job_title = $3, participant_city = $4, participant_employer = $5, updated_at = $6
		WHERE id = $1
	`
	return r.exec(ctx, query, id, info.Name, info.JobTitle, info.City, info.Employer, time.Now().UTC())
}

func (r *registrationRepository) UpdateCustomerInfo(ctx context.Context, id int64, info domain.CustomerInfo) error {
	query := `
		UPDATE registrations
		SET customer_name = $2, customer_email = $3, customer_vat_number = $4, customer_invoice_reference = $5, updated_at = $6
		WHERE id = $1
	`
	return r.exec(ctx, query, id, info.Name, info.Email, info.VatNumber, info.InvoiceReference, time.Now().UTC())
}

func (r *registrationRepository) UpdateCustomerAddress(ctx context.Context, id int64, addr domain.CustomerAddress) error {
	query := `
		UPDATE registrations
		SET customer_address = $2, customer_zip = $3, customer_city = $4, customer_country = $5, updated_at = $6
		WHERE id = $1
	`
	return r.exec(ctx, query, id, addr.Address, addr.Zip, addr.City, addr.Country, time.Now().UTC())
}

func (r *registrationRepository) UpdatePaymentMethod(ctx context.Context, id int64, paymentMethodID int64) error {
	query := `
		UPDATE registrations
		SET payment_method_id = $2, updated_at = $3
		WHERE id = $1
	`
	return r.exec(ctx, query, id, paymentMethodID, time.Now().UTC())
}

func (r *registrationRepository) UpdateStatus(ctx context.Context, id int64, status domain.RegistrationStatus) error {
	query := `
		UPDATE registrations
		SET status = $2, updated_at = $3
		WHERE id = $1
	`
	return r.exec(ctx, query, id, status, time.Now().UTC())
}

func (r *registrationRepository) UpdateType(ctx context.Context, id int64, t domain.RegistrationType) error {
	query := `
		UPDATE registrations
		SET type = $2, updated_at = $3
		WHERE id = $1
	`
	return r.exec(ctx, query, id, t, time.Now().UTC())
}

// exec runs an update that must touch exactly one row.
func (r *registrationRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
