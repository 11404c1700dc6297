package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"eventregistrations/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func testRegistration() *domain.Registration {
	now := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
	reg := domain.NewRegistration(1, "user-42", "Ab3Cd9", now)
	reg.ParticipantName = "Kari Nordmann"
	reg.ParticipantEmail = "kari@example.com"
	reg.ParticipantPhone = "+47 99 99 99 99"
	return reg
}

func TestRegistrationRepository_CreateWithOrder(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO registrations`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectQuery(`INSERT INTO orders`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
				mock.ExpectExec(`INSERT INTO order_log`).
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectQuery(`INSERT INTO order_lines`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1000)))
				mock.ExpectCommit()
			},
		},
		{
			name: "unique violation maps to duplicate registration",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO registrations`).
					WillReturnError(&pq.Error{Code: "23505"})
				mock.ExpectRollback()
			},
			wantErr: domain.ErrDuplicateRegistration,
		},
		{
			name: "order insert failure rolls back",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO registrations`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
				mock.ExpectQuery(`INSERT INTO orders`).
					WillReturnError(sql.ErrConnDone)
				mock.ExpectRollback()
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)

			reg := testRegistration()
			order := domain.NewOrder("user-42", 0, time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC))
			order.Lines = []*domain.OrderLine{
				{ProductID: 10, ProductName: "Course Fee", Quantity: 1},
			}

			repo := NewRegistrationRepository(db)
			err = repo.CreateWithOrder(ctx, reg, order)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, int64(7), reg.ID)
				require.Equal(t, int64(100), order.ID)
				require.Equal(t, int64(7), order.RegistrationID)
				require.Equal(t, int64(1000), order.Lines[0].ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRegistrationRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)

	regColumns := []string{
		"id", "event_id", "user_id",
		"participant_name", "participant_email", "participant_phone",
		"participant_employer", "participant_job_title", "participant_city",
		"customer_name", "customer_email", "customer_vat_number", "customer_invoice_reference",
		"customer_address", "customer_zip", "customer_city", "customer_country",
		"payment_method_id", "notes", "verification_code", "verified", "status", "type",
		"created_at", "updated_at",
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM registrations`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(regColumns).AddRow(
				int64(7), int64(1), "user-42",
				"Kari Nordmann", "kari@example.com", "+47 99 99 99 99",
				"", "", "",
				"", "", "", "",
				"", "", "", "",
				nil, "10. Course Fee", "Ab3Cd9", false, "active", "participant",
				now, now,
			))

		repo := NewRegistrationRepository(db)
		reg, err := repo.GetByID(ctx, 7)
		require.NoError(t, err)
		require.Equal(t, int64(7), reg.ID)
		require.Equal(t, "Kari Nordmann", reg.ParticipantName)
		require.Equal(t, domain.RegistrationStatusActive, reg.Status)
		require.False(t, reg.Verified)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM registrations`).
			WithArgs(int64(999)).
			WillReturnRows(sqlmock.NewRows(regColumns))

		repo := NewRegistrationRepository(db)
		_, err = repo.GetByID(ctx, 999)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRegistrationRepository_GetByEventAndUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)

	regColumns := []string{
		"id", "event_id", "user_id",
		"participant_name", "participant_email", "participant_phone",
		"participant_employer", "participant_job_title", "participant_city",
		"customer_name", "customer_email", "customer_vat_number", "customer_invoice_reference",
		"customer_address", "customer_zip", "customer_city", "customer_country",
		"payment_method_id", "notes", "verification_code", "verified", "status", "type",
		"created_at", "updated_at",
	}

	// The lookup serves the duplicate check, so it must exclude terminal rows.
	query := `FROM registrations\s+WHERE event_id = \$1 AND user_id = \$2 AND status NOT IN \('cancelled', 'finished'\)`

	t.Run("returns the live registration", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(query).
			WithArgs(int64(1), "user-42").
			WillReturnRows(sqlmock.NewRows(regColumns).AddRow(
				int64(7), int64(1), "user-42",
				"Kari Nordmann", "kari@example.com", "+47 99 99 99 99",
				"", "", "",
				"", "", "", "",
				"", "", "", "",
				nil, "", "Ab3Cd9", false, "active", "participant",
				now, now,
			))

		repo := NewRegistrationRepository(db)
		reg, err := repo.GetByEventAndUser(ctx, 1, "user-42")
		require.NoError(t, err)
		require.Equal(t, int64(7), reg.ID)
		require.Equal(t, domain.RegistrationStatusActive, reg.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only terminal rows means not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(query).
			WithArgs(int64(1), "user-42").
			WillReturnRows(sqlmock.NewRows(regColumns))

		repo := NewRegistrationRepository(db)
		_, err = repo.GetByEventAndUser(ctx, 1, "user-42")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegistrationRepository_SetVerified(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE registrations`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewRegistrationRepository(db)
		require.NoError(t, repo.SetVerified(ctx, 7))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE registrations`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewRegistrationRepository(db)
		require.ErrorIs(t, repo.SetVerified(ctx, 999), domain.ErrNotFound)
	})
}

func TestRegistrationRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE registrations`).
		WithArgs(int64(7), "cancelled", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRegistrationRepository(db)
	require.NoError(t, repo.UpdateStatus(ctx, 7, domain.RegistrationStatusCancelled))
	require.NoError(t, mock.ExpectationsWereMet())
}
