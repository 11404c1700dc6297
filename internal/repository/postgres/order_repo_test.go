package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"eventregistrations/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var orderColumns = []string{
	"id", "user_id", "registration_id", "status",
	"customer_name", "customer_email", "customer_vat_number", "customer_invoice_reference",
	"payment_method_id", "order_time", "comments",
}

var lineColumns = []string{
	"id", "order_id", "product_id", "variant_id", "product_name", "variant_name", "quantity", "price",
}

func TestOrderRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	orderTime := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM orders`).
			WithArgs(int64(100)).
			WillReturnRows(sqlmock.NewRows(orderColumns).AddRow(
				int64(100), "user-42", int64(7), "verified",
				"", "", "", "", nil, orderTime, "",
			))
		mock.ExpectQuery(`SELECT (.+) FROM order_log`).
			WithArgs(int64(100)).
			WillReturnRows(sqlmock.NewRows([]string{"at", "from_status", "to_status", "note"}).
				AddRow(orderTime, "draft", "draft", "order created").
				AddRow(orderTime.Add(time.Hour), "draft", "verified", ""))
		mock.ExpectQuery(`SELECT (.+) FROM order_lines`).
			WithArgs(int64(100)).
			WillReturnRows(sqlmock.NewRows(lineColumns).
				AddRow(int64(1000), int64(100), int64(10), nil, "Course Fee", nil, 1, "500"))

		repo := NewOrderRepository(db)
		order, err := repo.GetByID(ctx, 100)
		require.NoError(t, err)
		require.Equal(t, domain.OrderStatusVerified, order.Status())
		require.True(t, order.CanEdit())
		require.Len(t, order.Log, 2)
		require.Equal(t, domain.OrderStatusVerified, order.Log[1].To)
		require.Len(t, order.Lines, 1)
		require.True(t, order.Total().Equal(decimal.NewFromInt(500)))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT (.+) FROM orders`).
			WithArgs(int64(999)).
			WillReturnRows(sqlmock.NewRows(orderColumns))

		repo := NewOrderRepository(db)
		_, err = repo.GetByID(ctx, 999)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	entry := domain.OrderLogEntry{
		At:   time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC),
		From: domain.OrderStatusDraft,
		To:   domain.OrderStatusVerified,
		Note: "checked",
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(int64(100), "draft", "verified").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO order_log`).
			WithArgs(int64(100), entry.At, "draft", "verified", "checked").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		repo := NewOrderRepository(db)
		err = repo.UpdateStatus(ctx, 100, domain.OrderStatusDraft, domain.OrderStatusVerified, entry)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost compare-and-set", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(int64(100), "draft", "verified").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		repo := NewOrderRepository(db)
		err = repo.UpdateStatus(ctx, 100, domain.OrderStatusDraft, domain.OrderStatusVerified, entry)
		require.ErrorIs(t, err, domain.ErrInvalidTransition)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrderRepository_AddLine(t *testing.T) {
	ctx := context.Background()
	line := &domain.OrderLine{
		OrderID:     100,
		ProductID:   10,
		ProductName: "Course Fee",
		Quantity:    1,
		Price:       decimal.NewFromInt(500),
	}

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`INSERT INTO order_lines`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1000)))

		repo := NewOrderRepository(db)
		require.NoError(t, repo.AddLine(ctx, line))
		require.Equal(t, int64(1000), line.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("order not editable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		// The guarded insert selects zero source rows for a locked order.
		mock.ExpectQuery(`INSERT INTO order_lines`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewOrderRepository(db)
		require.ErrorIs(t, repo.AddLine(ctx, line), domain.ErrOrderNotEditable)
	})
}

func TestOrderRepository_UpdateLine(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE order_lines`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewOrderRepository(db)
		require.NoError(t, repo.UpdateLine(ctx, 1000, 2, decimal.NewFromInt(450)))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("order not editable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE order_lines`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(1000)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		repo := NewOrderRepository(db)
		err = repo.UpdateLine(ctx, 1000, 2, decimal.NewFromInt(450))
		require.ErrorIs(t, err, domain.ErrOrderNotEditable)
	})

	t.Run("line not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`UPDATE order_lines`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(int64(999)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		repo := NewOrderRepository(db)
		err = repo.UpdateLine(ctx, 999, 2, decimal.NewFromInt(450))
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestOrderRepository_DeleteLine(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM order_lines`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewOrderRepository(db)
		require.NoError(t, repo.DeleteLine(ctx, 1000))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(`DELETE FROM order_lines`).
			WillReturnError(sql.ErrConnDone)

		repo := NewOrderRepository(db)
		require.ErrorIs(t, repo.DeleteLine(ctx, 1000), sql.ErrConnDone)
	})
}
