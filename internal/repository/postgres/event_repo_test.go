package postgres

import (
	"context"
	"testing"
	"time"

	"eventregistrations/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var eventColumns = []string{
	"id", "title", "code", "description", "location", "city",
	"max_participants", "published", "archived", "date_start", "date_end",
}

func TestEventRepository_GetWithProducts(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM events`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(eventColumns).AddRow(
			int64(1), "Autumn Conference", "AUT25", "Two days of talks", "Oslo Spektrum", "Oslo",
			200, true, false, start, nil,
		))
	mock.ExpectQuery(`SELECT (.+) FROM products`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "name", "description", "price", "vat_percent", "mandatory_count"}).
			AddRow(int64(10), int64(1), "Course Fee", "", "500", "25", 1).
			AddRow(int64(11), int64(1), "Conference Dinner", "", "250", "15", 0))
	mock.ExpectQuery(`SELECT (.+) FROM product_variants`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "price"}).
			AddRow(int64(7), int64(11), "Vegetarian", "250").
			AddRow(int64(8), int64(11), "Fish", "300"))

	repo := NewEventRepository(db)
	event, err := repo.GetWithProducts(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Autumn Conference", event.Title)
	require.NotNil(t, event.DateStart)
	require.Nil(t, event.DateEnd)
	require.Len(t, event.Products, 2)
	require.Empty(t, event.Products[0].Variants)
	require.Len(t, event.Products[1].Variants, 2)
	require.True(t, event.Products[1].Variants[1].Price.Equal(decimal.NewFromInt(300)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM events`).
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows(eventColumns))

	repo := NewEventRepository(db)
	_, err = repo.GetByID(context.Background(), 999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventRepository_GetProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT (.+) FROM products`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "name", "description", "price", "vat_percent", "mandatory_count"}).
			AddRow(int64(11), int64(1), "Conference Dinner", "", "250", "15", 0))
	mock.ExpectQuery(`SELECT (.+) FROM product_variants`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "name", "price"}).
			AddRow(int64(7), int64(11), "Vegetarian", "250"))

	repo := NewEventRepository(db)
	product, err := repo.GetProduct(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, "Conference Dinner", product.Name)
	require.Len(t, product.Variants, 1)
	require.NotNil(t, product.Variant(7))
	require.Nil(t, product.Variant(999))
}
