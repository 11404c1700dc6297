package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"eventregistrations/internal/domain"
)

// fakeOrderService implements domain.OrderService for handler tests.
type fakeOrderService struct {
	order      *domain.Order
	getErr     error
	statusErr  error
	line       *domain.OrderLine
	addLineErr error
	updateErr  error
	deleted    bool
	deleteErr  error
	lastStatus domain.OrderStatus
	lastNote   string
}

func (f *fakeOrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.order, nil
}

func (f *fakeOrderService) MarkAsVerified(ctx context.Context, orderID int64, note string) error {
	return f.statusErr
}

func (f *fakeOrderService) MarkAsInvoiced(ctx context.Context, orderID int64, note string) error {
	return f.statusErr
}

func (f *fakeOrderService) MarkAsCancelled(ctx context.Context, orderID int64, note string) error {
	return f.statusErr
}

func (f *fakeOrderService) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.OrderStatus, note string) error {
	f.lastStatus = status
	f.lastNote = note
	return f.statusErr
}

func (f *fakeOrderService) AddOrderLine(ctx context.Context, orderID, productID int64, variantID *int64) (*domain.OrderLine, error) {
	if f.addLineErr != nil {
		return nil, f.addLineErr
	}
	return f.line, nil
}

func (f *fakeOrderService) UpdateOrderLine(ctx context.Context, lineID int64, quantity int, price decimal.Decimal) error {
	return f.updateErr
}

func (f *fakeOrderService) DeleteOrderLine(ctx context.Context, lineID int64) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	return f.deleted, nil
}

func TestOrderController_GetOrder(t *testing.T) {
	order, err := domain.RestoreOrder(100, "user-42", 7, domain.OrderStatusDraft, time.Now())
	require.NoError(t, err)
	ctrl := NewOrderController(testControllerLogger(), &fakeOrderService{order: order})

	req := httptest.NewRequest(http.MethodGet, "/orders/100", nil)
	req.SetPathValue("id", "100")
	w := httptest.NewRecorder()

	ctrl.GetOrder(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOrderController_UpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *fakeOrderService
		wantStatus int
	}{
		{"verify", `{"status":"verified","note":"checked"}`, &fakeOrderService{}, http.StatusNoContent},
		{"unknown status", `{"status":"paid"}`, &fakeOrderService{}, http.StatusBadRequest},
		{"illegal transition", `{"status":"invoiced"}`, &fakeOrderService{statusErr: domain.ErrInvalidTransition}, http.StatusConflict},
		{"order gone", `{"status":"verified"}`, &fakeOrderService{statusErr: domain.ErrNotFound}, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewOrderController(testControllerLogger(), tt.svc)
			req := httptest.NewRequest(http.MethodPatch, "/orders/100/status", bytes.NewReader([]byte(tt.body)))
			req.SetPathValue("id", "100")
			w := httptest.NewRecorder()

			ctrl.UpdateStatus(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestOrderController_UpdateStatus_PassesNote(t *testing.T) {
	svc := &fakeOrderService{}
	ctrl := NewOrderController(testControllerLogger(), svc)

	req := httptest.NewRequest(http.MethodPatch, "/orders/100/status", bytes.NewReader([]byte(`{"status":"cancelled","note":"customer withdrew"}`)))
	req.SetPathValue("id", "100")
	w := httptest.NewRecorder()

	ctrl.UpdateStatus(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, domain.OrderStatusCancelled, svc.lastStatus)
	require.Equal(t, "customer withdrew", svc.lastNote)
}

func TestOrderController_AddLine(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svc        *fakeOrderService
		wantStatus int
	}{
		{"success", `{"product_id":10}`, &fakeOrderService{line: &domain.OrderLine{ID: 1, ProductID: 10}}, http.StatusCreated},
		{"missing product", `{}`, &fakeOrderService{}, http.StatusBadRequest},
		{"order locked", `{"product_id":10}`, &fakeOrderService{addLineErr: domain.ErrOrderNotEditable}, http.StatusConflict},
		{"foreign product", `{"product_id":99}`, &fakeOrderService{addLineErr: domain.ErrInvalidInput}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewOrderController(testControllerLogger(), tt.svc)
			req := httptest.NewRequest(http.MethodPost, "/orders/100/lines", bytes.NewReader([]byte(tt.body)))
			req.SetPathValue("id", "100")
			w := httptest.NewRecorder()

			ctrl.AddLine(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestOrderController_DeleteLine(t *testing.T) {
	tests := []struct {
		name       string
		svc        *fakeOrderService
		wantStatus int
	}{
		{"deleted", &fakeOrderService{deleted: true}, http.StatusNoContent},
		{"missing", &fakeOrderService{deleteErr: domain.ErrNotFound}, http.StatusNotFound},
		{"order locked", &fakeOrderService{deleteErr: domain.ErrOrderNotEditable}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewOrderController(testControllerLogger(), tt.svc)
			req := httptest.NewRequest(http.MethodDelete, "/orders/lines/1", nil)
			req.SetPathValue("lineID", "1")
			w := httptest.NewRecorder()

			ctrl.DeleteLine(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
