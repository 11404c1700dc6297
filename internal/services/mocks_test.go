package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"eventregistrations/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockEventRepository struct {
	events map[int64]*domain.Event
	err    error
}

func (m *mockEventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	return m.GetWithProducts(ctx, id)
}

func (m *mockEventRepository) GetWithProducts(ctx context.Context, id int64) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	ev, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ev, nil
}

func (m *mockEventRepository) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	for _, ev := range m.events {
		for _, p := range ev.Products {
			if p.ID == productID {
				return p, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

type mockUserRepository struct {
	usersByEmail map[string]*domain.User
	createErr    error
	created      []*domain.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "new-user-id"
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range m.usersByEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

type regKey struct {
	eventID int64
	userID  string
}

type mockRegistrationRepository struct {
	regsByID        map[int64]*domain.Registration
	regsByEventUser map[regKey]*domain.Registration
	createErr       error
	revealOnCreate  *domain.Registration
	createdRegs     []*domain.Registration
	createdOrders   []*domain.Order
	verifiedIDs     []int64
	statusUpdates   map[int64]domain.RegistrationStatus
	typeUpdates     map[int64]domain.RegistrationType
	paymentUpdates  map[int64]int64
	participantInfo map[int64]domain.ParticipantInfo
	customerInfo    map[int64]domain.CustomerInfo
	customerAddr    map[int64]domain.CustomerAddress
}

func newMockRegistrationRepository() *mockRegistrationRepository {
	return &mockRegistrationRepository{
		regsByID:        map[int64]*domain.Registration{},
		regsByEventUser: map[regKey]*domain.Registration{},
		statusUpdates:   map[int64]domain.RegistrationStatus{},
		typeUpdates:     map[int64]domain.RegistrationType{},
		paymentUpdates:  map[int64]int64{},
		participantInfo: map[int64]domain.ParticipantInfo{},
		customerInfo:    map[int64]domain.CustomerInfo{},
		customerAddr:    map[int64]domain.CustomerAddress{},
	}
}

func (m *mockRegistrationRepository) add(reg *domain.Registration) {
	m.regsByID[reg.ID] = reg
	m.regsByEventUser[regKey{reg.EventID, reg.UserID}] = reg
}

func (m *mockRegistrationRepository) CreateWithOrder(ctx context.Context, reg *domain.Registration, order *domain.Order) error {
	if m.createErr != nil {
		// Simulates losing a write race: the conflicting row becomes visible
		// only after the failed insert.
		if m.revealOnCreate != nil {
			m.add(m.revealOnCreate)
		}
		return m.createErr
	}
	reg.ID = int64(len(m.regsByID) + 1)
	order.ID = reg.ID * 100
	order.RegistrationID = reg.ID
	for i, line := range order.Lines {
		line.ID = order.ID*10 + int64(i)
		line.OrderID = order.ID
	}
	m.add(reg)
	m.createdRegs = append(m.createdRegs, reg)
	m.createdOrders = append(m.createdOrders, order)
	return nil
}

func (m *mockRegistrationRepository) GetByID(ctx context.Context, id int64) (*domain.Registration, error) {
	reg, ok := m.regsByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return reg, nil
}

func (m *mockRegistrationRepository) GetByEventAndUser(ctx context.Context, eventID int64, userID string) (*domain.Registration, error) {
	reg, ok := m.regsByEventUser[regKey{eventID, userID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return reg, nil
}

func (m *mockRegistrationRepository) SetVerified(ctx context.Context, id int64) error {
	reg, ok := m.regsByID[id]
	if !ok {
		return domain.ErrNotFound
	}
	reg.Verified = true
	m.verifiedIDs = append(m.verifiedIDs, id)
	return nil
}

func (m *mockRegistrationRepository) UpdateParticipantInfo(ctx context.Context, id int64, info domain.ParticipantInfo) error {
	if _, ok := m.regsByID[id]; !ok {
		return domain.ErrNotFound
	}
	m.participantInfo[id] = info
	return nil
}

func (m *mockRegistrationRepository) UpdateCustomerInfo(ctx context.Context, id int64, info domain.CustomerInfo) error {
	if _, ok := m.regsByID[id]; !ok {
		return domain.ErrNotFound
	}
	m.customerInfo[id] = info
	return nil
}

func (m *mockRegistrationRepository) UpdateCustomerAddress(ctx context.Context, id int64, addr domain.CustomerAddress) error {
	if _, ok := m.regsByID[id]; !ok {
		return domain.ErrNotFound
	}
	m.customerAddr[id] = addr
	return nil
}

func (m *mockRegistrationRepository) UpdatePaymentMethod(ctx context.Context, id int64, paymentMethodID int64) error {
	if _, ok := m.regsByID[id]; !ok {
		return domain.ErrNotFound
	}
	m.paymentUpdates[id] = paymentMethodID
	return nil
}

func (m *mockRegistrationRepository) UpdateStatus(ctx context.Context, id int64, status domain.RegistrationStatus) error {
	reg, ok := m.regsByID[id]
	if !ok {
		return domain.ErrNotFound
	}
	reg.Status = status
	m.statusUpdates[id] = status
	return nil
}

func (m *mockRegistrationRepository) UpdateType(ctx context.Context, id int64, t domain.RegistrationType) error {
	reg, ok := m.regsByID[id]
	if !ok {
		return domain.ErrNotFound
	}
	reg.Type = t
	m.typeUpdates[id] = t
	return nil
}

type statusUpdate struct {
	orderID int64
	from    domain.OrderStatus
	to      domain.OrderStatus
	entry   domain.OrderLogEntry
}

type mockOrderRepository struct {
	orders          map[int64]*domain.Order
	lines           map[int64]*domain.OrderLine
	ordersByReg     map[int64][]*domain.Order
	updateStatusErr error
	addLineErr      error
	updateLineErr   error
	deleteLineErr   error
	statusUpdates   []statusUpdate
	addedLines      []*domain.OrderLine
	deletedLines    []int64
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{
		orders:      map[int64]*domain.Order{},
		lines:       map[int64]*domain.OrderLine{},
		ordersByReg: map[int64][]*domain.Order{},
	}
}

func (m *mockOrderRepository) addOrder(order *domain.Order) {
	m.orders[order.ID] = order
	m.ordersByReg[order.RegistrationID] = append(m.ordersByReg[order.RegistrationID], order)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) ListByRegistrationID(ctx context.Context, registrationID int64) ([]*domain.Order, error) {
	return m.ordersByReg[registrationID], nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to domain.OrderStatus, entry domain.OrderLogEntry) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	m.statusUpdates = append(m.statusUpdates, statusUpdate{orderID: orderID, from: from, to: to, entry: entry})
	return nil
}

func (m *mockOrderRepository) AddLine(ctx context.Context, line *domain.OrderLine) error {
	if m.addLineErr != nil {
		return m.addLineErr
	}
	line.ID = int64(len(m.lines) + 1)
	m.lines[line.ID] = line
	m.addedLines = append(m.addedLines, line)
	return nil
}

func (m *mockOrderRepository) GetLine(ctx context.Context, lineID int64) (*domain.OrderLine, error) {
	line, ok := m.lines[lineID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return line, nil
}

func (m *mockOrderRepository) UpdateLine(ctx context.Context, lineID int64, quantity int, price decimal.Decimal) error {
	if m.updateLineErr != nil {
		return m.updateLineErr
	}
	line, ok := m.lines[lineID]
	if !ok {
		return domain.ErrNotFound
	}
	line.Quantity = quantity
	line.Price = price
	return nil
}

func (m *mockOrderRepository) DeleteLine(ctx context.Context, lineID int64) error {
	if m.deleteLineErr != nil {
		return m.deleteLineErr
	}
	if _, ok := m.lines[lineID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.lines, lineID)
	m.deletedLines = append(m.deletedLines, lineID)
	return nil
}

type mockPaymentMethodRepository struct {
	methods map[int64]*domain.PaymentMethod
}

func (m *mockPaymentMethodRepository) GetByID(ctx context.Context, id int64) (*domain.PaymentMethod, error) {
	pm, ok := m.methods[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return pm, nil
}

func (m *mockPaymentMethodRepository) ListActive(ctx context.Context) ([]*domain.PaymentMethod, error) {
	var out []*domain.PaymentMethod
	for _, pm := range m.methods {
		if pm.Active {
			out = append(out, pm)
		}
	}
	return out, nil
}

type mockEmailService struct {
	confirmations []*domain.RegistrationEmailData
	reminders     []*domain.RegistrationEmailData
	notices       []*domain.AlreadyRegisteredEmailData
	err           error
}

func (m *mockEmailService) SendRegistrationConfirmation(ctx context.Context, data *domain.RegistrationEmailData) error {
	if m.err != nil {
		return m.err
	}
	m.confirmations = append(m.confirmations, data)
	return nil
}

func (m *mockEmailService) SendVerificationReminder(ctx context.Context, data *domain.RegistrationEmailData) error {
	if m.err != nil {
		return m.err
	}
	m.reminders = append(m.reminders, data)
	return nil
}

func (m *mockEmailService) SendAlreadyRegistered(ctx context.Context, data *domain.AlreadyRegisteredEmailData) error {
	if m.err != nil {
		return m.err
	}
	m.notices = append(m.notices, data)
	return nil
}

type fixedCodeGenerator struct {
	code string
}

func (g *fixedCodeGenerator) Generate(length int) string {
	return g.code
}
