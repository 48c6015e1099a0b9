package usecase

import (
	"context"
	"time"

	"agritech/internal/domain/model"
	"agritech/internal/infra/paypack"
	repo "agritech/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// repositories
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, o *model.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *OrderRepoMock) FindByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(*model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByTransactionID(ctx context.Context, transactionID string) (*model.Order, error) {
	args := m.Called(ctx, transactionID)
	o, _ := args.Get(0).(*model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) List(ctx context.Context, f repo.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, f)
	os, _ := args.Get(0).([]model.Order)
	return os, args.Error(1)
}

func (m *OrderRepoMock) UpdatePayment(ctx context.Context, o *model.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, o *model.Order) error {
	return m.Called(ctx, o).Error(0)
}

var _ repo.OrderRepository = (*OrderRepoMock)(nil)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	us, _ := args.Get(0).([]model.User)
	return us, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, u *model.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *UserRepoMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

var _ repo.UserRepository = (*UserRepoMock)(nil)

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) Create(ctx context.Context, p *model.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) List(ctx context.Context, f repo.ProductFilter) ([]model.Product, error) {
	args := m.Called(ctx, f)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Error(1)
}

func (m *ProductRepoMock) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

var _ repo.ProductRepository = (*ProductRepoMock)(nil)

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) Reserve(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) Release(ctx context.Context, productID int64, qty int64) error {
	return m.Called(ctx, productID, qty).Error(0)
}

var _ repo.InventoryRepository = (*InventoryRepoMock)(nil)

type AuditLogRepoMock struct{ mock.Mock }

func (m *AuditLogRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *AuditLogRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, f)
	ls, _ := args.Get(0).([]model.AuditLog)
	return ls, args.Error(1)
}

var _ repo.AuditLogRepository = (*AuditLogRepoMock)(nil)

// runs fn directly against the mocks
type txManagerStub struct {
	orders    *OrderRepoMock
	products  *ProductRepoMock
	inventory *InventoryRepoMock
	audit     *AuditLogRepoMock
}

func (s *txManagerStub) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(s)
}

func (s *txManagerStub) Orders() repo.OrderRepository        { return s.orders }
func (s *txManagerStub) Products() repo.ProductRepository    { return s.products }
func (s *txManagerStub) Inventory() repo.InventoryRepository { return s.inventory }
func (s *txManagerStub) AuditLogs() repo.AuditLogRepository  { return s.audit }

// =====================
// ports
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) Token(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *GatewayMock) InitiatePayment(ctx context.Context, in paypack.CashIn) (paypack.Ack, error) {
	args := m.Called(ctx, in)
	ack, _ := args.Get(0).(paypack.Ack)
	return ack, args.Error(1)
}

func (m *GatewayMock) QueryTransaction(ctx context.Context, reference string) (paypack.TransactionStatus, error) {
	args := m.Called(ctx, reference)
	st, _ := args.Get(0).(paypack.TransactionStatus)
	return st, args.Error(1)
}

var _ PaymentGateway = (*GatewayMock)(nil)

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	return m.Called(ctx, topic, key, event).Error(0)
}

type UploaderMock struct{ mock.Mock }

func (m *UploaderMock) Upload(ctx context.Context, img ImageFile) (UploadedImage, error) {
	args := m.Called(ctx, img)
	up, _ := args.Get(0).(UploadedImage)
	return up, args.Error(1)
}

func (m *UploaderMock) Delete(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type staticID struct{ id string }

func (g staticID) NewID() string { return g.id }
