package handler

import (
	"context"
	"time"

	"wallet-server/internal/domain/purchase_request"
	"wallet-server/internal/domain/wallet"
	"wallet-server/internal/domain/wallet_history"

	"github.com/stretchr/testify/mock"
)

// MockWalletRepository モックウォレットリポジトリ
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) FindByUserIDAndType(ctx context.Context, userID string, walletType wallet.WalletType) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID, walletType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

// MockEntryRepository モック履歴エントリリポジトリ
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Save(ctx context.Context, entry *wallet_history.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockEntryRepository) FindByUserID(ctx context.Context, userID string) ([]*wallet_history.Entry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wallet_history.Entry), args.Error(1)
}

func (m *MockEntryRepository) FindByBatchID(ctx context.Context, batchID string) ([]*wallet_history.Entry, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*wallet_history.Entry), args.Error(1)
}

// MockPurchaseRequestRepository モック購入リクエストリポジトリ
type MockPurchaseRequestRepository struct {
	mock.Mock
}

func (m *MockPurchaseRequestRepository) Create(ctx context.Context, pr *purchase_request.PurchaseRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *MockPurchaseRequestRepository) Update(ctx context.Context, pr *purchase_request.PurchaseRequest) error {
	args := m.Called(ctx, pr)
	return args.Error(0)
}

func (m *MockPurchaseRequestRepository) FindByRequestID(ctx context.Context, requestID string) (*purchase_request.PurchaseRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchase_request.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindByIdempotencyKey(ctx context.Context, idempotencyKey string) (*purchase_request.PurchaseRequest, error) {
	args := m.Called(ctx, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchase_request.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) FindByProviderSessionID(ctx context.Context, sessionID string) (*purchase_request.PurchaseRequest, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*purchase_request.PurchaseRequest), args.Error(1)
}

func (m *MockPurchaseRequestRepository) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionManager モックトランザクションマネージャー
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if fn != nil {
		return fn(ctx)
	}
	return args.Error(0)
}
