package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wallet-server/internal/domain/wallet"
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

func TestWalletService_GetTotalBalance(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		setupMocks func(*MockWalletRepository)
		want       int64
		wantError  bool
	}{
		{
			name:   "正常系: 通常・ボーナス両ウォレット存在",
			userID: "user123",
			setupMocks: func(mwr *MockWalletRepository) {
				regularWallet := wallet.MustNewWallet("user123", wallet.WalletTypeRegularCoin, 1000, 0, 1)
				bonusWallet := wallet.MustNewWallet("user123", wallet.WalletTypeBonusCoin, 500, 0, 1)
				mwr.On("FindByUserIDAndType", mock.Anything, "user123", wallet.WalletTypeRegularCoin).Return(regularWallet, nil)
				mwr.On("FindByUserIDAndType", mock.Anything, "user123", wallet.WalletTypeBonusCoin).Return(bonusWallet, nil)
			},
			want:      1500,
			wantError: false,
		},
		{
			name:   "正常系: 未作成ウォレットは残高0として扱う",
			userID: "user123",
			setupMocks: func(mwr *MockWalletRepository) {
				regularWallet := wallet.MustNewWallet("user123", wallet.WalletTypeRegularCoin, 1000, 0, 1)
				mwr.On("FindByUserIDAndType", mock.Anything, "user123", wallet.WalletTypeRegularCoin).Return(regularWallet, nil)
				mwr.On("FindByUserIDAndType", mock.Anything, "user123", wallet.WalletTypeBonusCoin).Return(nil, wallet.ErrWalletNotFound)
			},
			want:      1000,
			wantError: false,
		},
		{
			name:   "異常系: ウォレット取得エラー",
			userID: "user123",
			setupMocks: func(mwr *MockWalletRepository) {
				mwr.On("FindByUserIDAndType", mock.Anything, "user123", wallet.WalletTypeRegularCoin).Return(nil, errors.New("database error"))
			},
			want:      0,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockWalletRepository)
			tt.setupMocks(mockRepo)

			service := NewWalletService(mockRepo)
			ctx := context.Background()
			got, err := service.GetTotalBalance(ctx, tt.userID)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}
