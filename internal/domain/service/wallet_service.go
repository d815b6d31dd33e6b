package service

import (
	"context"
	"errors"

	"wallet-server/internal/domain/wallet"
)

// WalletService ウォレット関連のドメインサービス
type WalletService struct {
	walletRepo wallet.WalletRepository
}

// NewWalletService 新しいWalletServiceを作成
func NewWalletService(walletRepo wallet.WalletRepository) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
	}
}

// GetTotalBalance ユーザーの全ウォレットタイプの合計残高を取得
// ウォレットは初回加算まで作成されないため、未作成は残高0として扱う
func (s *WalletService) GetTotalBalance(ctx context.Context, userID string) (int64, error) {
	var total int64
	for _, wt := range wallet.AllWalletTypes() {
		w, err := s.walletRepo.FindByUserIDAndType(ctx, userID, wt)
		if err != nil {
			if errors.Is(err, wallet.ErrWalletNotFound) {
				continue
			}
			return 0, err
		}
		total += w.Balance()
	}
	return total, nil
}
