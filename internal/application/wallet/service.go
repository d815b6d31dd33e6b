package wallet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wallet-server/internal/domain/service"
	"wallet-server/internal/domain/transaction"
	"wallet-server/internal/domain/wallet"
	"wallet-server/internal/domain/wallet_history"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
)

// WalletApplicationService ウォレットアプリケーションサービス
type WalletApplicationService struct {
	walletRepo    wallet.WalletRepository
	historyRepo   wallet_history.EntryRepository
	txManager     transaction.TransactionManager
	walletService *service.WalletService
	logger        *otelinfra.Logger
	metrics       *otelinfra.Metrics
	tracer        trace.Tracer
	maxRetries    int
}

// NewWalletApplicationService 新しいWalletApplicationServiceを作成
func NewWalletApplicationService(
	walletRepo wallet.WalletRepository,
	historyRepo wallet_history.EntryRepository,
	txManager transaction.TransactionManager,
	walletService *service.WalletService,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *WalletApplicationService {
	return &WalletApplicationService{
		walletRepo:    walletRepo,
		historyRepo:   historyRepo,
		txManager:     txManager,
		walletService: walletService,
		logger:        logger,
		metrics:       metrics,
		tracer:        otel.Tracer("wallet-service"),
		maxRetries:    3,
	}
}

// GetBalance 残高を取得
// ウォレットは初回調整まで作成されないため、未作成は残高0として返す
func (s *WalletApplicationService) GetBalance(ctx context.Context, req *GetBalanceRequest) (*GetBalanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "WalletApplicationService.GetBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
	)

	s.logger.Info(ctx, "Getting balance", map[string]interface{}{
		"user_id": req.UserID,
	})

	balances := make(map[string]int64)

	for _, wt := range wallet.AllWalletTypes() {
		w, err := s.walletRepo.FindByUserIDAndType(ctx, req.UserID, wt)
		if err != nil {
			if errors.Is(err, wallet.ErrWalletNotFound) {
				balances[wt.String()] = 0
				continue
			}
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			s.logger.Error(ctx, "Failed to find wallet", err, map[string]interface{}{
				"user_id":     req.UserID,
				"wallet_type": wt.String(),
			})
			return nil, fmt.Errorf("failed to find wallet: %w", err)
		}

		balances[wt.String()] = w.Balance()
		s.metrics.RecordWalletBalance(ctx, req.UserID, wt.String(), w.Balance())
	}

	total, err := s.walletService.GetTotalBalance(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to get total balance: %w", err)
	}

	return &GetBalanceResponse{
		UserID:   req.UserID,
		Balances: balances,
		Total:    total,
	}, nil
}

// AdjustBalance 残高を調整（ウォレット更新と履歴追記を1トランザクションで行う）
func (s *WalletApplicationService) AdjustBalance(ctx context.Context, req *AdjustBalanceRequest) (*AdjustBalanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "WalletApplicationService.AdjustBalance")
	defer span.End()

	var result *AdjustBalanceResponse
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.ApplyAdjustment(ctx, req)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	return result, nil
}

// ApplyAdjustment 残高調整を適用する
// 呼び出し元のトランザクションコンテキスト内で実行される想定
// （AdjustBalance経由、または購入Webhook処理のトランザクション内から使用）
func (s *WalletApplicationService) ApplyAdjustment(ctx context.Context, req *AdjustBalanceRequest) (*AdjustBalanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "WalletApplicationService.ApplyAdjustment")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("wallet_type", req.WalletType),
		attribute.String("change_method", req.ChangeMethod),
		attribute.Int64("amount", req.Amount),
	)

	s.logger.Info(ctx, "Applying balance adjustment", map[string]interface{}{
		"user_id":       req.UserID,
		"wallet_type":   req.WalletType,
		"change_method": req.ChangeMethod,
		"amount":        req.Amount,
	})

	// バリデーション
	walletType, err := wallet.NewWalletType(req.WalletType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	changeMethod, err := wallet_history.NewChangeMethod(req.ChangeMethod)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("%w: %s", wallet_history.ErrInvalidChangeMethod, req.ChangeMethod)
	}

	sourceType, err := wallet_history.NewSourceType(req.SourceType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("%w: %s", wallet_history.ErrInvalidSourceType, req.SourceType)
	}

	if changeMethod != wallet_history.ChangeMethodSet && req.Amount <= 0 {
		err := wallet.ErrInvalidAmount
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	entryID := uuid.New().String()

	// 楽観的ロックのリトライロジック
	var retryErr error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			// 指数バックオフ
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 10 * time.Millisecond
			time.Sleep(backoff)
		}

		// ウォレットを取得（存在しない場合は残高0で新規作成）
		w, err := s.walletRepo.FindByUserIDAndType(ctx, req.UserID, walletType)
		created := false
		if err != nil {
			if !errors.Is(err, wallet.ErrWalletNotFound) {
				return nil, fmt.Errorf("failed to find wallet: %w", err)
			}
			w, err = wallet.NewWallet(req.UserID, walletType, 0, 0, 0)
			if err != nil {
				return nil, err
			}
			created = true
		}

		balanceBefore := w.Balance()

		// 残高を変更
		switch changeMethod {
		case wallet_history.ChangeMethodIncrement:
			err = w.Increment(req.Amount)
		case wallet_history.ChangeMethodDecrement:
			err = w.Decrement(req.Amount)
		case wallet_history.ChangeMethodSet:
			err = w.SetBalance(req.Amount)
		}
		if err != nil {
			return nil, err
		}

		// 保存（楽観的ロック）
		if created {
			err = s.walletRepo.Create(ctx, w)
		} else {
			err = s.walletRepo.Save(ctx, w)
		}
		if err != nil {
			// 競合の場合はリトライ（Createの一意制約違反も同時作成の競合）
			if errors.Is(err, wallet.ErrVersionConflict) {
				retryErr = err
				continue
			}
			return nil, fmt.Errorf("failed to save wallet: %w", err)
		}

		// 履歴エントリを追記（balance_afterは適用直後の残高と常に一致する）
		entry, err := wallet_history.NewEntry(
			entryID,
			req.UserID,
			walletType,
			changeMethod,
			req.Amount,
			balanceBefore,
			w.Balance(),
			sourceType,
			req.RequestBatchID,
			req.Reason,
			req.Meta,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build history entry: %w", err)
		}

		if err := s.historyRepo.Save(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to save history entry: %w", err)
		}

		// メトリクス記録
		s.metrics.RecordAdjustment(ctx, changeMethod.String(), walletType.String(), sourceType.String())
		s.metrics.RecordWalletBalance(ctx, req.UserID, walletType.String(), w.Balance())

		s.logger.Info(ctx, "Balance adjusted successfully", map[string]interface{}{
			"user_id":        req.UserID,
			"entry_id":       entryID,
			"balance_before": balanceBefore,
			"balance_after":  w.Balance(),
		})

		return &AdjustBalanceResponse{
			EntryID:       entryID,
			UserID:        req.UserID,
			WalletType:    walletType.String(),
			BalanceBefore: balanceBefore,
			BalanceAfter:  w.Balance(),
		}, nil
	}

	s.metrics.RecordError(ctx, "adjustment_conflict")
	return nil, retryErr
}
