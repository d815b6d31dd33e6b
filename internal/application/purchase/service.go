package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	appwallet "wallet-server/internal/application/wallet"
	"wallet-server/internal/domain/payment_provider"
	"wallet-server/internal/domain/purchase_request"
	"wallet-server/internal/domain/transaction"
	"wallet-server/internal/domain/wallet"
	"wallet-server/internal/domain/wallet_history"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
)

// ProviderResolver 決済プロバイダの名前解決インターフェース
type ProviderResolver interface {
	Resolve(name string) (payment_provider.Provider, error)
	Default() (payment_provider.Provider, error)
}

// BalanceAdjuster ウォレット残高調整インターフェース
// Webhook処理のトランザクション内で購入ポイントを加算するために使う
type BalanceAdjuster interface {
	ApplyAdjustment(ctx context.Context, req *appwallet.AdjustBalanceRequest) (*appwallet.AdjustBalanceResponse, error)
}

// PurchaseApplicationService 購入アプリケーションサービス
type PurchaseApplicationService struct {
	purchaseRepo   purchase_request.PurchaseRequestRepository
	walletSvc      BalanceAdjuster
	txManager      transaction.TransactionManager
	providers      ProviderResolver
	logger         *otelinfra.Logger
	metrics        *otelinfra.Metrics
	tracer         trace.Tracer
	sessionTimeout time.Duration
	expireAfter    time.Duration
}

// NewPurchaseApplicationService 新しいPurchaseApplicationServiceを作成
func NewPurchaseApplicationService(
	purchaseRepo purchase_request.PurchaseRequestRepository,
	walletSvc BalanceAdjuster,
	txManager transaction.TransactionManager,
	providers ProviderResolver,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	sessionTimeout time.Duration,
	expireAfter time.Duration,
) *PurchaseApplicationService {
	return &PurchaseApplicationService{
		purchaseRepo:   purchaseRepo,
		walletSvc:      walletSvc,
		txManager:      txManager,
		providers:      providers,
		logger:         logger,
		metrics:        metrics,
		tracer:         otel.Tracer("purchase-service"),
		sessionTimeout: sessionTimeout,
		expireAfter:    expireAfter,
	}
}

// Initiate 購入を開始する（冪等）
// 同じ冪等性キーでの再呼び出しは既存リクエストの状態を返し、
// 決済セッションを二重に作成しない
func (s *PurchaseApplicationService) Initiate(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PurchaseApplicationService.Initiate")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("idempotency_key", req.IdempotencyKey),
		attribute.Int64("amount", req.Amount),
	)

	s.logger.Info(ctx, "Initiating purchase", map[string]interface{}{
		"user_id":         req.UserID,
		"idempotency_key": req.IdempotencyKey,
		"wallet_type":     req.WalletType,
		"amount":          req.Amount,
	})

	// バリデーション
	if _, err := uuid.Parse(req.IdempotencyKey); err != nil {
		err := fmt.Errorf("%w: idempotency key must be a UUID", purchase_request.ErrInvalidPurchaseRequest)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	walletType, err := wallet.NewWalletType(req.WalletType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if req.Amount <= 0 || req.PaymentAmount <= 0 {
		err := fmt.Errorf("%w: amount and payment amount must be positive", purchase_request.ErrInvalidPurchaseRequest)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	// 冪等性チェック: 既存リクエストがあればその状態を返す
	existing, err := s.purchaseRepo.FindByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil && !errors.Is(err, purchase_request.ErrPurchaseRequestNotFound) {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find purchase request: %w", err)
	}
	if existing != nil {
		return s.responseForExisting(ctx, existing)
	}

	pr, err := purchase_request.NewPurchaseRequest(
		uuid.New().String(),
		req.IdempotencyKey,
		req.UserID,
		walletType,
		req.Amount,
		req.PaymentAmount,
		req.PaymentMethod,
		s.providerNameFor(req.ProviderName),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if err := s.purchaseRepo.Create(ctx, pr); err != nil {
		// 同時リクエストの挿入競合: 敗者は既存行を読み直して返す
		if errors.Is(err, purchase_request.ErrDuplicateIdempotencyKey) {
			winner, findErr := s.purchaseRepo.FindByIdempotencyKey(ctx, req.IdempotencyKey)
			if findErr != nil {
				return nil, fmt.Errorf("failed to find purchase request after duplicate: %w", findErr)
			}
			return s.responseForExisting(ctx, winner)
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to create purchase request: %w", err)
	}

	// 決済セッションを作成
	prov, err := s.providers.Resolve(req.ProviderName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	sessionCtx, cancel := context.WithTimeout(ctx, s.sessionTimeout)
	defer cancel()

	session, err := prov.CreateSession(sessionCtx, &payment_provider.SessionRequest{
		RequestID: pr.RequestID(),
		UserID:    req.UserID,
		Amount:    req.PaymentAmount,
		Metadata: map[string]string{
			"wallet_type": req.WalletType,
		},
	})
	if err != nil {
		// タイムアウトはpendingのまま残す（同じキーで再試行可能）
		if errors.Is(err, context.DeadlineExceeded) || sessionCtx.Err() != nil {
			s.metrics.RecordPurchase(ctx, prov.Name(), "provider_timeout")
			s.logger.Warn(ctx, "Payment provider timed out", map[string]interface{}{
				"request_id": pr.RequestID(),
				"provider":   prov.Name(),
			})
			return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}

		if failErr := pr.Fail("provider_error", err.Error()); failErr == nil {
			if updateErr := s.purchaseRepo.Update(ctx, pr); updateErr != nil {
				s.logger.Error(ctx, "Failed to mark purchase request as failed", updateErr, map[string]interface{}{
					"request_id": pr.RequestID(),
				})
			}
		}
		s.metrics.RecordPurchase(ctx, prov.Name(), "provider_failure")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}

	if err := pr.StartProcessing(session.SessionID, session.RedirectURL); err != nil {
		return nil, err
	}
	if err := s.purchaseRepo.Update(ctx, pr); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to update purchase request: %w", err)
	}

	s.metrics.RecordPurchase(ctx, prov.Name(), "initiated")
	s.logger.Info(ctx, "Purchase initiated", map[string]interface{}{
		"request_id": pr.RequestID(),
		"session_id": session.SessionID,
		"provider":   prov.Name(),
	})

	return &InitiateResponse{
		RequestID:   pr.RequestID(),
		Status:      pr.Status().String(),
		RedirectURL: session.RedirectURL,
	}, nil
}

// responseForExisting 既存リクエストに対する冪等なレスポンスを組み立てる
func (s *PurchaseApplicationService) responseForExisting(ctx context.Context, pr *purchase_request.PurchaseRequest) (*InitiateResponse, error) {
	switch pr.Status() {
	case purchase_request.StatusCompleted:
		return &InitiateResponse{
			RequestID:        pr.RequestID(),
			Status:           pr.Status().String(),
			AlreadyCompleted: true,
		}, nil
	case purchase_request.StatusPending, purchase_request.StatusProcessing:
		resp := &InitiateResponse{
			RequestID:         pr.RequestID(),
			Status:            pr.Status().String(),
			AlreadyProcessing: true,
		}
		if pr.RedirectURL() != nil {
			resp.RedirectURL = *pr.RedirectURL()
		}
		return resp, nil
	default:
		// failed/expiredのキーは使用済み: クライアントは新しいキーで再試行する
		s.logger.Warn(ctx, "Idempotency key already used by terminal request", map[string]interface{}{
			"request_id": pr.RequestID(),
			"status":     pr.Status().String(),
		})
		return nil, purchase_request.ErrIdempotencyKeyUsed
	}
}

// HandleWebhook 決済プロバイダからのWebhookを処理する
// 同じイベントの再配送があってもウォレット加算は最大1回しか適用されない
func (s *PurchaseApplicationService) HandleWebhook(ctx context.Context, req *WebhookRequest) (*WebhookResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PurchaseApplicationService.HandleWebhook")
	defer span.End()

	span.SetAttributes(
		attribute.String("provider", req.ProviderName),
	)

	// プロバイダ解決（未知の名前はデフォルトプロバイダで検証）
	prov, err := s.providers.Resolve(req.ProviderName)
	if err != nil {
		prov, err = s.providers.Default()
		if err != nil {
			return nil, err
		}
	}

	// 状態に触れる前に署名を検証する
	if err := prov.VerifyWebhook(req.Header, req.Body); err != nil {
		s.metrics.RecordWebhook(ctx, prov.Name(), "invalid_signature")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	event, err := prov.ParseWebhook(req.Body)
	if err != nil {
		s.metrics.RecordWebhook(ctx, prov.Name(), "malformed_payload")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("session_id", event.SessionID))

	pr, err := s.purchaseRepo.FindByProviderSessionID(ctx, event.SessionID)
	if err != nil {
		// 未知のセッションは無害なno-op（プロバイダの再送を止めるため成功を返す）
		if errors.Is(err, purchase_request.ErrPurchaseRequestNotFound) {
			s.logger.Warn(ctx, "Webhook for unknown session", map[string]interface{}{
				"provider":   prov.Name(),
				"session_id": event.SessionID,
			})
			s.metrics.RecordWebhook(ctx, prov.Name(), "unknown_session")
			return &WebhookResponse{Received: true, Result: "ignored"}, nil
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find purchase request: %w", err)
	}

	// 終端状態への再配送は重複: ウォレットには一切触れない
	if pr.Status().IsTerminal() {
		s.logger.Info(ctx, "Duplicate webhook delivery", map[string]interface{}{
			"request_id": pr.RequestID(),
			"status":     pr.Status().String(),
		})
		s.metrics.RecordWebhook(ctx, prov.Name(), "duplicate")
		return &WebhookResponse{Received: true, RequestID: pr.RequestID(), Result: "duplicate"}, nil
	}

	// ステータス遷移とウォレット加算を1トランザクションで確定する
	// 終端遷移を条件付きUPDATEで先に確定させ、同時配送の敗者は加算前に0行更新で脱落する
	var result string
	err = s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if event.Succeeded {
			if err := pr.Complete(time.Now()); err != nil {
				return err
			}
			result = "completed"
		} else {
			errorCode := event.ErrorCode
			if errorCode == "" {
				errorCode = "payment_failed"
			}
			if err := pr.Fail(errorCode, event.ErrorMessage); err != nil {
				return err
			}
			result = "failed"
		}

		if err := s.purchaseRepo.Update(ctx, pr); err != nil {
			return err
		}

		if event.Succeeded {
			batchID := pr.RequestID()
			_, err := s.walletSvc.ApplyAdjustment(ctx, &appwallet.AdjustBalanceRequest{
				UserID:         pr.UserID(),
				WalletType:     pr.WalletType().String(),
				ChangeMethod:   wallet_history.ChangeMethodIncrement.String(),
				Amount:         pr.Amount(),
				SourceType:     wallet_history.SourceTypeSystem.String(),
				RequestBatchID: &batchID,
				Reason:         "purchase",
				Meta: map[string]interface{}{
					"provider":       prov.Name(),
					"session_id":     event.SessionID,
					"payment_amount": pr.PaymentAmount(),
					"payment_method": pr.PaymentMethod(),
				},
			})
			if err != nil {
				return fmt.Errorf("failed to credit wallet: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, purchase_request.ErrAlreadyFinalized) {
		// 別の配送が先に確定済み: 重複として扱いウォレットには触れない
		s.logger.Info(ctx, "Duplicate webhook delivery", map[string]interface{}{
			"request_id": pr.RequestID(),
			"status":     pr.Status().String(),
		})
		s.metrics.RecordWebhook(ctx, prov.Name(), "duplicate")
		return &WebhookResponse{Received: true, RequestID: pr.RequestID(), Result: "duplicate"}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to process webhook", err, map[string]interface{}{
			"request_id": pr.RequestID(),
		})
		s.metrics.RecordWebhook(ctx, prov.Name(), "error")
		return nil, err
	}

	s.metrics.RecordWebhook(ctx, prov.Name(), result)
	s.metrics.RecordPurchase(ctx, prov.Name(), result)
	s.logger.Info(ctx, "Webhook processed", map[string]interface{}{
		"request_id": pr.RequestID(),
		"result":     result,
	})

	return &WebhookResponse{Received: true, RequestID: pr.RequestID(), Result: result}, nil
}

// GetStatus 購入リクエストのステータスを取得する
// 所有ユーザー本人か管理者のみ参照できる
func (s *PurchaseApplicationService) GetStatus(ctx context.Context, req *GetStatusRequest) (*GetStatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PurchaseApplicationService.GetStatus")
	defer span.End()

	span.SetAttributes(attribute.String("request_id", req.RequestID))

	pr, err := s.purchaseRepo.FindByRequestID(ctx, req.RequestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	if !req.IsAdmin && pr.UserID() != req.UserID {
		return nil, ErrForbidden
	}

	return &GetStatusResponse{
		RequestID:     pr.RequestID(),
		UserID:        pr.UserID(),
		WalletType:    pr.WalletType().String(),
		Amount:        pr.Amount(),
		PaymentAmount: pr.PaymentAmount(),
		PaymentMethod: pr.PaymentMethod(),
		Status:        pr.Status().String(),
		RedirectURL:   pr.RedirectURL(),
		CompletedAt:   pr.CompletedAt(),
		ErrorCode:     pr.ErrorCode(),
		ErrorMessage:  pr.ErrorMessage(),
		CreatedAt:     pr.CreatedAt(),
	}, nil
}

// ExpireStale 期限切れのpending/processingリクエストをexpiredに遷移させる
// ウォレットには一切触れない（期限切れ後のWebhookは重複配送として扱われる）
func (s *PurchaseApplicationService) ExpireStale(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "PurchaseApplicationService.ExpireStale")
	defer span.End()

	cutoff := time.Now().Add(-s.expireAfter)
	count, err := s.purchaseRepo.MarkExpiredBefore(ctx, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to expire stale purchase requests: %w", err)
	}

	if count > 0 {
		s.logger.Info(ctx, "Expired stale purchase requests", map[string]interface{}{
			"count": count,
		})
	}
	span.SetAttributes(attribute.Int64("expired_count", count))

	return count, nil
}

// providerNameFor リクエストのプロバイダ名を解決する（空ならデフォルト名）
func (s *PurchaseApplicationService) providerNameFor(name string) string {
	if name != "" {
		return name
	}
	if p, err := s.providers.Default(); err == nil {
		return p.Name()
	}
	return name
}
