package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wallet-server/internal/domain/purchase_request"
	"wallet-server/internal/domain/wallet"
)

// PurchaseRequestRepository MySQL実装のPurchaseRequestRepository
type PurchaseRequestRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewPurchaseRequestRepository 新しいPurchaseRequestRepositoryを作成
func NewPurchaseRequestRepository(db *DB) *PurchaseRequestRepository {
	return &PurchaseRequestRepository{
		db:     db,
		tracer: otel.Tracer("purchase-request-repository"),
	}
}

const purchaseRequestColumns = `
	request_id, idempotency_key, user_id, wallet_type,
	amount, payment_amount, payment_method, status, provider_name,
	provider_session_id, redirect_url, completed_at, error_code, error_message,
	created_at, updated_at`

// Create 新しい購入リクエストを作成
// 冪等性キーの一意制約違反はErrDuplicateIdempotencyKeyとして返す
func (r *PurchaseRequestRepository) Create(ctx context.Context, pr *purchase_request.PurchaseRequest) error {
	ctx, span := r.tracer.Start(ctx, "PurchaseRequestRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.request_id", pr.RequestID()),
		attribute.String("db.user_id", pr.UserID()),
		attribute.String("db.status", pr.Status().String()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "purchase_requests"),
	)

	query := `
		INSERT INTO purchase_requests (
			request_id, idempotency_key, user_id, wallet_type,
			amount, payment_amount, payment_method, status, provider_name,
			provider_session_id, redirect_url, completed_at, error_code, error_message,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.runner(ctx).ExecContext(ctx, query,
		pr.RequestID(),
		pr.IdempotencyKey(),
		pr.UserID(),
		pr.WalletType().String(),
		pr.Amount(),
		pr.PaymentAmount(),
		pr.PaymentMethod(),
		pr.Status().String(),
		pr.ProviderName(),
		nullableString(pr.ProviderSessionID()),
		nullableString(pr.RedirectURL()),
		nullableTime(pr.CompletedAt()),
		nullableString(pr.ErrorCode()),
		nullableString(pr.ErrorMessage()),
		pr.CreatedAt(),
		pr.UpdatedAt(),
	)

	if err != nil {
		if isDuplicateKeyError(err) {
			span.SetStatus(otelcodes.Ok, "duplicate idempotency key")
			return purchase_request.ErrDuplicateIdempotencyKey
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create purchase request: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "purchase request created")
	return nil
}

// Update 購入リクエストを更新
// 終端状態（completed/failed/expired）の行は条件付きUPDATEの対象外となり、
// 0行更新はErrAlreadyFinalizedを返す（同時Webhook配送の二重確定を防ぐ）
func (r *PurchaseRequestRepository) Update(ctx context.Context, pr *purchase_request.PurchaseRequest) error {
	ctx, span := r.tracer.Start(ctx, "PurchaseRequestRepository.Update")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.request_id", pr.RequestID()),
		attribute.String("db.status", pr.Status().String()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "purchase_requests"),
	)

	query := `
		UPDATE purchase_requests
		SET status = ?, provider_session_id = ?, redirect_url = ?,
			completed_at = ?, error_code = ?, error_message = ?, updated_at = ?
		WHERE request_id = ? AND status IN ('pending', 'processing')
	`

	result, err := r.db.runner(ctx).ExecContext(ctx, query,
		pr.Status().String(),
		nullableString(pr.ProviderSessionID()),
		nullableString(pr.RedirectURL()),
		nullableTime(pr.CompletedAt()),
		nullableString(pr.ErrorCode()),
		nullableString(pr.ErrorMessage()),
		pr.UpdatedAt(),
		pr.RequestID(),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to update purchase request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Ok, "purchase request already finalized")
		return purchase_request.ErrAlreadyFinalized
	}

	span.SetStatus(otelcodes.Ok, "purchase request updated")
	return nil
}

// FindByRequestID リクエストIDで購入リクエストを取得
func (r *PurchaseRequestRepository) FindByRequestID(ctx context.Context, requestID string) (*purchase_request.PurchaseRequest, error) {
	ctx, span := r.tracer.Start(ctx, "PurchaseRequestRepository.FindByRequestID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.request_id", requestID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "purchase_requests"),
	)

	query := `SELECT` + purchaseRequestColumns + `
		FROM purchase_requests
		WHERE request_id = ?`

	return r.queryOne(ctx, span, query, requestID)
}

// FindByIdempotencyKey 冪等性キーで購入リクエストを取得
func (r *PurchaseRequestRepository) FindByIdempotencyKey(ctx context.Context, idempotencyKey string) (*purchase_request.PurchaseRequest, error) {
	ctx, span := r.tracer.Start(ctx, "PurchaseRequestRepository.FindByIdempotencyKey")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "purchase_requests"),
	)

	query := `SELECT` + purchaseRequestColumns + `
		FROM purchase_requests
		WHERE idempotency_key = ?`

	return r.queryOne(ctx, span, query, idempotencyKey)
}

// FindByProviderSessionID プロバイダセッションIDで購入リクエストを取得
func (r *PurchaseRequestRepository) FindByProviderSessionID(ctx context.Context, sessionID string) (*purchase_request.PurchaseRequest, error) {
	ctx, span := r.tracer.Start(ctx, "PurchaseRequestRepository.FindByProviderSessionID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.provider_session_id", sessionID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "purchase_requests"),
	)

	query := `SELECT` + purchaseRequestColumns + `
		FROM purchase_requests
		WHERE provider_session_id = ?`

	return r.queryOne(ctx, span, query, sessionID)
}

// MarkExpiredBefore 指定時刻より前に作成された未確定リクエストをexpiredに遷移させる
// ウォレットには一切触れない
func (r *PurchaseRequestRepository) MarkExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "PurchaseRequestRepository.MarkExpiredBefore")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.cutoff", cutoff.Format(time.RFC3339)),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "purchase_requests"),
	)

	query := `
		UPDATE purchase_requests
		SET status = 'expired', updated_at = CURRENT_TIMESTAMP
		WHERE status IN ('pending', 'processing') AND created_at < ?
	`

	result, err := r.db.runner(ctx).ExecContext(ctx, query, cutoff)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to mark expired purchase requests: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("expired %d purchase requests", rowsAffected))
	return rowsAffected, nil
}

// queryOne 1件の購入リクエストを取得してエンティティに再構築
func (r *PurchaseRequestRepository) queryOne(ctx context.Context, span trace.Span, query string, arg interface{}) (*purchase_request.PurchaseRequest, error) {
	var dbRequestID, dbIdempotencyKey, dbUserID, dbWalletType string
	var amount, paymentAmount int64
	var paymentMethod, dbStatus, providerName string
	var providerSessionID, redirectURL, errorCode, errorMessage sql.NullString
	var completedAt sql.NullTime
	var createdAt, updatedAt time.Time

	err := r.db.runner(ctx).QueryRowContext(ctx, query, arg).Scan(
		&dbRequestID,
		&dbIdempotencyKey,
		&dbUserID,
		&dbWalletType,
		&amount,
		&paymentAmount,
		&paymentMethod,
		&dbStatus,
		&providerName,
		&providerSessionID,
		&redirectURL,
		&completedAt,
		&errorCode,
		&errorMessage,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "purchase request not found")
		return nil, purchase_request.ErrPurchaseRequestNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find purchase request: %w", err)
	}

	span.SetAttributes(
		attribute.String("db.request_id", dbRequestID),
		attribute.String("db.status", dbStatus),
	)
	span.SetStatus(otelcodes.Ok, "purchase request found")

	wt, err := wallet.NewWalletType(dbWalletType)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet type: %w", err)
	}

	status, err := purchase_request.NewStatus(dbStatus)
	if err != nil {
		return nil, fmt.Errorf("invalid status: %w", err)
	}

	pr, err := purchase_request.Reconstruct(
		dbRequestID,
		dbIdempotencyKey,
		dbUserID,
		wt,
		amount,
		paymentAmount,
		paymentMethod,
		status,
		providerName,
		nullStringPtr(providerSessionID),
		nullStringPtr(redirectURL),
		nullTimePtr(completedAt),
		nullStringPtr(errorCode),
		nullStringPtr(errorMessage),
		createdAt,
		updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct purchase request entity: %w", err)
	}

	return pr, nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
