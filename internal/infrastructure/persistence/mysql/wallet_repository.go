package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wallet-server/internal/domain/wallet"
)

// WalletRepository MySQL実装のWalletRepository
type WalletRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewWalletRepository 新しいWalletRepositoryを作成
func NewWalletRepository(db *DB) *WalletRepository {
	return &WalletRepository{
		db:     db,
		tracer: otel.Tracer("wallet-repository"),
	}
}

// FindByUserIDAndType ユーザーIDとウォレットタイプでウォレットを取得
func (r *WalletRepository) FindByUserIDAndType(ctx context.Context, userID string, walletType wallet.WalletType) (*wallet.Wallet, error) {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.FindByUserIDAndType")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.wallet_type", walletType.String()),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		SELECT user_id, wallet_type, balance, locked_balance, version
		FROM wallets
		WHERE user_id = ? AND wallet_type = ?
	`

	var dbUserID string
	var dbWalletType string
	var balance int64
	var lockedBalance int64
	var version int

	err := r.db.runner(ctx).QueryRowContext(ctx, query, userID, walletType.String()).Scan(
		&dbUserID,
		&dbWalletType,
		&balance,
		&lockedBalance,
		&version,
	)

	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "wallet not found")
		return nil, wallet.ErrWalletNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("db.balance", balance),
		attribute.Int("db.version", version),
	)
	span.SetStatus(otelcodes.Ok, "wallet found")

	wt, err := wallet.NewWalletType(dbWalletType)
	if err != nil {
		return nil, fmt.Errorf("invalid wallet type: %w", err)
	}

	w, err := wallet.NewWallet(dbUserID, wt, balance, lockedBalance, version)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct wallet entity: %w", err)
	}

	return w, nil
}

// Save ウォレットを保存（更新、楽観的ロック対応）
// エンティティ側でversionがインクリメント済みのため、WHERE句は変更前のversionと比較する
func (r *WalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", w.UserID()),
		attribute.String("db.wallet_type", w.WalletType().String()),
		attribute.Int64("db.balance", w.Balance()),
		attribute.Int("db.version", w.Version()),
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		UPDATE wallets
		SET balance = ?, locked_balance = ?, version = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND wallet_type = ? AND version = ?
	`

	result, err := r.db.runner(ctx).ExecContext(ctx, query,
		w.Balance(),
		w.LockedBalance(),
		w.Version(),
		w.UserID(),
		w.WalletType().String(),
		w.Version()-1,
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save wallet: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		span.RecordError(wallet.ErrVersionConflict)
		span.SetStatus(otelcodes.Error, wallet.ErrVersionConflict.Error())
		return wallet.ErrVersionConflict
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
	span.SetStatus(otelcodes.Ok, "wallet saved")
	return nil
}

// Create 新しいウォレットを作成
func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	ctx, span := r.tracer.Start(ctx, "WalletRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", w.UserID()),
		attribute.String("db.wallet_type", w.WalletType().String()),
		attribute.Int64("db.balance", w.Balance()),
		attribute.Int("db.version", w.Version()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "wallets"),
	)

	query := `
		INSERT INTO wallets (user_id, wallet_type, balance, locked_balance, version)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.runner(ctx).ExecContext(ctx, query,
		w.UserID(),
		w.WalletType().String(),
		w.Balance(),
		w.LockedBalance(),
		w.Version(),
	)

	if err != nil {
		if isDuplicateKeyError(err) {
			span.SetStatus(otelcodes.Ok, "wallet already exists")
			return wallet.ErrVersionConflict
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "wallet created")
	return nil
}
