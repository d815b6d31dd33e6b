package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wallet-server/internal/domain/wallet"
	"wallet-server/internal/domain/wallet_history"
)

// WalletHistoryRepository MySQL実装のEntryRepository
// 台帳は追記のみ: UPDATE/DELETEは発行しない
type WalletHistoryRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewWalletHistoryRepository 新しいWalletHistoryRepositoryを作成
func NewWalletHistoryRepository(db *DB) *WalletHistoryRepository {
	return &WalletHistoryRepository{
		db:     db,
		tracer: otel.Tracer("wallet-history-repository"),
	}
}

// Save 履歴エントリを保存（INSERTのみ）
func (r *WalletHistoryRepository) Save(ctx context.Context, e *wallet_history.Entry) error {
	ctx, span := r.tracer.Start(ctx, "WalletHistoryRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.entry_id", e.EntryID()),
		attribute.String("db.user_id", e.UserID()),
		attribute.String("db.wallet_type", e.WalletType().String()),
		attribute.String("db.change_method", e.ChangeMethod().String()),
		attribute.Int64("db.points_delta", e.PointsDelta()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "wallet_history"),
	)

	query := `
		INSERT INTO wallet_history (
			entry_id, user_id, wallet_type, change_method,
			points_delta, balance_before, balance_after, source_type,
			request_batch_id, reason, meta, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	// メタデータなしはNULLで保存する（JSONカラムは空文字列を受け付けない）
	var metaValue interface{}
	if e.Meta() != nil {
		metaJSON, err := json.Marshal(e.Meta())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return fmt.Errorf("failed to marshal meta: %w", err)
		}
		metaValue = string(metaJSON)
	}

	batchID := e.RequestBatchID()
	var batchIDValue interface{}
	if batchID != nil {
		batchIDValue = *batchID
	}

	_, err := r.db.runner(ctx).ExecContext(ctx, query,
		e.EntryID(),
		e.UserID(),
		e.WalletType().String(),
		e.ChangeMethod().String(),
		e.PointsDelta(),
		e.BalanceBefore(),
		e.BalanceAfter(),
		e.SourceType().String(),
		batchIDValue,
		e.Reason(),
		metaValue,
		e.CreatedAt(),
	)

	if err != nil {
		if isDuplicateKeyError(err) {
			span.SetStatus(otelcodes.Ok, "duplicate entry id")
			return wallet_history.ErrDuplicateEntryID
		}
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save wallet history entry: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "entry saved")
	return nil
}

// FindByUserID ユーザーIDで履歴エントリ一覧を取得（created_at昇順）
func (r *WalletHistoryRepository) FindByUserID(ctx context.Context, userID string) ([]*wallet_history.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "WalletHistoryRepository.FindByUserID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.user_id", userID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "wallet_history"),
	)

	query := `
		SELECT
			entry_id, user_id, wallet_type, change_method,
			points_delta, balance_before, balance_after, source_type,
			request_batch_id, reason, meta, created_at
		FROM wallet_history
		WHERE user_id = ?
		ORDER BY created_at ASC, entry_id ASC
	`

	rows, err := r.db.runner(ctx).QueryContext(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query wallet history: %w", err)
	}
	defer rows.Close()

	entries, err := r.scanEntries(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("db.result_count", len(entries)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d entries", len(entries)))
	return entries, nil
}

// FindByBatchID バッチ相関IDで履歴エントリ一覧を取得（created_at昇順）
func (r *WalletHistoryRepository) FindByBatchID(ctx context.Context, batchID string) ([]*wallet_history.Entry, error) {
	ctx, span := r.tracer.Start(ctx, "WalletHistoryRepository.FindByBatchID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.request_batch_id", batchID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "wallet_history"),
	)

	query := `
		SELECT
			entry_id, user_id, wallet_type, change_method,
			points_delta, balance_before, balance_after, source_type,
			request_batch_id, reason, meta, created_at
		FROM wallet_history
		WHERE request_batch_id = ?
		ORDER BY created_at ASC, entry_id ASC
	`

	rows, err := r.db.runner(ctx).QueryContext(ctx, query, batchID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query wallet history: %w", err)
	}
	defer rows.Close()

	entries, err := r.scanEntries(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("db.result_count", len(entries)))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("found %d entries", len(entries)))
	return entries, nil
}

// scanEntries 結果セットを履歴エントリにマッピング
func (r *WalletHistoryRepository) scanEntries(rows *sql.Rows) ([]*wallet_history.Entry, error) {
	var entries []*wallet_history.Entry
	for rows.Next() {
		var dbEntryID, dbUserID, dbWalletType, dbChangeMethod, dbSourceType, reason string
		var pointsDelta, balanceBefore, balanceAfter int64
		var batchID sql.NullString
		var metaJSON sql.NullString
		var createdAt time.Time

		if err := rows.Scan(
			&dbEntryID,
			&dbUserID,
			&dbWalletType,
			&dbChangeMethod,
			&pointsDelta,
			&balanceBefore,
			&balanceAfter,
			&dbSourceType,
			&batchID,
			&reason,
			&metaJSON,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan wallet history entry: %w", err)
		}

		wt, err := wallet.NewWalletType(dbWalletType)
		if err != nil {
			return nil, fmt.Errorf("invalid wallet type: %w", err)
		}

		cm, err := wallet_history.NewChangeMethod(dbChangeMethod)
		if err != nil {
			return nil, fmt.Errorf("invalid change method: %w", err)
		}

		st, err := wallet_history.NewSourceType(dbSourceType)
		if err != nil {
			return nil, fmt.Errorf("invalid source type: %w", err)
		}

		var meta map[string]interface{}
		if metaJSON.Valid && metaJSON.String != "" {
			if err := json.Unmarshal([]byte(metaJSON.String), &meta); err != nil {
				return nil, fmt.Errorf("failed to unmarshal meta: %w", err)
			}
		}

		var batchIDPtr *string
		if batchID.Valid {
			batchIDPtr = &batchID.String
		}

		e, err := wallet_history.Reconstruct(
			dbEntryID,
			dbUserID,
			wt,
			cm,
			pointsDelta,
			balanceBefore,
			balanceAfter,
			st,
			batchIDPtr,
			reason,
			meta,
			createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to reconstruct wallet history entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wallet history: %w", err)
	}

	return entries, nil
}
