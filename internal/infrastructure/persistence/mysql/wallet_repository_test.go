package mysql

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"wallet-server/internal/domain/wallet"
)

func TestWalletRepository_FindByUserIDAndType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &WalletRepository{
		db:     &DB{DB: db},
		tracer: otel.Tracer("test"),
	}

	tests := []struct {
		name       string
		userID     string
		walletType wallet.WalletType
		setupMock  func()
		want       *wallet.Wallet
		wantError  bool
		errorType  error
	}{
		{
			name:       "正常系: ウォレットが見つかる",
			userID:     "user123",
			walletType: wallet.WalletTypeRegularCoin,
			setupMock: func() {
				rows := sqlmock.NewRows([]string{"user_id", "wallet_type", "balance", "locked_balance", "version"}).
					AddRow("user123", "regular_coin", 1000, 0, 1)
				mock.ExpectQuery(`SELECT user_id, wallet_type, balance, locked_balance, version`).
					WithArgs("user123", "regular_coin").
					WillReturnRows(rows)
			},
			want:      wallet.MustNewWallet("user123", wallet.WalletTypeRegularCoin, 1000, 0, 1),
			wantError: false,
		},
		{
			name:       "異常系: ウォレットが見つからない",
			userID:     "user123",
			walletType: wallet.WalletTypeRegularCoin,
			setupMock: func() {
				mock.ExpectQuery(`SELECT user_id, wallet_type, balance, locked_balance, version`).
					WithArgs("user123", "regular_coin").
					WillReturnError(sql.ErrNoRows)
			},
			want:      nil,
			wantError: true,
			errorType: wallet.ErrWalletNotFound,
		},
		{
			name:       "異常系: DBエラー",
			userID:     "user123",
			walletType: wallet.WalletTypeRegularCoin,
			setupMock: func() {
				mock.ExpectQuery(`SELECT user_id, wallet_type, balance, locked_balance, version`).
					WithArgs("user123", "regular_coin").
					WillReturnError(sql.ErrConnDone)
			},
			want:      nil,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			ctx := context.Background()
			got, err := repo.FindByUserIDAndType(ctx, tt.userID, tt.walletType)

			if tt.wantError {
				assert.Error(t, err)
				if tt.errorType != nil {
					assert.Equal(t, tt.errorType, err)
				}
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, got)
				assert.Equal(t, tt.want.UserID(), got.UserID())
				assert.Equal(t, tt.want.WalletType(), got.WalletType())
				assert.Equal(t, tt.want.Balance(), got.Balance())
				assert.Equal(t, tt.want.Version(), got.Version())
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWalletRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &WalletRepository{
		db:     &DB{DB: db},
		tracer: otel.Tracer("test"),
	}

	tests := []struct {
		name      string
		wallet    *wallet.Wallet
		setupMock func()
		wantError bool
		errorType error
	}{
		{
			name:   "正常系: ウォレットを保存",
			wallet: wallet.MustNewWallet("user123", wallet.WalletTypeRegularCoin, 1000, 0, 2),
			setupMock: func() {
				mock.ExpectExec(`UPDATE wallets`).
					WithArgs(int64(1000), int64(0), 2, "user123", "regular_coin", 1).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			wantError: false,
		},
		{
			name:   "異常系: 楽観的ロック失敗（行が更新されない）",
			wallet: wallet.MustNewWallet("user123", wallet.WalletTypeRegularCoin, 1000, 0, 2),
			setupMock: func() {
				mock.ExpectExec(`UPDATE wallets`).
					WithArgs(int64(1000), int64(0), 2, "user123", "regular_coin", 1).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantError: true,
			errorType: wallet.ErrVersionConflict,
		},
		{
			name:   "異常系: DBエラー",
			wallet: wallet.MustNewWallet("user123", wallet.WalletTypeRegularCoin, 1000, 0, 2),
			setupMock: func() {
				mock.ExpectExec(`UPDATE wallets`).
					WithArgs(int64(1000), int64(0), 2, "user123", "regular_coin", 1).
					WillReturnError(sql.ErrConnDone)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			ctx := context.Background()
			err := repo.Save(ctx, tt.wallet)

			if tt.wantError {
				assert.Error(t, err)
				if tt.errorType != nil {
					assert.ErrorIs(t, err, tt.errorType)
				}
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWalletRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := &WalletRepository{
		db:     &DB{DB: db},
		tracer: otel.Tracer("test"),
	}

	tests := []struct {
		name      string
		wallet    *wallet.Wallet
		setupMock func()
		wantError bool
	}{
		{
			name:   "正常系: 新規ウォレットを作成",
			wallet: wallet.MustNewWallet("user123", wallet.WalletTypeRegularCoin, 0, 0, 1),
			setupMock: func() {
				mock.ExpectExec(`INSERT INTO wallets`).
					WithArgs("user123", "regular_coin", int64(0), int64(0), 1).
					WillReturnResult(sqlmock.NewResult(1, 1))
			},
			wantError: false,
		},
		{
			name:   "異常系: DBエラー",
			wallet: wallet.MustNewWallet("user123", wallet.WalletTypeRegularCoin, 0, 0, 1),
			setupMock: func() {
				mock.ExpectExec(`INSERT INTO wallets`).
					WithArgs("user123", "regular_coin", int64(0), int64(0), 1).
					WillReturnError(sql.ErrConnDone)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()
			ctx := context.Background()
			err := repo.Create(ctx, tt.wallet)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestWalletRepository_SaveInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	wrappedDB := &DB{DB: db}
	repo := &WalletRepository{
		db:     wrappedDB,
		tracer: otel.Tracer("test"),
	}
	tm := NewTransactionManager(wrappedDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE wallets`).
		WithArgs(int64(1500), int64(0), 2, "user123", "regular_coin", 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := wallet.MustNewWallet("user123", wallet.WalletTypeRegularCoin, 1500, 0, 2)

	// トランザクション内のリポジトリ操作が同じトランザクションで実行されることを確認
	err = tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		return repo.Save(ctx, w)
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepository_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	wrappedDB := &DB{DB: db}
	repo := &WalletRepository{
		db:     wrappedDB,
		tracer: otel.Tracer("test"),
	}
	tm := NewTransactionManager(wrappedDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE wallets`).
		WithArgs(int64(1500), int64(0), 2, "user123", "regular_coin", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	w := wallet.MustNewWallet("user123", wallet.WalletTypeRegularCoin, 1500, 0, 2)

	err = tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		return repo.Save(ctx, w)
	})

	assert.ErrorIs(t, err, wallet.ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
