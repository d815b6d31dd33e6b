package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"wallet-server/internal/domain/wallet"
	"wallet-server/internal/domain/wallet_history"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
)

// MockEntryRepository モック履歴リポジトリ
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

func newTestHistoryService(t *testing.T, repo *MockEntryRepository) *HistoryApplicationService {
	t.Helper()
	tracer := otel.Tracer("test")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("test")
	require.NoError(t, err)
	return NewHistoryApplicationService(repo, logger, metrics)
}

func historyEntry(t *testing.T, entryID string, method wallet_history.ChangeMethod, delta, before, after int64, batchID *string, createdAt time.Time) *wallet_history.Entry {
	t.Helper()
	entry, err := wallet_history.Reconstruct(
		entryID, "user123", wallet.WalletTypeRegularCoin, method, delta,
		before, after, wallet_history.SourceTypeAdminAction, batchID, "", nil,
		createdAt,
	)
	require.NoError(t, err)
	return entry
}

func TestHistoryApplicationService_ListBatchSummaries(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	batch1 := "B1"

	t.Run("正常系: バッチ単位に集約される", func(t *testing.T) {
		// B1: +50 (0→50), +70 (50→120), -20 (120→100)
		entries := []*wallet_history.Entry{
			historyEntry(t, "e1", wallet_history.ChangeMethodIncrement, 50, 0, 50, &batch1, base),
			historyEntry(t, "e2", wallet_history.ChangeMethodIncrement, 70, 50, 120, &batch1, base.Add(1*time.Minute)),
			historyEntry(t, "e3", wallet_history.ChangeMethodDecrement, 20, 120, 100, &batch1, base.Add(2*time.Minute)),
		}
		mockRepo := new(MockEntryRepository)
		mockRepo.On("FindByUserID", mock.Anything, "user123").Return(entries, nil)

		svc := newTestHistoryService(t, mockRepo)
		got, err := svc.ListBatchSummaries(context.Background(), &ListBatchSummariesRequest{UserID: "user123"})

		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		summary := got.Items[0]
		assert.Equal(t, "B1", summary.BatchID)
		assert.Equal(t, int64(0), summary.BalanceBefore)
		assert.Equal(t, int64(100), summary.BalanceAfter)
		assert.Equal(t, int64(100), summary.TotalDelta)
		assert.Equal(t, 3, summary.EntryCount)
		assert.Equal(t, base, summary.StartedAt)
		assert.Equal(t, base.Add(2*time.Minute), summary.CompletedAt)
		assert.Equal(t, []string{"decrement", "increment"}, summary.ChangeMethods)
		assert.Equal(t, []string{"admin_action"}, summary.SourceTypes)
		assert.Equal(t, 1, got.Total)
	})

	t.Run("正常系: バッチIDのないエントリは単独バッチになる", func(t *testing.T) {
		entries := []*wallet_history.Entry{
			historyEntry(t, "e1", wallet_history.ChangeMethodIncrement, 100, 0, 100, nil, base),
			historyEntry(t, "e2", wallet_history.ChangeMethodDecrement, 30, 100, 70, nil, base.Add(1*time.Minute)),
		}
		mockRepo := new(MockEntryRepository)
		mockRepo.On("FindByUserID", mock.Anything, "user123").Return(entries, nil)

		svc := newTestHistoryService(t, mockRepo)
		got, err := svc.ListBatchSummaries(context.Background(), &ListBatchSummariesRequest{UserID: "user123"})

		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		// 完了時刻の降順
		assert.Equal(t, "e2", got.Items[0].BatchID)
		assert.Equal(t, "e1", got.Items[1].BatchID)
		assert.Equal(t, int64(-30), got.Items[0].TotalDelta)
	})

	t.Run("正常系: SETのTotalDeltaは差分になる", func(t *testing.T) {
		entries := []*wallet_history.Entry{
			historyEntry(t, "e1", wallet_history.ChangeMethodSet, 200, 150, 200, nil, base),
		}
		mockRepo := new(MockEntryRepository)
		mockRepo.On("FindByUserID", mock.Anything, "user123").Return(entries, nil)

		svc := newTestHistoryService(t, mockRepo)
		got, err := svc.ListBatchSummaries(context.Background(), &ListBatchSummariesRequest{UserID: "user123"})

		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, int64(50), got.Items[0].TotalDelta)
		assert.Equal(t, []string{"set"}, got.Items[0].ChangeMethods)
	})

	t.Run("正常系: ページネーションはグルーピング後に行う", func(t *testing.T) {
		entries := make([]*wallet_history.Entry, 0, 5)
		for i := 0; i < 5; i++ {
			entries = append(entries, historyEntry(
				t, string(rune('a'+i)), wallet_history.ChangeMethodIncrement, 10,
				int64(i*10), int64((i+1)*10), nil, base.Add(time.Duration(i)*time.Minute),
			))
		}
		mockRepo := new(MockEntryRepository)
		mockRepo.On("FindByUserID", mock.Anything, "user123").Return(entries, nil)

		svc := newTestHistoryService(t, mockRepo)
		got, err := svc.ListBatchSummaries(context.Background(), &ListBatchSummariesRequest{
			UserID: "user123",
			Limit:  2,
			Page:   2,
		})

		require.NoError(t, err)
		assert.Equal(t, 5, got.Total)
		require.Len(t, got.Items, 2)
		// 降順なので2ページ目は3番目・4番目に新しいバッチ
		assert.Equal(t, "c", got.Items[0].BatchID)
		assert.Equal(t, "b", got.Items[1].BatchID)
	})

	t.Run("正常系: 範囲外ページは空ページを返す", func(t *testing.T) {
		mockRepo := new(MockEntryRepository)
		mockRepo.On("FindByUserID", mock.Anything, "user123").Return([]*wallet_history.Entry{}, nil)

		svc := newTestHistoryService(t, mockRepo)
		got, err := svc.ListBatchSummaries(context.Background(), &ListBatchSummariesRequest{
			UserID: "user123",
			Page:   3,
		})

		require.NoError(t, err)
		assert.Empty(t, got.Items)
		assert.Equal(t, 0, got.Total)
		assert.Equal(t, 20, got.Limit)
	})

	t.Run("異常系: リポジトリエラー", func(t *testing.T) {
		mockRepo := new(MockEntryRepository)
		mockRepo.On("FindByUserID", mock.Anything, "user123").Return(nil, errors.New("database error"))

		svc := newTestHistoryService(t, mockRepo)
		got, err := svc.ListBatchSummaries(context.Background(), &ListBatchSummariesRequest{UserID: "user123"})

		assert.Error(t, err)
		assert.Nil(t, got)
	})
}
