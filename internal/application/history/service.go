package history

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wallet-server/internal/domain/wallet_history"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
)

// HistoryApplicationService 履歴アプリケーションサービス
type HistoryApplicationService struct {
	historyRepo wallet_history.EntryRepository
	logger      *otelinfra.Logger
	metrics     *otelinfra.Metrics
	tracer      trace.Tracer
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(
	historyRepo wallet_history.EntryRepository,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *HistoryApplicationService {
	return &HistoryApplicationService{
		historyRepo: historyRepo,
		logger:      logger,
		metrics:     metrics,
		tracer:      otel.Tracer("history-service"),
	}
}

// ListBatchSummaries 履歴をバッチ単位に集約して返す
// ページネーションはグルーピング後に行うため、ページ境界がバッチを分断することはない
func (s *HistoryApplicationService) ListBatchSummaries(ctx context.Context, req *ListBatchSummariesRequest) (*ListBatchSummariesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.ListBatchSummaries")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.Int("limit", req.Limit),
		attribute.Int("page", req.Page),
	)

	s.logger.Info(ctx, "Listing batch summaries", map[string]interface{}{
		"user_id": req.UserID,
		"limit":   req.Limit,
		"page":    req.Page,
	})

	// バリデーション
	if req.Limit <= 0 {
		req.Limit = 20 // デフォルト値
	}
	if req.Limit > 100 {
		req.Limit = 100 // 最大値
	}
	if req.Page < 1 {
		req.Page = 1
	}

	// created_at昇順で全件取得
	entries, err := s.historyRepo.FindByUserID(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to list history entries", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}

	// バッチキーでグルーピング（入力は時系列順なので先頭が最古、末尾が最新）
	summariesByBatch := make(map[string]*BatchSummary)
	methodsByBatch := make(map[string]map[string]struct{})
	sourcesByBatch := make(map[string]map[string]struct{})

	for _, entry := range entries {
		key := entry.BatchKey()
		summary, ok := summariesByBatch[key]
		if !ok {
			summary = &BatchSummary{
				BatchID:       key,
				StartedAt:     entry.CreatedAt(),
				BalanceBefore: entry.BalanceBefore(),
			}
			summariesByBatch[key] = summary
			methodsByBatch[key] = make(map[string]struct{})
			sourcesByBatch[key] = make(map[string]struct{})
		}

		summary.CompletedAt = entry.CreatedAt()
		summary.BalanceAfter = entry.BalanceAfter()
		summary.TotalDelta += entry.SignedDelta()
		summary.EntryCount++
		methodsByBatch[key][entry.ChangeMethod().String()] = struct{}{}
		sourcesByBatch[key][entry.SourceType().String()] = struct{}{}
	}

	summaries := make([]*BatchSummary, 0, len(summariesByBatch))
	for key, summary := range summariesByBatch {
		summary.ChangeMethods = sortedKeys(methodsByBatch[key])
		summary.SourceTypes = sortedKeys(sourcesByBatch[key])
		summaries = append(summaries, summary)
	}

	// 完了時刻の降順、同時刻はバッチIDで安定化
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CompletedAt.Equal(summaries[j].CompletedAt) {
			return summaries[i].CompletedAt.After(summaries[j].CompletedAt)
		}
		return summaries[i].BatchID < summaries[j].BatchID
	})

	total := len(summaries)
	start := (req.Page - 1) * req.Limit
	if start > total {
		start = total
	}
	end := start + req.Limit
	if end > total {
		end = total
	}

	return &ListBatchSummariesResponse{
		Items: summaries[start:end],
		Total: total,
		Limit: req.Limit,
		Page:  req.Page,
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
