package handler

import (
	"net/http"
	"strconv"
	"time"

	historyapp "wallet-server/internal/application/history"
	restmiddleware "wallet-server/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
)

// HistoryHandler 履歴関連ハンドラー
type HistoryHandler struct {
	historyService *historyapp.HistoryApplicationService
}

// NewHistoryHandler 新しいHistoryHandlerを作成
func NewHistoryHandler(historyService *historyapp.HistoryApplicationService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
	}
}

// ListBatchSummaries バッチサマリ一覧取得ハンドラー
// @Summary 履歴のバッチサマリを取得
// @Description ウォレット履歴をバッチ単位に集約して返します。user_id未指定時は自分の履歴を返します
// @Tags history
// @Accept json
// @Produce json
// @Security Bearer
// @Param user_id query string false "ユーザーID（管理者のみ他ユーザーを指定可能）"
// @Param limit query int false "1ページあたりの件数（デフォルト20、最大100）"
// @Param page query int false "ページ番号（1始まり）"
// @Success 200 {object} ListBatchSummariesResponse "取得成功"
// @Failure 403 {object} ErrorResponse "権限エラー"
// @Router /wallet/history/batches [get]
func (h *HistoryHandler) ListBatchSummaries(c echo.Context) error {
	authUserID := restmiddleware.UserID(c)
	if authUserID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = authUserID
	}
	// 他ユーザーの履歴は管理者のみ参照できる
	if userID != authUserID && !restmiddleware.IsAdmin(c) {
		return echo.NewHTTPError(http.StatusForbidden, "cannot access another user's history")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	page, _ := strconv.Atoi(c.QueryParam("page"))

	resp, err := h.historyService.ListBatchSummaries(c.Request().Context(), &historyapp.ListBatchSummariesRequest{
		UserID: userID,
		Limit:  limit,
		Page:   page,
	})
	if err != nil {
		return err
	}

	items := make([]BatchSummaryItem, len(resp.Items))
	for i, summary := range resp.Items {
		items[i] = BatchSummaryItem{
			BatchID:       summary.BatchID,
			StartedAt:     summary.StartedAt.Format(time.RFC3339),
			CompletedAt:   summary.CompletedAt.Format(time.RFC3339),
			BalanceBefore: strconv.FormatInt(summary.BalanceBefore, 10),
			BalanceAfter:  strconv.FormatInt(summary.BalanceAfter, 10),
			TotalDelta:    strconv.FormatInt(summary.TotalDelta, 10),
			ChangeMethods: summary.ChangeMethods,
			SourceTypes:   summary.SourceTypes,
			EntryCount:    summary.EntryCount,
		}
	}

	return c.JSON(http.StatusOK, ListBatchSummariesResponse{
		Items: items,
		Total: resp.Total,
		Limit: resp.Limit,
		Page:  resp.Page,
	})
}
