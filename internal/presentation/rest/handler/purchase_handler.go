package handler

import (
	"net/http"
	"strconv"
	"time"

	purchaseapp "wallet-server/internal/application/purchase"
	restmiddleware "wallet-server/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
)

// PurchaseHandler 購入関連ハンドラー
type PurchaseHandler struct {
	purchaseService *purchaseapp.PurchaseApplicationService
}

// NewPurchaseHandler 新しいPurchaseHandlerを作成
func NewPurchaseHandler(purchaseService *purchaseapp.PurchaseApplicationService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// Initiate 購入開始ハンドラー
// @Summary 購入を開始
// @Description 決済セッションを作成し、チェックアウトURLを返します。同じ冪等性キーでの再呼び出しは安全です
// @Tags purchase
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body InitiatePurchaseRequest true "購入開始リクエスト"
// @Success 200 {object} InitiatePurchaseResponse "購入開始成功"
// @Failure 400 {object} ErrorResponse "不正なリクエスト"
// @Failure 409 {object} ErrorResponse "使用済み冪等性キー"
// @Failure 502 {object} ErrorResponse "プロバイダエラー"
// @Router /wallet/purchase/initiate [post]
func (h *PurchaseHandler) Initiate(c echo.Context) error {
	userID := restmiddleware.UserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "user_id not found in token")
	}

	var reqBody InitiatePurchaseRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	amount, err := strconv.ParseInt(reqBody.Amount, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid amount format")
	}
	paymentAmount, err := strconv.ParseInt(reqBody.PaymentAmount, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payment_amount format")
	}

	resp, err := h.purchaseService.Initiate(c.Request().Context(), &purchaseapp.InitiateRequest{
		UserID:         userID,
		IdempotencyKey: reqBody.IdempotencyKey,
		WalletType:     reqBody.WalletType,
		Amount:         amount,
		PaymentAmount:  paymentAmount,
		PaymentMethod:  reqBody.PaymentMethod,
		ProviderName:   reqBody.Provider,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, InitiatePurchaseResponse{
		RequestID:         resp.RequestID,
		Status:            resp.Status,
		RedirectURL:       resp.RedirectURL,
		AlreadyProcessing: resp.AlreadyProcessing,
		AlreadyCompleted:  resp.AlreadyCompleted,
	})
}

// GetStatus 購入ステータス取得ハンドラー
// @Summary 購入ステータスを取得
// @Description 購入リクエストの現在のステータスを取得します（本人または管理者のみ）
// @Tags purchase
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "リクエストID"
// @Success 200 {object} PurchaseStatusResponse "ステータス取得成功"
// @Failure 403 {object} ErrorResponse "権限エラー"
// @Failure 404 {object} ErrorResponse "リクエストが見つからない"
// @Router /wallet/purchase/{id}/status [get]
func (h *PurchaseHandler) GetStatus(c echo.Context) error {
	requestID := c.Param("id")
	if requestID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "request id is required")
	}

	resp, err := h.purchaseService.GetStatus(c.Request().Context(), &purchaseapp.GetStatusRequest{
		RequestID: requestID,
		UserID:    restmiddleware.UserID(c),
		IsAdmin:   restmiddleware.IsAdmin(c),
	})
	if err != nil {
		return err
	}

	result := PurchaseStatusResponse{
		RequestID:     resp.RequestID,
		UserID:        resp.UserID,
		WalletType:    resp.WalletType,
		Amount:        strconv.FormatInt(resp.Amount, 10),
		PaymentAmount: strconv.FormatInt(resp.PaymentAmount, 10),
		PaymentMethod: resp.PaymentMethod,
		Status:        resp.Status,
		RedirectURL:   resp.RedirectURL,
		ErrorCode:     resp.ErrorCode,
		ErrorMessage:  resp.ErrorMessage,
		CreatedAt:     resp.CreatedAt.Format(time.RFC3339),
	}
	if resp.CompletedAt != nil {
		completedAt := resp.CompletedAt.Format(time.RFC3339)
		result.CompletedAt = &completedAt
	}

	return c.JSON(http.StatusOK, result)
}
