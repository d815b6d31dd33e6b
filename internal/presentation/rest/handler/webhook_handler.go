package handler

import (
	"io"
	"net/http"

	purchaseapp "wallet-server/internal/application/purchase"

	"github.com/labstack/echo/v4"
)

// WebhookHandler 決済プロバイダWebhookハンドラー
type WebhookHandler struct {
	purchaseService *purchaseapp.PurchaseApplicationService
}

// NewWebhookHandler 新しいWebhookHandlerを作成
func NewWebhookHandler(purchaseService *purchaseapp.PurchaseApplicationService) *WebhookHandler {
	return &WebhookHandler{
		purchaseService: purchaseService,
	}
}

// HandlePaymentWebhook 決済Webhookハンドラー
// JWT認証は行わない: プロバイダの署名検証で認証する
// @Summary 決済プロバイダからのWebhookを受信
// @Description 決済結果を受信し、成功時はウォレットへの加算を確定します。再配送されても加算は1回のみです
// @Tags webhook
// @Accept json
// @Produce json
// @Param provider query string false "プロバイダ名" example(dummy)
// @Param X-Payment-Signature header string false "Webhook署名"
// @Success 200 {object} WebhookResponse "受信成功"
// @Failure 400 {object} ErrorResponse "不正なペイロード"
// @Failure 401 {object} ErrorResponse "署名不正"
// @Router /webhook/payment [post]
func (h *WebhookHandler) HandlePaymentWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	resp, err := h.purchaseService.HandleWebhook(c.Request().Context(), &purchaseapp.WebhookRequest{
		ProviderName: c.QueryParam("provider"),
		Header:       c.Request().Header,
		Body:         body,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, WebhookResponse{
		Received: resp.Received,
		Result:   resp.Result,
	})
}
