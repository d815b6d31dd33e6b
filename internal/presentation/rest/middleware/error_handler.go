package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"wallet-server/internal/application/purchase"
	"wallet-server/internal/domain/payment_provider"
	"wallet-server/internal/domain/purchase_request"
	"wallet-server/internal/domain/wallet"
	"wallet-server/internal/domain/wallet_history"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
// ドメインのセンチネルエラーをHTTPステータスに対応付ける
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// statusMapping センチネルエラーとHTTPレスポンスの対応
type statusMapping struct {
	target error
	status int
	code   string
}

var statusMappings = []statusMapping{
	// 400
	{wallet.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
	{wallet.ErrAmountTooLarge, http.StatusBadRequest, "amount_too_large"},
	{wallet.ErrBalanceOutOfRange, http.StatusBadRequest, "balance_out_of_range"},
	{wallet.ErrInvalidWalletType, http.StatusBadRequest, "invalid_wallet_type"},
	{wallet_history.ErrInvalidChangeMethod, http.StatusBadRequest, "invalid_change_method"},
	{wallet_history.ErrInvalidSourceType, http.StatusBadRequest, "invalid_source_type"},
	{purchase_request.ErrInvalidPurchaseRequest, http.StatusBadRequest, "invalid_purchase_request"},
	{payment_provider.ErrMalformedPayload, http.StatusBadRequest, "malformed_payload"},
	{payment_provider.ErrProviderNotFound, http.StatusBadRequest, "unknown_provider"},
	// 401
	{payment_provider.ErrInvalidSignature, http.StatusUnauthorized, "invalid_signature"},
	// 403
	{purchase.ErrForbidden, http.StatusForbidden, "forbidden"},
	// 404
	{wallet.ErrWalletNotFound, http.StatusNotFound, "wallet_not_found"},
	{purchase_request.ErrPurchaseRequestNotFound, http.StatusNotFound, "purchase_request_not_found"},
	// 409
	{wallet.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{wallet.ErrVersionConflict, http.StatusConflict, "transaction_conflict"},
	{purchase_request.ErrIdempotencyKeyUsed, http.StatusConflict, "idempotency_key_used"},
	{purchase_request.ErrDuplicateIdempotencyKey, http.StatusConflict, "duplicate_idempotency_key"},
	{purchase_request.ErrInvalidStatusTransition, http.StatusConflict, "invalid_status_transition"},
	{purchase_request.ErrAlreadyFinalized, http.StatusConflict, "already_finalized"},
	// 502 / 504
	{purchase.ErrProviderFailure, http.StatusBadGateway, "provider_failure"},
	{payment_provider.ErrProviderUnavailable, http.StatusBadGateway, "provider_unavailable"},
	{purchase.ErrProviderTimeout, http.StatusGatewayTimeout, "provider_timeout"},
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	for _, m := range statusMappings {
		if errors.Is(err, m.target) {
			logger.Warn(ctx, "Request failed with domain error", map[string]interface{}{
				"error": err.Error(),
				"code":  m.code,
			})
			return c.JSON(m.status, ErrorResponse{
				Error:   m.code,
				Message: err.Error(),
			})
		}
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
