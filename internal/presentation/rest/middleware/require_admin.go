package middleware

import (
	"net/http"

	otelinfra "wallet-server/internal/infrastructure/observability/otel"

	"github.com/labstack/echo/v4"
)

// RequireAdminMiddleware 管理者ロールを要求するミドルウェア
// AuthMiddlewareの後段で使用する
func RequireAdminMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAdmin(c) {
				logger.Warn(c.Request().Context(), "Admin role required", map[string]interface{}{
					"user_id": UserID(c),
					"path":    c.Request().URL.Path,
				})
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "forbidden",
					Message: "Admin role required",
				})
			}
			return next(c)
		}
	}
}
