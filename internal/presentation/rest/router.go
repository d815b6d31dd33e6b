package rest

import (
	authapp "wallet-server/internal/application/auth"
	historyapp "wallet-server/internal/application/history"
	purchaseapp "wallet-server/internal/application/purchase"
	walletapp "wallet-server/internal/application/wallet"
	"wallet-server/internal/infrastructure/config"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/presentation/rest/handler"
	restmiddleware "wallet-server/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Router REST APIルーター
type Router struct {
	echo            *echo.Echo
	walletHandler   *handler.WalletHandler
	purchaseHandler *handler.PurchaseHandler
	webhookHandler  *handler.WebhookHandler
	historyHandler  *handler.HistoryHandler
	authHandler     *handler.AuthHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	walletService *walletapp.WalletApplicationService,
	purchaseService *purchaseapp.PurchaseApplicationService,
	historyService *historyapp.HistoryApplicationService,
	authService *authapp.AuthApplicationService,
) (*Router, error) {
	e := echo.New()

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	setupMiddleware(e, cfg, logger, metrics)

	walletHandler := handler.NewWalletHandler(walletService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	webhookHandler := handler.NewWebhookHandler(purchaseService)
	historyHandler := handler.NewHistoryHandler(historyService)
	authHandler := handler.NewAuthHandler(authService)

	setupRoutes(e, cfg, logger, walletHandler, purchaseHandler, webhookHandler, historyHandler, authHandler)

	// Swagger UI / ReDoc統合
	SetupSwagger(e)

	return &Router{
		echo:            e,
		walletHandler:   walletHandler,
		purchaseHandler: purchaseHandler,
		webhookHandler:  webhookHandler,
		historyHandler:  historyHandler,
		authHandler:     authHandler,
	}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // 本番環境では適切に設定
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	// セキュリティヘッダー
	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// メトリクスミドルウェア
	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	logger *otelinfra.Logger,
	walletHandler *handler.WalletHandler,
	purchaseHandler *handler.PurchaseHandler,
	webhookHandler *handler.WebhookHandler,
	historyHandler *handler.HistoryHandler,
	authHandler *handler.AuthHandler,
) {
	// API v1グループ
	api := e.Group("/api/v1")

	// Webhookエンドポイント（JWT認証なし: プロバイダの署名検証で認証する）
	api.POST("/webhook/payment", webhookHandler.HandlePaymentWebhook)

	// トークン発行エンドポイント（開発・テスト用、本番環境では無効）
	if cfg.Environment != "production" {
		api.POST("/auth/token", authHandler.GenerateToken)
	}

	// 認証が必要なエンドポイント
	authGroup := api.Group("", restmiddleware.AuthMiddleware(&cfg.JWT, logger))

	// ウォレット関連エンドポイント
	authGroup.GET("/wallet/:user_id/balance", walletHandler.GetBalance)
	authGroup.POST("/wallet/:user_id/adjust", walletHandler.AdjustBalance,
		restmiddleware.RequireAdminMiddleware(logger))

	// 購入関連エンドポイント
	authGroup.POST("/wallet/purchase/initiate", purchaseHandler.Initiate)
	authGroup.GET("/wallet/purchase/:id/status", purchaseHandler.GetStatus)

	// 履歴関連エンドポイント
	authGroup.GET("/wallet/history/batches", historyHandler.ListBatchSummaries)

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	return r.echo.Start(address)
}

// Shutdown サーバーをシャットダウン
func (r *Router) Shutdown() error {
	return r.echo.Close()
}
