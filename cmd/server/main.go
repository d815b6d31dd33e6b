package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	authapp "wallet-server/internal/application/auth"
	historyapp "wallet-server/internal/application/history"
	purchaseapp "wallet-server/internal/application/purchase"
	walletapp "wallet-server/internal/application/wallet"
	"wallet-server/internal/domain/service"
	"wallet-server/internal/infrastructure/config"
	otelinfra "wallet-server/internal/infrastructure/observability/otel"
	"wallet-server/internal/infrastructure/persistence/mysql"
	"wallet-server/internal/infrastructure/provider"
	"wallet-server/internal/presentation/rest"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("wallet-server")
	logger := otelinfra.NewLogger(tracer)
	metrics, err := otelinfra.NewMetrics("wallet-server")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// データベース接続の初期化
	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// リポジトリの初期化
	walletRepo := mysql.NewWalletRepository(db)
	historyRepo := mysql.NewWalletHistoryRepository(db)
	purchaseRepo := mysql.NewPurchaseRequestRepository(db)

	// トランザクションマネージャーの初期化
	txManager := mysql.NewTransactionManager(db)

	// ドメインサービスの初期化
	walletService := service.NewWalletService(walletRepo)

	// 決済プロバイダレジストリの初期化
	providerRegistry := provider.NewRegistry(
		cfg.Payment.DefaultProvider,
		provider.NewDummyProvider(cfg.Payment.CheckoutBaseURL, cfg.Payment.WebhookSecret),
	)

	// アプリケーションサービスの初期化
	authAppService := authapp.NewAuthApplicationService(&cfg.JWT, logger)
	walletAppService := walletapp.NewWalletApplicationService(
		walletRepo,
		historyRepo,
		txManager,
		walletService,
		logger,
		metrics,
	)
	purchaseAppService := purchaseapp.NewPurchaseApplicationService(
		purchaseRepo,
		walletAppService,
		txManager,
		providerRegistry,
		logger,
		metrics,
		cfg.Payment.SessionTimeout,
		cfg.Payment.ExpireAfter,
	)
	historyAppService := historyapp.NewHistoryApplicationService(
		historyRepo,
		logger,
		metrics,
	)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(
		cfg,
		logger,
		metrics,
		walletAppService,
		purchaseAppService,
		historyAppService,
		authAppService,
	)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// 期限切れ購入リクエストの定期スイープ
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go func() {
		ticker := time.NewTicker(cfg.Payment.ExpirySweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				count, err := purchaseAppService.ExpireStale(sweepCtx)
				if err != nil {
					logger.Error(sweepCtx, "Failed to expire stale purchase requests", err, nil)
					continue
				}
				if count > 0 {
					logger.Info(sweepCtx, "Expired stale purchase requests", map[string]interface{}{
						"count": count,
					})
				}
			}
		}
	}()

	// サーバーアドレスの設定
	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		log.Printf("REST API server starting on %s", address)
		if err := router.Start(address); err != nil {
			log.Printf("REST API server error: %v", err)
		}
	}()

	// シグナルを待機
	<-quit
	log.Println("Shutting down server...")

	sweepCancel()

	if err := router.Shutdown(); err != nil {
		log.Printf("Error shutting down REST API server: %v", err)
	}

	log.Println("Server stopped")
}
