package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// 残高調整数
	AdjustmentCount metric.Int64Counter

	// ウォレット残高の分布
	WalletBalance metric.Int64Gauge

	// 購入リクエスト数
	PurchaseCount metric.Int64Counter

	// Webhook受信数
	WebhookCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	adjustmentCount, err := meter.Int64Counter(
		"wallet_adjustments_total",
		metric.WithDescription("Total number of wallet balance adjustments"),
	)
	if err != nil {
		return nil, err
	}

	walletBalance, err := meter.Int64Gauge(
		"wallet_balance",
		metric.WithDescription("Wallet balance"),
	)
	if err != nil {
		return nil, err
	}

	purchaseCount, err := meter.Int64Counter(
		"purchase_requests_total",
		metric.WithDescription("Total number of purchase requests"),
	)
	if err != nil {
		return nil, err
	}

	webhookCount, err := meter.Int64Counter(
		"payment_webhooks_total",
		metric.WithDescription("Total number of payment webhooks received"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		AdjustmentCount: adjustmentCount,
		WalletBalance:   walletBalance,
		PurchaseCount:   purchaseCount,
		WebhookCount:    webhookCount,
		RequestCount:    requestCount,
		ResponseTime:    responseTime,
		ErrorCount:      errorCount,
	}, nil
}

// RecordAdjustment 残高調整を記録
func (m *Metrics) RecordAdjustment(ctx context.Context, changeMethod, walletType, sourceType string) {
	m.AdjustmentCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("change_method", changeMethod),
			attribute.String("wallet_type", walletType),
			attribute.String("source_type", sourceType),
		),
	)
}

// RecordWalletBalance ウォレット残高を記録
func (m *Metrics) RecordWalletBalance(ctx context.Context, userID, walletType string, balance int64) {
	m.WalletBalance.Record(ctx, balance,
		metric.WithAttributes(
			attribute.String("user_id", userID),
			attribute.String("wallet_type", walletType),
		),
	)
}

// RecordPurchase 購入リクエストを記録
func (m *Metrics) RecordPurchase(ctx context.Context, provider, status string) {
	m.PurchaseCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("status", status),
		),
	)
}

// RecordWebhook Webhook受信を記録
func (m *Metrics) RecordWebhook(ctx context.Context, provider, result string) {
	m.WebhookCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("result", result),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
