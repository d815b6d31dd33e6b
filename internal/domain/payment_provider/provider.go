package payment_provider

import (
	"context"
	"net/http"
)

// SessionRequest は決済セッション作成の入力
type SessionRequest struct {
	RequestID string
	UserID    string
	Amount    int64
	Currency  string
	BaseURL   string
	Metadata  map[string]string
}

// Session はプロバイダが発行した決済セッション
type Session struct {
	SessionID   string
	RedirectURL string
}

// WebhookEvent はプロバイダからの決済結果通知
type WebhookEvent struct {
	SessionID    string
	Succeeded    bool
	ErrorCode    string
	ErrorMessage string
}

// Provider は決済プロバイダのインターフェース
// VerifyWebhook は署名検証のみを行い、ParseWebhook は検証済みボディを
// WebhookEvent に変換する。検証とパースを分離することで、署名不正は
// ペイロードの内容を見る前に弾ける。
type Provider interface {
	// Name はプロバイダ識別子を返す
	Name() string
	// CreateSession は決済セッションを作成する
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)
	// VerifyWebhook は Webhook リクエストの署名を検証する
	VerifyWebhook(header http.Header, body []byte) error
	// ParseWebhook は Webhook ボディを決済結果イベントに変換する
	ParseWebhook(body []byte) (*WebhookEvent, error)
}
