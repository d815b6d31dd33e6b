package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"wallet-server/internal/domain/payment_provider"
)

// SignatureHeader Webhookリクエストの署名ヘッダー名
const SignatureHeader = "X-Payment-Signature"

// DummyProvider 開発・テスト用の決済プロバイダ
// 外部通信は行わず、セッションIDをローカルに発行してチェックアウトURLを組み立てる
type DummyProvider struct {
	checkoutBaseURL string
	webhookSecret   string
}

// NewDummyProvider 新しいDummyProviderを作成
func NewDummyProvider(checkoutBaseURL, webhookSecret string) *DummyProvider {
	return &DummyProvider{
		checkoutBaseURL: checkoutBaseURL,
		webhookSecret:   webhookSecret,
	}
}

// Name プロバイダ識別子を返す
func (p *DummyProvider) Name() string {
	return "dummy"
}

// CreateSession 決済セッションを作成する
func (p *DummyProvider) CreateSession(ctx context.Context, req *payment_provider.SessionRequest) (*payment_provider.Session, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", payment_provider.ErrProviderUnavailable, ctx.Err())
	default:
	}

	sessionID := uuid.New().String()
	return &payment_provider.Session{
		SessionID:   sessionID,
		RedirectURL: fmt.Sprintf("%s/checkout/%s", p.checkoutBaseURL, sessionID),
	}, nil
}

// VerifyWebhook Webhookリクエストの署名を検証する
// シークレットが未設定の場合は検証をスキップする（開発用）
func (p *DummyProvider) VerifyWebhook(header http.Header, body []byte) error {
	if p.webhookSecret == "" {
		return nil
	}

	signature := header.Get(SignatureHeader)
	if signature == "" {
		return payment_provider.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(p.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return payment_provider.ErrInvalidSignature
	}
	return nil
}

// dummyWebhookPayload DummyプロバイダのWebhookペイロード
type dummyWebhookPayload struct {
	SessionID    string `json:"session_id"`
	Status       string `json:"status"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ParseWebhook Webhookボディを決済結果イベントに変換する
func (p *DummyProvider) ParseWebhook(body []byte) (*payment_provider.WebhookEvent, error) {
	var payload dummyWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", payment_provider.ErrMalformedPayload, err)
	}

	if payload.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session_id", payment_provider.ErrMalformedPayload)
	}

	switch payload.Status {
	case "succeeded":
		return &payment_provider.WebhookEvent{
			SessionID: payload.SessionID,
			Succeeded: true,
		}, nil
	case "failed":
		return &payment_provider.WebhookEvent{
			SessionID:    payload.SessionID,
			Succeeded:    false,
			ErrorCode:    payload.ErrorCode,
			ErrorMessage: payload.ErrorMessage,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown status %q", payment_provider.ErrMalformedPayload, payload.Status)
	}
}

// Sign テストやローカル検証用にWebhookボディの署名を生成する
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
