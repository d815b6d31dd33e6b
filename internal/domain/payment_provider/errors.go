package payment_provider

import "errors"

var (
	// ErrInvalidSignature はWebhook署名が検証できない場合のエラー
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedPayload はWebhookペイロードが解釈できない場合のエラー
	ErrMalformedPayload = errors.New("malformed webhook payload")
	// ErrProviderUnavailable はプロバイダとの通信に失敗した場合のエラー
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	// ErrProviderNotFound は未知のプロバイダ名が指定された場合のエラー
	ErrProviderNotFound = errors.New("payment provider not found")
)
