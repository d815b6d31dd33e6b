package provider

import (
	"fmt"

	"wallet-server/internal/domain/payment_provider"
)

// Registry 決済プロバイダの名前解決を提供
type Registry struct {
	providers   map[string]payment_provider.Provider
	defaultName string
}

// NewRegistry 新しいRegistryを作成
func NewRegistry(defaultName string, providers ...payment_provider.Provider) *Registry {
	m := make(map[string]payment_provider.Provider, len(providers))
	for _, p := range providers {
		m[p.Name()] = p
	}
	return &Registry{
		providers:   m,
		defaultName: defaultName,
	}
}

// Resolve 名前でプロバイダを解決する（空文字列の場合はデフォルトプロバイダを返す）
func (r *Registry) Resolve(name string) (payment_provider.Provider, error) {
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", payment_provider.ErrProviderNotFound, name)
	}
	return p, nil
}

// Default デフォルトプロバイダを返す
func (r *Registry) Default() (payment_provider.Provider, error) {
	return r.Resolve(r.defaultName)
}
