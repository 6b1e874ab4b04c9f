package cache

import (
	"context"
	"time"

	"adegamanager/backend/internal/domain"
)

// CatalogCache keeps the payment-method catalog warm between checkout
// sessions so opening a session does not always round-trip to the store.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]domain.PaymentMethodDescriptor, bool, error)
	Set(ctx context.Context, key string, value []domain.PaymentMethodDescriptor, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type NoopCatalogCache struct{}

func (NoopCatalogCache) Get(_ context.Context, _ string) ([]domain.PaymentMethodDescriptor, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) Set(_ context.Context, _ string, _ []domain.PaymentMethodDescriptor, _ time.Duration) error {
	return nil
}

func (NoopCatalogCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
