package repository

import (
	"context"

	"roadmech/internal/domain/entity"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.Subscription) error
	GetByID(ctx context.Context, id string) (*entity.Subscription, error)
	Update(ctx context.Context, sub *entity.Subscription) error

	// GetActiveByUser returns the newest active subscription for the user,
	// or nil when none exists. Liveness (expiry) is checked by the caller.
	GetActiveByUser(ctx context.Context, userID string) (*entity.Subscription, error)

	ListByUser(ctx context.Context, userID string) ([]*entity.Subscription, error)
	ListAll(ctx context.Context) ([]*entity.Subscription, error)
	DeleteByUser(ctx context.Context, userID string) error
}
