package repository

import (
	"context"

	"roadmech/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Delete(ctx context.Context, id string) error
	ListByRole(ctx context.Context, role string, limit, offset int) ([]*entity.User, int64, error)
	ListUnapprovedMechanics(ctx context.Context) ([]*entity.User, error)

	// AdjustBasicBookingsUsed increments (or decrements, with a negative
	// delta) the best-effort counter, clamped at zero.
	AdjustBasicBookingsUsed(ctx context.Context, userID string, delta int) error
}
