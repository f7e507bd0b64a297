package repository

import (
	"context"

	"roadmech/internal/domain/entity"
)

type PendingRegistrationRepository interface {
	Create(ctx context.Context, reg *entity.PendingRegistration) error
	GetByEmail(ctx context.Context, email string) (*entity.PendingRegistration, error)
	Delete(ctx context.Context, id string) error
}
