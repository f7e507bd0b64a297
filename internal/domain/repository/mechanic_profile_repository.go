package repository

import (
	"context"

	"roadmech/internal/domain/entity"
)

type MechanicProfileRepository interface {
	Create(ctx context.Context, profile *entity.MechanicProfile) error
	GetByID(ctx context.Context, id string) (*entity.MechanicProfile, error)
	GetByUserID(ctx context.Context, userID string) (*entity.MechanicProfile, error)
	Update(ctx context.Context, profile *entity.MechanicProfile) error
	DeleteByUserID(ctx context.Context, userID string) error

	// ListAvailable returns every profile with availability set. Geospatial
	// filtering happens in the usecase since Firestore cannot index
	// haversine distance.
	ListAvailable(ctx context.Context) ([]*entity.MechanicProfile, error)

	// AppendReview adds the review and recomputes the stored mean rating in
	// a single transaction.
	AppendReview(ctx context.Context, profileID string, review entity.Review) error
}
