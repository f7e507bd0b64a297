package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/repository"
	"roadmech/pkg/errors"
)

type firestorePendingRegistrationRepository struct {
	client *firestore.Client
}

func NewFirestorePendingRegistrationRepository(client *firestore.Client) repository.PendingRegistrationRepository {
	return &firestorePendingRegistrationRepository{client: client}
}

func (r *firestorePendingRegistrationRepository) Create(ctx context.Context, reg *entity.PendingRegistration) error {
	_, err := r.client.Collection("pendingRegistrations").Doc(reg.ID).Set(ctx, reg)
	if err != nil {
		return errors.Internal("Failed to store pending registration", err)
	}
	return nil
}

func (r *firestorePendingRegistrationRepository) GetByEmail(ctx context.Context, email string) (*entity.PendingRegistration, error) {
	iter := r.client.Collection("pendingRegistrations").
		Where("email", "==", email).
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Pending registration", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query pending registration", err)
	}

	var reg entity.PendingRegistration
	if err := doc.DataTo(&reg); err != nil {
		return nil, errors.Internal("Failed to parse pending registration", err)
	}
	reg.ID = doc.Ref.ID
	return &reg, nil
}

func (r *firestorePendingRegistrationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("pendingRegistrations").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete pending registration", err)
	}
	return nil
}
