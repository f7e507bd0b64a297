package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/repository"
	"roadmech/pkg/errors"
)

type firestoreMechanicProfileRepository struct {
	client *firestore.Client
}

func NewFirestoreMechanicProfileRepository(client *firestore.Client) repository.MechanicProfileRepository {
	return &firestoreMechanicProfileRepository{client: client}
}

func (r *firestoreMechanicProfileRepository) Create(ctx context.Context, profile *entity.MechanicProfile) error {
	_, err := r.client.Collection("mechanicProfiles").Doc(profile.ID).Set(ctx, profile)
	if err != nil {
		return errors.Internal("Failed to create mechanic profile", err)
	}
	return nil
}

func (r *firestoreMechanicProfileRepository) GetByID(ctx context.Context, id string) (*entity.MechanicProfile, error) {
	doc, err := r.client.Collection("mechanicProfiles").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Mechanic profile", err)
		}
		return nil, errors.Internal("Failed to get mechanic profile", err)
	}

	var profile entity.MechanicProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, errors.Internal("Failed to parse mechanic profile", err)
	}
	profile.ID = doc.Ref.ID
	return &profile, nil
}

func (r *firestoreMechanicProfileRepository) GetByUserID(ctx context.Context, userID string) (*entity.MechanicProfile, error) {
	iter := r.client.Collection("mechanicProfiles").Where("userId", "==", userID).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Mechanic profile", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query mechanic profile", err)
	}

	var profile entity.MechanicProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, errors.Internal("Failed to parse mechanic profile", err)
	}
	profile.ID = doc.Ref.ID
	return &profile, nil
}

func (r *firestoreMechanicProfileRepository) Update(ctx context.Context, profile *entity.MechanicProfile) error {
	profile.UpdatedAt = time.Now()
	_, err := r.client.Collection("mechanicProfiles").Doc(profile.ID).Set(ctx, profile)
	if err != nil {
		return errors.Internal("Failed to update mechanic profile", err)
	}
	return nil
}

func (r *firestoreMechanicProfileRepository) DeleteByUserID(ctx context.Context, userID string) error {
	iter := r.client.Collection("mechanicProfiles").Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to query mechanic profile", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return errors.Internal("Failed to delete mechanic profile", err)
		}
	}
	return nil
}

func (r *firestoreMechanicProfileRepository) ListAvailable(ctx context.Context) ([]*entity.MechanicProfile, error) {
	iter := r.client.Collection("mechanicProfiles").Where("availability", "==", true).Documents(ctx)
	defer iter.Stop()

	var profiles []*entity.MechanicProfile
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list mechanic profiles", err)
		}

		var profile entity.MechanicProfile
		if err := doc.DataTo(&profile); err != nil {
			return nil, errors.Internal("Failed to parse mechanic profile", err)
		}
		profile.ID = doc.Ref.ID
		profiles = append(profiles, &profile)
	}

	return profiles, nil
}

func (r *firestoreMechanicProfileRepository) AppendReview(ctx context.Context, profileID string, review entity.Review) error {
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := r.client.Collection("mechanicProfiles").Doc(profileID)
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var profile entity.MechanicProfile
		if err := doc.DataTo(&profile); err != nil {
			return err
		}

		profile.Reviews = append(profile.Reviews, review)

		sum := 0
		for _, rv := range profile.Reviews {
			sum += rv.Rating
		}
		profile.Rating = float64(sum) / float64(len(profile.Reviews))
		profile.UpdatedAt = time.Now()

		return tx.Set(docRef, profile)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Mechanic profile", err)
		}
		return errors.Internal("Failed to append review", err)
	}
	return nil
}
