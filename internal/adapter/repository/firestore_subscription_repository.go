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

type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

func NewFirestoreSubscriptionRepository(client *firestore.Client) repository.SubscriptionRepository {
	return &firestoreSubscriptionRepository{client: client}
}

func (r *firestoreSubscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) error {
	_, err := r.client.Collection("subscriptions").Doc(sub.ID).Set(ctx, sub)
	if err != nil {
		return errors.Internal("Failed to create subscription", err)
	}
	return nil
}

func (r *firestoreSubscriptionRepository) GetByID(ctx context.Context, id string) (*entity.Subscription, error) {
	doc, err := r.client.Collection("subscriptions").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Subscription", err)
		}
		return nil, errors.Internal("Failed to get subscription", err)
	}

	var sub entity.Subscription
	if err := doc.DataTo(&sub); err != nil {
		return nil, errors.Internal("Failed to parse subscription data", err)
	}
	sub.ID = doc.Ref.ID
	return &sub, nil
}

func (r *firestoreSubscriptionRepository) Update(ctx context.Context, sub *entity.Subscription) error {
	sub.UpdatedAt = time.Now()
	_, err := r.client.Collection("subscriptions").Doc(sub.ID).Set(ctx, sub)
	if err != nil {
		return errors.Internal("Failed to update subscription", err)
	}
	return nil
}

// GetActiveByUser takes the newest active record when duplicates exist, so
// an upgrade that raced a cleanup still resolves deterministically.
func (r *firestoreSubscriptionRepository) GetActiveByUser(ctx context.Context, userID string) (*entity.Subscription, error) {
	iter := r.client.Collection("subscriptions").
		Where("userId", "==", userID).
		Where("status", "==", entity.SubscriptionActive).
		OrderBy("createdAt", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Internal("Failed to query subscription", err)
	}

	var sub entity.Subscription
	if err := doc.DataTo(&sub); err != nil {
		return nil, errors.Internal("Failed to parse subscription data", err)
	}
	sub.ID = doc.Ref.ID
	return &sub, nil
}

func (r *firestoreSubscriptionRepository) ListAll(ctx context.Context) ([]*entity.Subscription, error) {
	iter := r.client.Collection("subscriptions").Documents(ctx)
	defer iter.Stop()

	var subs []*entity.Subscription
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list subscriptions", err)
		}

		var sub entity.Subscription
		if err := doc.DataTo(&sub); err != nil {
			return nil, errors.Internal("Failed to parse subscription data", err)
		}
		sub.ID = doc.Ref.ID
		subs = append(subs, &sub)
	}

	return subs, nil
}

func (r *firestoreSubscriptionRepository) DeleteByUser(ctx context.Context, userID string) error {
	iter := r.client.Collection("subscriptions").Where("userId", "==", userID).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to query subscriptions", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return errors.Internal("Failed to delete subscription", err)
		}
	}
	return nil
}

func (r *firestoreSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Subscription, error) {
	iter := r.client.Collection("subscriptions").
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var subs []*entity.Subscription
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list subscriptions", err)
		}

		var sub entity.Subscription
		if err := doc.DataTo(&sub); err != nil {
			return nil, errors.Internal("Failed to parse subscription data", err)
		}
		sub.ID = doc.Ref.ID
		subs = append(subs, &sub)
	}

	return subs, nil
}
