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

type firestoreBookingRepository struct {
	client *firestore.Client
}

func NewFirestoreBookingRepository(client *firestore.Client) repository.BookingRepository {
	return &firestoreBookingRepository{client: client}
}

func (r *firestoreBookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	_, err := r.client.Collection("bookings").Doc(booking.ID).Set(ctx, booking)
	if err != nil {
		return errors.Internal("Failed to create booking", err)
	}
	return nil
}

func (r *firestoreBookingRepository) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	doc, err := r.client.Collection("bookings").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Booking", err)
		}
		return nil, errors.Internal("Failed to get booking", err)
	}

	var booking entity.Booking
	if err := doc.DataTo(&booking); err != nil {
		return nil, errors.Internal("Failed to parse booking data", err)
	}
	booking.ID = doc.Ref.ID
	return &booking, nil
}

func (r *firestoreBookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	booking.UpdatedAt = time.Now()
	_, err := r.client.Collection("bookings").Doc(booking.ID).Set(ctx, booking)
	if err != nil {
		return errors.Internal("Failed to update booking", err)
	}
	return nil
}

func (r *firestoreBookingRepository) ListByCustomer(ctx context.Context, customerID string) ([]*entity.Booking, error) {
	return r.list(ctx, r.client.Collection("bookings").
		Where("customerId", "==", customerID).
		OrderBy("createdAt", firestore.Desc))
}

func (r *firestoreBookingRepository) ListByMechanic(ctx context.Context, mechanicID string) ([]*entity.Booking, error) {
	return r.list(ctx, r.client.Collection("bookings").
		Where("mechanicId", "==", mechanicID).
		OrderBy("createdAt", firestore.Desc))
}

func (r *firestoreBookingRepository) ListPending(ctx context.Context) ([]*entity.Booking, error) {
	return r.list(ctx, r.client.Collection("bookings").
		Where("status", "==", entity.BookingPending).
		OrderBy("createdAt", firestore.Desc))
}

func (r *firestoreBookingRepository) list(ctx context.Context, query firestore.Query) ([]*entity.Booking, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var bookings []*entity.Booking
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list bookings", err)
		}

		var booking entity.Booking
		if err := doc.DataTo(&booking); err != nil {
			return nil, errors.Internal("Failed to parse booking data", err)
		}
		booking.ID = doc.Ref.ID
		bookings = append(bookings, &booking)
	}

	return bookings, nil
}

func (r *firestoreBookingRepository) CountActiveByCustomer(ctx context.Context, customerID string) (int, error) {
	iter := r.client.Collection("bookings").
		Where("customerId", "==", customerID).
		Where("status", "in", []string{
			entity.BookingPending,
			entity.BookingAccepted,
			entity.BookingInProgress,
			entity.BookingCompleted,
		}).
		Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, errors.Internal("Failed to count bookings", err)
		}
		count++
	}

	return count, nil
}

func (r *firestoreBookingRepository) CountFreeTowingSince(ctx context.Context, customerID string, since time.Time) (int, error) {
	iter := r.client.Collection("bookings").
		Where("customerId", "==", customerID).
		Where("towing.required", "==", true).
		Where("payment.freeTowingUsed", "==", true).
		Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, errors.Internal("Failed to count towing bookings", err)
		}

		var booking entity.Booking
		if err := doc.DataTo(&booking); err != nil {
			continue
		}
		if !booking.CreatedAt.Before(since) {
			count++
		}
	}

	return count, nil
}

func (r *firestoreBookingRepository) UpdateStatus(ctx context.Context, id, from, to string) (*entity.Booking, error) {
	var updated entity.Booking

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := r.client.Collection("bookings").Doc(id)
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var booking entity.Booking
		if err := doc.DataTo(&booking); err != nil {
			return err
		}
		booking.ID = doc.Ref.ID

		if booking.Status != from {
			return errors.StateConflict("Booking is "+booking.Status+", expected "+from, nil)
		}

		booking.Status = to
		booking.UpdatedAt = time.Now()
		if to == entity.BookingCompleted {
			now := time.Now()
			booking.CompletedAt = &now
		}

		updated = booking
		return tx.Set(docRef, booking)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Booking", err)
		}
		if errors.Is(err, "STATE_CONFLICT") {
			return nil, err
		}
		return nil, errors.Internal("Failed to update booking status", err)
	}

	return &updated, nil
}

func (r *firestoreBookingRepository) Complete(ctx context.Context, id string, amount int64) (*entity.Booking, error) {
	var updated entity.Booking

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := r.client.Collection("bookings").Doc(id)
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var booking entity.Booking
		if err := doc.DataTo(&booking); err != nil {
			return err
		}
		booking.ID = doc.Ref.ID

		if booking.Status != entity.BookingInProgress {
			return errors.StateConflict("Booking is "+booking.Status+", expected "+entity.BookingInProgress, nil)
		}

		now := time.Now()
		booking.Status = entity.BookingCompleted
		booking.CompletedAt = &now
		booking.UpdatedAt = now
		booking.Payment.Amount = amount

		updated = booking
		return tx.Set(docRef, booking)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Booking", err)
		}
		if errors.Is(err, "STATE_CONFLICT") {
			return nil, err
		}
		return nil, errors.Internal("Failed to complete booking", err)
	}

	return &updated, nil
}

func (r *firestoreBookingRepository) AssignMechanic(ctx context.Context, id, mechanicID string) (*entity.Booking, error) {
	var updated entity.Booking

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := r.client.Collection("bookings").Doc(id)
		doc, err := tx.Get(docRef)
		if err != nil {
			return err
		}

		var booking entity.Booking
		if err := doc.DataTo(&booking); err != nil {
			return err
		}
		booking.ID = doc.Ref.ID

		if booking.Status != entity.BookingPending {
			return errors.StateConflict("Booking already "+booking.Status, nil)
		}

		booking.Status = entity.BookingAccepted
		booking.MechanicID = mechanicID
		booking.UpdatedAt = time.Now()

		updated = booking
		return tx.Set(docRef, booking)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Booking", err)
		}
		if errors.Is(err, "STATE_CONFLICT") {
			return nil, err
		}
		return nil, errors.Internal("Failed to accept booking", err)
	}

	return &updated, nil
}

func (r *firestoreBookingRepository) DeleteByCustomer(ctx context.Context, customerID string) ([]string, error) {
	iter := r.client.Collection("bookings").Where("customerId", "==", customerID).Documents(ctx)
	defer iter.Stop()

	var deleted []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to query bookings", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return nil, errors.Internal("Failed to delete booking", err)
		}
		deleted = append(deleted, doc.Ref.ID)
	}

	return deleted, nil
}
