package repository

import (
	"context"
	"time"

	"roadmech/internal/domain/entity"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id string) (*entity.Booking, error)
	Update(ctx context.Context, booking *entity.Booking) error

	ListByCustomer(ctx context.Context, customerID string) ([]*entity.Booking, error)
	ListByMechanic(ctx context.Context, mechanicID string) ([]*entity.Booking, error)
	ListPending(ctx context.Context) ([]*entity.Booking, error)

	// CountActiveByCustomer counts non-cancelled bookings; the free tier
	// limit is enforced against this, not the cached counter.
	CountActiveByCustomer(ctx context.Context, customerID string) (int, error)

	// CountFreeTowingSince counts towing bookings that consumed the free
	// allowance, created at or after the subscription start.
	CountFreeTowingSince(ctx context.Context, customerID string, since time.Time) (int, error)

	// UpdateStatus performs a conditional transition in one transaction:
	// the write happens only if the booking is still in from. Returns a
	// STATE_CONFLICT error otherwise.
	UpdateStatus(ctx context.Context, id, from, to string) (*entity.Booking, error)

	// Complete conditionally finishes an in-progress booking, recording the
	// service amount into the payment sub-record. The payment itself stays
	// pending until the customer pays. STATE_CONFLICT otherwise.
	Complete(ctx context.Context, id string, amount int64) (*entity.Booking, error)

	// AssignMechanic atomically accepts a pending booking for mechanicID.
	// Fails with STATE_CONFLICT when the booking is no longer pending, so
	// only one mechanic ever wins an accept race.
	AssignMechanic(ctx context.Context, id, mechanicID string) (*entity.Booking, error)

	// DeleteByCustomer removes every booking the customer owns and returns
	// the deleted booking IDs so dependent records can be cleaned up.
	DeleteByCustomer(ctx context.Context, customerID string) ([]string, error)
}
