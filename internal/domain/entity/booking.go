package entity

import (
	"time"

	"roadmech/pkg/errors"
)

const (
	BookingPending    = "pending"
	BookingAccepted   = "accepted"
	BookingInProgress = "in-progress"
	BookingCompleted  = "completed"
	BookingCancelled  = "cancelled"
)

const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentRefunded  = "refunded"
)

// ProblemCategories are the accepted values for Booking.ProblemType and
// mechanic specializations.
var ProblemCategories = []string{
	"flat-tire",
	"brake-failure",
	"chain-issue",
	"gear-shifting",
	"electrical",
	"general-maintenance",
	"other",
}

type Payment struct {
	Status          string  `json:"status" firestore:"status"`
	Amount          int64   `json:"amount" firestore:"amount"` // cents
	DiscountApplied bool    `json:"discount_applied" firestore:"discountApplied"`
	DiscountPercent int     `json:"discount_percent" firestore:"discountPercent"`
	TransactionID   string  `json:"transaction_id,omitempty" firestore:"transactionId,omitempty"`
	FreeTowingUsed  bool    `json:"free_towing_used" firestore:"freeTowingUsed"`
	Rating          float64 `json:"rating,omitempty" firestore:"rating,omitempty"`
	Rated           bool    `json:"rated" firestore:"rated"`
}

type Towing struct {
	Required       bool     `json:"required" firestore:"required"`
	PickupLocation Location `json:"pickup_location" firestore:"pickupLocation"`
	DropLocation   Location `json:"drop_location" firestore:"dropLocation"`
	Status         string   `json:"status,omitempty" firestore:"status,omitempty"`
}

type Booking struct {
	ID          string   `json:"id" firestore:"id"`
	CustomerID  string   `json:"customer_id" firestore:"customerId"`
	MechanicID  string   `json:"mechanic_id,omitempty" firestore:"mechanicId,omitempty"`
	ProblemType string   `json:"problem_type" firestore:"problemType"`
	Description string   `json:"description,omitempty" firestore:"description,omitempty"`
	Images      []string `json:"images,omitempty" firestore:"images,omitempty"`

	Location Location `json:"location" firestore:"location"`
	Towing   Towing   `json:"towing" firestore:"towing"`

	Status  string  `json:"status" firestore:"status"`
	Payment Payment `json:"payment" firestore:"payment"`

	// Priority is a display/sort hint, not a scheduling guarantee.
	Priority  int  `json:"priority" firestore:"priority"`
	Emergency bool `json:"emergency" firestore:"emergency"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty" firestore:"scheduledAt,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time  `json:"updated_at" firestore:"updatedAt"`
}

// bookingTransitions is the full service state machine. Cancellation is
// only allowed before work starts.
var bookingTransitions = map[string][]string{
	BookingPending:    {BookingAccepted, BookingCancelled},
	BookingAccepted:   {BookingInProgress, BookingCancelled},
	BookingInProgress: {BookingCompleted},
	BookingCompleted:  {},
	BookingCancelled:  {},
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a STATE_CONFLICT error for illegal changes so
// callers can surface the current state to the client.
func ValidateTransition(from, to string) error {
	if !CanTransition(from, to) {
		return errors.StateConflict("Cannot change booking from "+from+" to "+to, nil)
	}
	return nil
}

// PriorityTier ranks a booking for listing: 0 basic, 1 premium (or
// maintenance plan), 2 premium emergency callout.
func PriorityTier(features Features, emergency bool) int {
	switch {
	case emergency && features.EmergencyAssistance:
		return 2
	case features.PriorityService || features.MaintenanceChecks:
		return 1
	default:
		return 0
	}
}

func ValidProblemType(t string) bool {
	for _, c := range ProblemCategories {
		if c == t {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the booking can no longer change status.
func (b *Booking) IsTerminal() bool {
	return b.Status == BookingCompleted || b.Status == BookingCancelled
}

// CanBeRated requires a finished, paid booking that has not been rated yet.
func (b *Booking) CanBeRated() bool {
	return b.Status == BookingCompleted &&
		b.Payment.Status == PaymentCompleted &&
		!b.Payment.Rated
}
