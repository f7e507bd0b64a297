package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"roadmech/pkg/errors"
)

func TestBookingTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{BookingPending, BookingAccepted, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingInProgress, false},
		{BookingPending, BookingCompleted, false},
		{BookingAccepted, BookingInProgress, true},
		{BookingAccepted, BookingCancelled, true},
		{BookingAccepted, BookingCompleted, false},
		{BookingInProgress, BookingCompleted, true},
		{BookingInProgress, BookingCancelled, false},
		{BookingCompleted, BookingCancelled, false},
		{BookingCancelled, BookingPending, false},
		{"bogus", BookingAccepted, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)

		err := ValidateTransition(tc.from, tc.to)
		if tc.allowed {
			assert.NoError(t, err)
		} else {
			assert.True(t, errors.Is(err, "STATE_CONFLICT"), "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, (&Booking{Status: BookingCompleted}).IsTerminal())
	assert.True(t, (&Booking{Status: BookingCancelled}).IsTerminal())
	assert.False(t, (&Booking{Status: BookingPending}).IsTerminal())
	assert.False(t, (&Booking{Status: BookingInProgress}).IsTerminal())
}

func TestCanBeRated(t *testing.T) {
	booking := &Booking{
		Status:  BookingCompleted,
		Payment: Payment{Status: PaymentCompleted},
	}
	assert.True(t, booking.CanBeRated())

	booking.Payment.Rated = true
	assert.False(t, booking.CanBeRated())

	booking.Payment.Rated = false
	booking.Payment.Status = PaymentPending
	assert.False(t, booking.CanBeRated())

	booking.Payment.Status = PaymentCompleted
	booking.Status = BookingInProgress
	assert.False(t, booking.CanBeRated())
}

func TestValidProblemType(t *testing.T) {
	assert.True(t, ValidProblemType("flat-tire"))
	assert.True(t, ValidProblemType("other"))
	assert.False(t, ValidProblemType("FLAT-TIRE"))
	assert.False(t, ValidProblemType(""))
	assert.False(t, ValidProblemType("time-travel"))
}
