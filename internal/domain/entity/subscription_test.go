package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsCurrent(t *testing.T) {
	now := time.Now()

	active := &Subscription{Status: SubscriptionActive, ExpiresAt: now.Add(time.Hour)}
	assert.True(t, active.IsCurrent(now))

	// Expiry is lazy: status may still say active past the boundary.
	lapsed := &Subscription{Status: SubscriptionActive, ExpiresAt: now.Add(-time.Second)}
	assert.False(t, lapsed.IsCurrent(now))

	cancelled := &Subscription{Status: SubscriptionCancelled, ExpiresAt: now.Add(time.Hour)}
	assert.False(t, cancelled.IsCurrent(now))
}

func TestPlanFeatures(t *testing.T) {
	monthly := PlanFeatures(PlanMonthly)
	assert.Equal(t, -1, monthly.BookingLimit)
	assert.True(t, monthly.PriorityService)
	assert.True(t, monthly.Tracking)
	assert.Equal(t, 10, monthly.Discounts)
	assert.False(t, monthly.EmergencyAssistance)
	assert.Equal(t, 0, monthly.FreeTowing)

	yearly := PlanFeatures(PlanYearly)
	assert.Equal(t, -1, yearly.BookingLimit)
	assert.Equal(t, 15, yearly.Discounts)
	assert.True(t, yearly.EmergencyAssistance)
	assert.Equal(t, 2, yearly.FreeTowing)
	assert.True(t, yearly.MaintenanceChecks)

	// Unknown plans collapse to the free tier.
	assert.Equal(t, BasicFeatures(), PlanFeatures("lifetime"))
	assert.Equal(t, 2, BasicFeatures().BookingLimit)
}

func TestPlanPriceAndDuration(t *testing.T) {
	assert.Equal(t, MonthlyPriceCents, PlanPrice(PlanMonthly))
	assert.Equal(t, YearlyPriceCents, PlanPrice(PlanYearly))
	assert.Equal(t, int64(0), PlanPrice("lifetime"))

	assert.Equal(t, 365*24*time.Hour, PlanDuration(PlanYearly))
	assert.Equal(t, 30*24*time.Hour, PlanDuration(PlanMonthly))
}
