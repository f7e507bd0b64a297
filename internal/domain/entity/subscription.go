package entity

import "time"

const (
	PlanNone    = "none"
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Plan prices in cents.
const (
	MonthlyPriceCents int64 = 999
	YearlyPriceCents  int64 = 9999
)

// Features is the entitlement bundle a plan grants. BookingLimit of -1
// means unlimited.
type Features struct {
	BookingLimit        int  `json:"booking_limit" firestore:"bookingLimit"`
	PriorityService     bool `json:"priority_service" firestore:"priorityService"`
	Tracking            bool `json:"tracking" firestore:"tracking"`
	Discounts           int  `json:"discounts" firestore:"discounts"` // percent
	EmergencyAssistance bool `json:"emergency_assistance" firestore:"emergencyAssistance"`
	FreeTowing          int  `json:"free_towing" firestore:"freeTowing"`
	MaintenanceChecks   bool `json:"maintenance_checks" firestore:"maintenanceChecks"`
}

type Subscription struct {
	ID            string    `json:"id" firestore:"id"`
	UserID        string    `json:"user_id" firestore:"userId"`
	Plan          string    `json:"plan" firestore:"plan"`
	Status        string    `json:"status" firestore:"status"`
	Features      Features  `json:"features" firestore:"features"`
	AmountPaid    int64     `json:"amount_paid" firestore:"amountPaid"`
	TransactionID string    `json:"transaction_id,omitempty" firestore:"transactionId,omitempty"`
	StartDate     time.Time `json:"start_date" firestore:"startDate"`
	ExpiresAt     time.Time `json:"expires_at" firestore:"expiresAt"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt"`
}

// IsCurrent is the single liveness predicate for a subscription. Expiry is
// lazy: nothing flips stored status at the boundary, readers apply this.
func (s *Subscription) IsCurrent(now time.Time) bool {
	return s.Status == SubscriptionActive && s.ExpiresAt.After(now)
}

// PlanFeatures is the one pure derivation from plan to entitlements.
// Every cached copy (user.premiumFeatures, subscription.features) is
// written from this.
func PlanFeatures(plan string) Features {
	switch plan {
	case PlanMonthly:
		return Features{
			BookingLimit:    -1,
			PriorityService: true,
			Tracking:        true,
			Discounts:       10,
		}
	case PlanYearly:
		return Features{
			BookingLimit:        -1,
			PriorityService:     true,
			Tracking:            true,
			Discounts:           15,
			EmergencyAssistance: true,
			FreeTowing:          2,
			MaintenanceChecks:   true,
		}
	default:
		return BasicFeatures()
	}
}

// BasicFeatures is the free tier: at most 2 live bookings, no perks.
func BasicFeatures() Features {
	return Features{BookingLimit: 2}
}

// PlanPrice returns the charge amount in cents, or 0 for unknown plans.
func PlanPrice(plan string) int64 {
	switch plan {
	case PlanMonthly:
		return MonthlyPriceCents
	case PlanYearly:
		return YearlyPriceCents
	default:
		return 0
	}
}

// PlanDuration returns how long a paid period lasts.
func PlanDuration(plan string) time.Duration {
	if plan == PlanYearly {
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// Entitlement is the resolved view handed to booking and payment flows:
// the effective feature set plus how much free towing is left in the
// current period.
type Entitlement struct {
	Plan              string     `json:"plan"`
	Features          Features   `json:"features"`
	FreeTowingLeft    int        `json:"free_towing_left"`
	ActiveSince       *time.Time `json:"active_since,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	BookingsRemaining int        `json:"bookings_remaining"` // -1 = unlimited
}
