package entity

import (
	"time"

	"roadmech/pkg/geo"
)

const (
	RoleCustomer = "user"
	RoleMechanic = "mechanic"
	RoleAdmin    = "admin"
)

// Location embeds the validated coordinate pair plus the display address.
type Location struct {
	Point   geo.Point `json:"point" firestore:"point"`
	Address string    `json:"address" firestore:"address"`
}

// PremiumFeatures is the cached entitlement snapshot kept on the user
// document. It is always written through the same pure derivation as the
// subscription feature bundle; see PlanFeatures.
type PremiumFeatures struct {
	PriorityService     bool `json:"priority_service" firestore:"priorityService"`
	Tracking            bool `json:"tracking" firestore:"tracking"`
	Discounts           int  `json:"discounts" firestore:"discounts"`
	EmergencyAssistance bool `json:"emergency_assistance" firestore:"emergencyAssistance"`
	FreeTowing          int  `json:"free_towing" firestore:"freeTowing"`
	MaintenanceChecks   bool `json:"maintenance_checks" firestore:"maintenanceChecks"`
}

type User struct {
	ID           string   `json:"id" firestore:"id"`
	Name         string   `json:"name" firestore:"name"`
	Email        string   `json:"email" firestore:"email"`
	Phone        string   `json:"phone,omitempty" firestore:"phone,omitempty"`
	Role         string   `json:"role" firestore:"role"`
	ProfileImage string   `json:"profile_image,omitempty" firestore:"profileImage,omitempty"`
	Location     Location `json:"location" firestore:"location"`

	// Mechanics only; customers and admins are always "approved".
	IsApproved bool `json:"is_approved" firestore:"isApproved"`

	IsPremium       bool            `json:"is_premium" firestore:"isPremium"`
	PremiumTier     string          `json:"premium_tier" firestore:"premiumTier"` // "none", "monthly", "yearly"
	PremiumFeatures PremiumFeatures `json:"premium_features" firestore:"premiumFeatures"`

	// Best-effort counter only; the authoritative booking limit check is a
	// live count of non-cancelled bookings.
	BasicBookingsUsed int `json:"basic_bookings_used" firestore:"basicBookingsUsed"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *User) IsMechanic() bool {
	return u.Role == RoleMechanic
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
