package entity

import "time"

// PendingRegistration holds a mechanic signup between OTP issue and OTP
// verification. No user or auth record exists until the code checks out.
type PendingRegistration struct {
	ID             string    `json:"id" firestore:"id"`
	Name           string    `json:"name" firestore:"name"`
	Email          string    `json:"email" firestore:"email"`
	Phone          string    `json:"phone" firestore:"phone"`
	Password       string    `json:"-" firestore:"password"`
	Specialization []string  `json:"specialization" firestore:"specialization"`
	Experience     int       `json:"experience" firestore:"experience"`
	HourlyRate     float64   `json:"hourly_rate" firestore:"hourlyRate"`
	Location       Location  `json:"location" firestore:"location"`
	OTP            string    `json:"-" firestore:"otp"`
	ExpiresAt      time.Time `json:"expires_at" firestore:"expiresAt"`
	CreatedAt      time.Time `json:"created_at" firestore:"createdAt"`
}

func (p *PendingRegistration) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
