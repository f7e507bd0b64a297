package entity

import "time"

type Review struct {
	ReviewerID string    `json:"reviewer_id" firestore:"reviewerId"`
	Rating     int       `json:"rating" firestore:"rating"` // 1-5
	Comment    string    `json:"comment,omitempty" firestore:"comment,omitempty"`
	Date       time.Time `json:"date" firestore:"date"`
}

type Certification struct {
	Name   string `json:"name" firestore:"name"`
	Issuer string `json:"issuer,omitempty" firestore:"issuer,omitempty"`
	Year   int    `json:"year,omitempty" firestore:"year,omitempty"`
}

// MechanicProfile is 1:1 with a mechanic user. Rating is the running
// arithmetic mean over Reviews, recomputed on every append.
type MechanicProfile struct {
	ID             string          `json:"id" firestore:"id"`
	UserID         string          `json:"user_id" firestore:"userId"`
	Specialization []string        `json:"specialization" firestore:"specialization"`
	Experience     int             `json:"experience" firestore:"experience"`
	HourlyRate     float64         `json:"hourly_rate" firestore:"hourlyRate"`
	Rating         float64         `json:"rating" firestore:"rating"`
	Reviews        []Review        `json:"reviews" firestore:"reviews"`
	Availability   bool            `json:"availability" firestore:"availability"`
	Certifications []Certification `json:"certifications,omitempty" firestore:"certifications,omitempty"`
	Documents      []string        `json:"documents,omitempty" firestore:"documents,omitempty"`
	CreatedAt      time.Time       `json:"created_at" firestore:"createdAt"`
	UpdatedAt      time.Time       `json:"updated_at" firestore:"updatedAt"`
}

// HasSpecialization reports whether the profile covers the given problem
// category. An empty category matches everything.
func (p *MechanicProfile) HasSpecialization(category string) bool {
	if category == "" {
		return true
	}
	for _, s := range p.Specialization {
		if s == category {
			return true
		}
	}
	return false
}
