package entity

import "time"

// Chat is the conversation attached to a booking. One chat per booking,
// created lazily on first open.
type Chat struct {
	ID            string    `json:"id" firestore:"id"`
	BookingID     string    `json:"booking_id" firestore:"bookingId"`
	CustomerID    string    `json:"customer_id" firestore:"customerId"`
	MechanicID    string    `json:"mechanic_id" firestore:"mechanicId"`
	LastMessage   string    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"last_message_at,omitempty" firestore:"lastMessageAt,omitempty"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt"`
}

// HasParticipant is the membership check shared by HTTP and socket access.
func (c *Chat) HasParticipant(userID string) bool {
	return c.CustomerID == userID || c.MechanicID == userID
}

// OtherParticipant returns the counterpart of userID in the chat, or ""
// when userID is not a member.
func (c *Chat) OtherParticipant(userID string) string {
	switch userID {
	case c.CustomerID:
		return c.MechanicID
	case c.MechanicID:
		return c.CustomerID
	}
	return ""
}
