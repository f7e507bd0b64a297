package usecase

import (
	"context"

	"roadmech/internal/domain/entity"
)

type FirebaseAuthClient interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	DeleteUser(ctx context.Context, uid string) error
	VerifyToken(ctx context.Context, token string) (string, error)
	SignInWithEmailPassword(email, password string) (string, error)
	SignInWithEmailPasswordWithRefresh(email, password string) (string, string, error)
	RefreshIdToken(refreshToken string) (string, string, error)
	UpdateUserPassword(ctx context.Context, uid, newPassword string) error
}

// Notifier pushes realtime events out; implemented by the socket gateway.
// A nil-safe no-op implementation backs tests.
type Notifier interface {
	NotifyNewMessage(chat *entity.Chat, msg *entity.Message)
	NotifyMessagesRead(chat *entity.Chat, readerID string, messageIDs []string)
	NotifyBookingStatus(booking *entity.Booking)
	NotifyTowingStatus(booking *entity.Booking)
}

// NoopNotifier satisfies Notifier without a connected gateway.
type NoopNotifier struct{}

func (NoopNotifier) NotifyNewMessage(*entity.Chat, *entity.Message)    {}
func (NoopNotifier) NotifyMessagesRead(*entity.Chat, string, []string) {}
func (NoopNotifier) NotifyBookingStatus(*entity.Booking)               {}
func (NoopNotifier) NotifyTowingStatus(*entity.Booking)                {}
