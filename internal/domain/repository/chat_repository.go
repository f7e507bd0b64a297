package repository

import (
	"context"

	"roadmech/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	GetByBookingID(ctx context.Context, bookingID string) (*entity.Chat, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Chat, error)

	AddMessage(ctx context.Context, chatID string, message *entity.Message) error
	ListMessages(ctx context.Context, chatID string, limit int) ([]*entity.Message, error)

	// MarkRead flags every unread message in the chat NOT sent by readerID.
	// Idempotent; returns the IDs it flipped.
	MarkRead(ctx context.Context, chatID, readerID string) ([]string, error)

	CountUnread(ctx context.Context, chatID, readerID string) (int, error)

	DeleteByBooking(ctx context.Context, bookingID string) error
}
