package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/repository"
	"roadmech/pkg/errors"
)

const maxMessageLength = 2000

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	bookingRepo repository.BookingRepository
	notifier    Notifier
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	bookingRepo repository.BookingRepository,
	notifier Notifier,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		bookingRepo: bookingRepo,
		notifier:    notifier,
	}
}

// OpenForBooking returns the booking's chat, creating it on first open.
// A chat needs both sides, so the booking must have a mechanic assigned.
func (uc *ChatUseCase) OpenForBooking(ctx context.Context, bookingID, userID string) (*entity.Chat, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != userID && booking.MechanicID != userID {
		return nil, errors.Forbidden("Not a participant of this booking", nil)
	}
	if booking.MechanicID == "" {
		return nil, errors.StateConflict("Chat opens once a mechanic accepts the booking", nil)
	}

	chat, err := uc.chatRepo.GetByBookingID(ctx, bookingID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	now := time.Now()
	chat = &entity.Chat{
		ID:         uuid.New().String(),
		BookingID:  bookingID,
		CustomerID: booking.CustomerID,
		MechanicID: booking.MechanicID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}

	return chat, nil
}

// Authorize is the single membership check shared by HTTP handlers and the
// socket gateway.
func (uc *ChatUseCase) Authorize(ctx context.Context, chatID, userID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, errors.Forbidden("Not a participant of this chat", nil)
	}
	return chat, nil
}

func (uc *ChatUseCase) ListMine(ctx context.Context, userID string) ([]*entity.Chat, error) {
	return uc.chatRepo.ListByUser(ctx, userID)
}

func (uc *ChatUseCase) Messages(ctx context.Context, chatID, userID string, limit int) ([]*entity.Message, error) {
	if _, err := uc.Authorize(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return uc.chatRepo.ListMessages(ctx, chatID, limit)
}

// SendMessage appends a message. Attachments are public URLs handed back
// by the upload endpoint; a message may be attachments-only.
func (uc *ChatUseCase) SendMessage(ctx context.Context, chatID, senderID, content string, attachments []string) (*entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return nil, errors.BadRequest("Message content or an attachment is required", nil)
	}
	if len(content) > maxMessageLength {
		return nil, errors.BadRequest("Message is too long", nil)
	}

	chat, err := uc.Authorize(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}

	msg := &entity.Message{
		ID:          uuid.New().String(),
		ChatID:      chatID,
		SenderID:    senderID,
		Content:     content,
		Attachments: attachments,
		CreatedAt:   time.Now(),
	}
	if err := uc.chatRepo.AddMessage(ctx, chatID, msg); err != nil {
		return nil, err
	}

	uc.notifier.NotifyNewMessage(chat, msg)
	return msg, nil
}

// MarkRead flips every unread message from the counterpart. Safe to call
// repeatedly; a second call flips nothing and notifies nobody.
func (uc *ChatUseCase) MarkRead(ctx context.Context, chatID, readerID string) ([]string, error) {
	chat, err := uc.Authorize(ctx, chatID, readerID)
	if err != nil {
		return nil, err
	}

	flipped, err := uc.chatRepo.MarkRead(ctx, chatID, readerID)
	if err != nil {
		return nil, err
	}

	uc.notifier.NotifyMessagesRead(chat, readerID, flipped)
	return flipped, nil
}

func (uc *ChatUseCase) UnreadCount(ctx context.Context, chatID, userID string) (int, error) {
	if _, err := uc.Authorize(ctx, chatID, userID); err != nil {
		return 0, err
	}
	return uc.chatRepo.CountUnread(ctx, chatID, userID)
}

// TotalUnread sums unread messages across every chat the user participates
// in, for the badge on the chat list.
func (uc *ChatUseCase) TotalUnread(ctx context.Context, userID string) (int, error) {
	chats, err := uc.chatRepo.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, chat := range chats {
		count, err := uc.chatRepo.CountUnread(ctx, chat.ID, userID)
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}
