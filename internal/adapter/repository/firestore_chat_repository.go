package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"roadmech/internal/domain/entity"
	"roadmech/internal/domain/repository"
	"roadmech/pkg/errors"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{client: client}
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return errors.Internal("Failed to create chat", err)
	}
	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID
	return &chat, nil
}

func (r *firestoreChatRepository) GetByBookingID(ctx context.Context, bookingID string) (*entity.Chat, error) {
	iter := r.client.Collection("chats").Where("bookingId", "==", bookingID).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Chat", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to query chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID
	return &chat, nil
}

// ListByUser merges the customer-side and mechanic-side queries since
// Firestore has no OR across fields in a single equality query here.
func (r *firestoreChatRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Chat, error) {
	var chats []*entity.Chat
	seen := map[string]bool{}

	for _, field := range []string{"customerId", "mechanicId"} {
		iter := r.client.Collection("chats").Where(field, "==", userID).Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				return nil, errors.Internal("Failed to list chats", err)
			}
			if seen[doc.Ref.ID] {
				continue
			}
			seen[doc.Ref.ID] = true

			var chat entity.Chat
			if err := doc.DataTo(&chat); err != nil {
				iter.Stop()
				return nil, errors.Internal("Failed to parse chat data", err)
			}
			chat.ID = doc.Ref.ID
			chats = append(chats, &chat)
		}
		iter.Stop()
	}

	return chats, nil
}

func (r *firestoreChatRepository) AddMessage(ctx context.Context, chatID string, message *entity.Message) error {
	chatRef := r.client.Collection("chats").Doc(chatID)

	_, err := chatRef.Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to save message", err)
	}

	_, err = chatRef.Update(ctx, []firestore.Update{
		{Path: "lastMessage", Value: message.Content},
		{Path: "lastMessageAt", Value: message.CreatedAt},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return errors.Internal("Failed to update chat preview", err)
	}

	return nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string, limit int) ([]*entity.Message, error) {
	query := r.client.Collection("chats").Doc(chatID).Collection("messages").
		OrderBy("createdAt", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list messages", err)
		}

		var msg entity.Message
		if err := doc.DataTo(&msg); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		msg.ID = doc.Ref.ID
		messages = append(messages, &msg)
	}

	return messages, nil
}

func (r *firestoreChatRepository) MarkRead(ctx context.Context, chatID, readerID string) ([]string, error) {
	iter := r.client.Collection("chats").Doc(chatID).Collection("messages").
		Where("read", "==", false).
		Documents(ctx)
	defer iter.Stop()

	var flipped []string
	bulk := r.client.BulkWriter(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to query unread messages", err)
		}

		var msg entity.Message
		if err := doc.DataTo(&msg); err != nil {
			continue
		}
		if msg.SenderID == readerID {
			continue
		}

		if _, err := bulk.Update(doc.Ref, []firestore.Update{{Path: "read", Value: true}}); err != nil {
			return nil, errors.Internal("Failed to mark message read", err)
		}
		flipped = append(flipped, doc.Ref.ID)
	}
	bulk.End()

	return flipped, nil
}

func (r *firestoreChatRepository) CountUnread(ctx context.Context, chatID, readerID string) (int, error) {
	iter := r.client.Collection("chats").Doc(chatID).Collection("messages").
		Where("read", "==", false).
		Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, errors.Internal("Failed to count unread messages", err)
		}

		var msg entity.Message
		if err := doc.DataTo(&msg); err != nil {
			continue
		}
		if msg.SenderID != readerID {
			count++
		}
	}

	return count, nil
}

// DeleteByBooking removes the chat and its messages subcollection.
// Firestore does not cascade subcollection deletes, so messages go first.
func (r *firestoreChatRepository) DeleteByBooking(ctx context.Context, bookingID string) error {
	iter := r.client.Collection("chats").Where("bookingId", "==", bookingID).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to query chats", err)
		}

		msgs := doc.Ref.Collection("messages").Documents(ctx)
		for {
			msgDoc, err := msgs.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				msgs.Stop()
				return errors.Internal("Failed to query chat messages", err)
			}
			if _, err := msgDoc.Ref.Delete(ctx); err != nil {
				msgs.Stop()
				return errors.Internal("Failed to delete chat message", err)
			}
		}
		msgs.Stop()

		if _, err := doc.Ref.Delete(ctx); err != nil {
			return errors.Internal("Failed to delete chat", err)
		}
	}

	return nil
}
