package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"roadmech/internal/domain/entity"
	"roadmech/pkg/geo"
)

// Event is the wire envelope for both directions.
type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	ChatID    string          `json:"chat_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Inbound event types.
const (
	EventAuthenticate   = "authenticate"
	EventJoinChat       = "join-chat"
	EventSendMessage    = "send-message"
	EventMarkRead       = "mark-read"
	EventBookingUpdate  = "booking-update"
	EventTowingUpdate   = "towing-update"
	EventUpdateLocation = "update-location"
)

// Outbound event types.
const (
	EventMechanicOnline       = "mechanic-online"
	EventNewMessage           = "new-message"
	EventMessageRead          = "message-read"
	EventBookingStatusChanged = "booking-status-changed"
	EventTowingStatusChanged  = "towing-status-changed"
	EventMechanicLocation     = "mechanic-location"
	EventError                = "error"
)

// TokenVerifier resolves an ID token to a user ID.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// ChatService is the slice of chat behavior the gateway dispatches to.
type ChatService interface {
	Authorize(ctx context.Context, chatID, userID string) (*entity.Chat, error)
	SendMessage(ctx context.Context, chatID, senderID, content string, attachments []string) (*entity.Message, error)
	MarkRead(ctx context.Context, chatID, readerID string) ([]string, error)
}

// BookingService is the slice of booking behavior reachable over the socket.
type BookingService interface {
	ListByMechanic(ctx context.Context, mechanicID string) ([]*entity.Booking, error)
	ChangeStatus(ctx context.Context, bookingID, actorID, to string) (*entity.Booking, error)
	Complete(ctx context.Context, bookingID, actorID string, amount int64) (*entity.Booking, error)
	SelectMechanic(ctx context.Context, bookingID, actorID, mechanicID string) (*entity.Booking, error)
	UpdateTowingStatus(ctx context.Context, bookingID, actorID, status string) (*entity.Booking, error)
}

var errAuthRequired = errors.New("first event must be authenticate")

// UserService resolves roles for presence announcements and persists
// location updates streamed over the socket.
type UserService interface {
	GetUserByID(ctx context.Context, userID string) (*entity.User, error)
	UpdateLocation(ctx context.Context, userID string, point geo.Point) error
}

// Gateway turns socket events into service calls and service results into
// socket events. The Hub stays a dumb registry underneath it.
type Gateway struct {
	hub      *Hub
	verifier TokenVerifier

	chat    ChatService
	booking BookingService
	users   UserService
}

func NewGateway(hub *Hub, verifier TokenVerifier) *Gateway {
	return &Gateway{hub: hub, verifier: verifier}
}

// Bind attaches the services after construction; the services themselves
// receive the gateway as their notifier, so wiring is two-phase.
func (g *Gateway) Bind(chat ChatService, booking BookingService, users UserService) {
	g.chat = chat
	g.booking = booking
	g.users = users
}

func (g *Gateway) Hub() *Hub {
	return g.hub
}

// HandleConnection owns the socket after the HTTP upgrade. The first event
// must be authenticate; everything before that is dropped and the socket
// closed on failure.
func (g *Gateway) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	client, err := g.authenticate(ctx, conn)
	if err != nil {
		log.Printf("WebSocket auth failed: %v", err)
		conn.WriteMessage(websocket.TextMessage, marshalEvent(EventError, map[string]string{"message": "authentication failed"}, ""))
		conn.Close()
		return
	}

	g.hub.Register <- client

	if user, err := g.users.GetUserByID(ctx, client.UserID); err == nil && user.IsMechanic() {
		g.announceMechanicOnline(ctx, client.UserID)
	}

	go client.WritePump()
	g.readPump(ctx, client)
}

func (g *Gateway) authenticate(ctx context.Context, conn *websocket.Conn) (*Client, error) {
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, err
	}

	var payload struct {
		Token string `json:"token"`
	}
	if evt.Type != EventAuthenticate || json.Unmarshal(evt.Data, &payload) != nil || payload.Token == "" {
		return nil, errAuthRequired
	}

	userID, err := g.verifier.VerifyToken(ctx, payload.Token)
	if err != nil {
		return nil, err
	}

	conn.SetReadDeadline(time.Time{})
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 32),
	}, nil
}

func (g *Gateway) readPump(ctx context.Context, client *Client) {
	defer func() {
		g.hub.Unregister <- client
		client.Conn.Close()
	}()

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error for %s: %v", client.UserID, err)
			}
			return
		}

		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			g.sendError(client, "invalid message format")
			continue
		}

		g.dispatch(ctx, client, evt)
	}
}

func (g *Gateway) dispatch(ctx context.Context, client *Client, evt Event) {
	switch evt.Type {
	case EventJoinChat:
		g.handleJoinChat(ctx, client, evt)
	case EventSendMessage:
		g.handleSendMessage(ctx, client, evt)
	case EventMarkRead:
		g.handleMarkRead(ctx, client, evt)
	case EventBookingUpdate:
		g.handleBookingUpdate(ctx, client, evt)
	case EventTowingUpdate:
		g.handleTowingUpdate(ctx, client, evt)
	case EventUpdateLocation:
		g.handleUpdateLocation(ctx, client, evt)
	default:
		g.sendError(client, "unknown event type: "+evt.Type)
	}
}

func (g *Gateway) handleJoinChat(ctx context.Context, client *Client, evt Event) {
	if _, err := g.chat.Authorize(ctx, evt.ChatID, client.UserID); err != nil {
		g.sendError(client, "not a participant of this chat")
		return
	}
	g.hub.JoinChatRoom(evt.ChatID, client)
}

func (g *Gateway) handleSendMessage(ctx context.Context, client *Client, evt Event) {
	var payload struct {
		Content     string   `json:"content"`
		Attachments []string `json:"attachments"`
	}
	if err := json.Unmarshal(evt.Data, &payload); err != nil || (payload.Content == "" && len(payload.Attachments) == 0) {
		g.sendError(client, "message content or attachments are required")
		return
	}

	if _, err := g.chat.SendMessage(ctx, evt.ChatID, client.UserID, payload.Content, payload.Attachments); err != nil {
		g.sendError(client, "failed to send message")
	}
}

func (g *Gateway) handleMarkRead(ctx context.Context, client *Client, evt Event) {
	if _, err := g.chat.MarkRead(ctx, evt.ChatID, client.UserID); err != nil {
		g.sendError(client, "failed to mark messages read")
	}
}

func (g *Gateway) handleBookingUpdate(ctx context.Context, client *Client, evt Event) {
	var payload struct {
		BookingID  string `json:"booking_id"`
		Status     string `json:"status"`
		MechanicID string `json:"mechanic_id"`
		Amount     int64  `json:"amount"`
	}
	if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.BookingID == "" {
		g.sendError(client, "booking_id and status are required")
		return
	}

	// Completion carries the service amount; assignment with an explicit
	// mechanic goes through selection so admins can assign too.
	var err error
	switch {
	case payload.Status == entity.BookingCompleted:
		_, err = g.booking.Complete(ctx, payload.BookingID, client.UserID, payload.Amount)
	case payload.Status == entity.BookingAccepted && payload.MechanicID != "":
		_, err = g.booking.SelectMechanic(ctx, payload.BookingID, client.UserID, payload.MechanicID)
	default:
		_, err = g.booking.ChangeStatus(ctx, payload.BookingID, client.UserID, payload.Status)
	}
	if err != nil {
		g.sendError(client, errorMessage(err))
	}
}

func (g *Gateway) handleTowingUpdate(ctx context.Context, client *Client, evt Event) {
	var payload struct {
		BookingID string `json:"booking_id"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(evt.Data, &payload); err != nil || payload.BookingID == "" {
		g.sendError(client, "booking_id and status are required")
		return
	}

	if _, err := g.booking.UpdateTowingStatus(ctx, payload.BookingID, client.UserID, payload.Status); err != nil {
		g.sendError(client, errorMessage(err))
	}
}

// announceMechanicOnline tells each customer with a live booking against
// this mechanic that they just connected.
func (g *Gateway) announceMechanicOnline(ctx context.Context, mechanicID string) {
	bookings, err := g.booking.ListByMechanic(ctx, mechanicID)
	if err != nil {
		log.Printf("Failed to list bookings for online mechanic %s: %v", mechanicID, err)
		return
	}

	for _, booking := range bookings {
		if booking.Status != entity.BookingAccepted && booking.Status != entity.BookingInProgress {
			continue
		}
		g.hub.SendToUser(booking.CustomerID, marshalEvent(EventMechanicOnline, map[string]string{
			"mechanic_id": mechanicID,
			"booking_id":  booking.ID,
		}, ""))
	}
}

// handleUpdateLocation takes a GeoJSON-ordered [lon, lat] pair, persists it
// on the mechanic's user record, and streams it to every customer whose
// booking this mechanic is currently working.
func (g *Gateway) handleUpdateLocation(ctx context.Context, client *Client, evt Event) {
	var payload struct {
		Coordinates []float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(evt.Data, &payload); err != nil || len(payload.Coordinates) != 2 {
		g.sendError(client, "coordinates must be [lon, lat]")
		return
	}

	user, err := g.users.GetUserByID(ctx, client.UserID)
	if err != nil || !user.IsMechanic() {
		g.sendError(client, "location updates are mechanic-only")
		return
	}

	point := geo.Point{Latitude: payload.Coordinates[1], Longitude: payload.Coordinates[0]}
	if err := g.users.UpdateLocation(ctx, client.UserID, point); err != nil {
		g.sendError(client, "invalid location coordinates")
		return
	}

	g.fanOutMechanicLocation(ctx, client.UserID, payload.Coordinates)
}

// fanOutMechanicLocation reaches the customer of every in-progress booking
// assigned to the mechanic. Coordinates stay in the [lon, lat] wire order.
func (g *Gateway) fanOutMechanicLocation(ctx context.Context, mechanicID string, coordinates []float64) {
	bookings, err := g.booking.ListByMechanic(ctx, mechanicID)
	if err != nil {
		log.Printf("Failed to list bookings for mechanic %s location fan-out: %v", mechanicID, err)
		return
	}

	for _, booking := range bookings {
		if booking.Status != entity.BookingInProgress {
			continue
		}
		g.hub.SendToUser(booking.CustomerID, marshalEvent(EventMechanicLocation, map[string]interface{}{
			"booking_id":  booking.ID,
			"mechanic_id": mechanicID,
			"coordinates": coordinates,
		}, ""))
	}
}

// Outbound notifications, called by the services.

func (g *Gateway) NotifyNewMessage(chat *entity.Chat, msg *entity.Message) {
	data := marshalEvent(EventNewMessage, msg, chat.ID)
	// Room delivery covers whoever has the chat open; direct delivery
	// reaches the counterpart even when they have not joined the room.
	g.hub.BroadcastToChatRoom(chat.ID, data, nil)
	if other := chat.OtherParticipant(msg.SenderID); other != "" {
		g.hub.SendToUser(other, data)
	}
}

func (g *Gateway) NotifyMessagesRead(chat *entity.Chat, readerID string, messageIDs []string) {
	if len(messageIDs) == 0 {
		return
	}
	data := marshalEvent(EventMessageRead, map[string]interface{}{
		"reader_id":   readerID,
		"message_ids": messageIDs,
	}, chat.ID)
	if other := chat.OtherParticipant(readerID); other != "" {
		g.hub.SendToUser(other, data)
	}
}

// NotifyBookingStatus reaches both sides of the booking; pending bookings
// have no mechanic yet, so that leg is skipped.
func (g *Gateway) NotifyBookingStatus(booking *entity.Booking) {
	data := marshalEvent(EventBookingStatusChanged, map[string]string{
		"booking_id": booking.ID,
		"status":     booking.Status,
	}, "")
	g.hub.SendToUser(booking.CustomerID, data)
	if booking.MechanicID != "" {
		g.hub.SendToUser(booking.MechanicID, data)
	}
}

func (g *Gateway) NotifyTowingStatus(booking *entity.Booking) {
	data := marshalEvent(EventTowingStatusChanged, map[string]string{
		"booking_id": booking.ID,
		"status":     booking.Towing.Status,
	}, "")
	g.hub.SendToUser(booking.CustomerID, data)
	if booking.MechanicID != "" {
		g.hub.SendToUser(booking.MechanicID, data)
	}
}

func (g *Gateway) sendError(client *Client, message string) {
	select {
	case client.Send <- marshalEvent(EventError, map[string]string{"message": message}, ""):
	default:
	}
}

func marshalEvent(eventType string, data interface{}, chatID string) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("{}")
	}
	out, _ := json.Marshal(Event{
		Type:      eventType,
		Data:      raw,
		ChatID:    chatID,
		Timestamp: time.Now().UTC(),
	})
	return out
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
