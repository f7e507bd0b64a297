package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is one WebSocket connection. A user may hold several at once
// (phone plus browser), each with its own send queue.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
}

// WritePump drains the send queue onto the wire. It is the only writer on
// the connection; a closed Send channel shuts the socket down cleanly.
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		message, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error for %s: %v", c.UserID, err)
			return
		}
	}
}

// Hub is a pure connection registry: user connections plus chat room
// membership. It knows nothing about message semantics; the Gateway does.
type Hub struct {
	clients    map[string]map[*Client]bool // userID -> connections
	chatRooms  map[string]map[*Client]bool // chatID -> connections
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan []byte
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		chatRooms:  make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan []byte),
	}
}

// Start runs the hub's main loop in a goroutine.
func (h *Hub) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-h.Register:
				h.mutex.Lock()
				if h.clients[client.UserID] == nil {
					h.clients[client.UserID] = make(map[*Client]bool)
				}
				h.clients[client.UserID][client] = true
				h.mutex.Unlock()
				log.Printf("Client registered: %s", client.UserID)

			case client := <-h.Unregister:
				h.mutex.Lock()
				h.removeLocked(client)
				h.mutex.Unlock()
				log.Printf("Client unregistered: %s", client.UserID)

			case message := <-h.broadcast:
				h.mutex.RLock()
				for _, conns := range h.clients {
					for client := range conns {
						select {
						case client.Send <- message:
						default:
						}
					}
				}
				h.mutex.RUnlock()

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *Hub) removeLocked(client *Client) {
	if conns, ok := h.clients[client.UserID]; ok {
		if conns[client] {
			delete(conns, client)
			close(client.Send)
		}
		if len(conns) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	for chatID, members := range h.chatRooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.chatRooms, chatID)
		}
	}
}

// JoinChatRoom adds the connection to a chat room. Authorization happens
// before this is called.
func (h *Hub) JoinChatRoom(chatID string, client *Client) {
	h.mutex.Lock()
	if h.chatRooms[chatID] == nil {
		h.chatRooms[chatID] = make(map[*Client]bool)
	}
	h.chatRooms[chatID][client] = true
	h.mutex.Unlock()
}

func (h *Hub) LeaveChatRoom(chatID string, client *Client) {
	h.mutex.Lock()
	if members, ok := h.chatRooms[chatID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.chatRooms, chatID)
		}
	}
	h.mutex.Unlock()
}

// SendToUser delivers to every connection the user holds. Returns false
// when the user is offline.
func (h *Hub) SendToUser(userID string, message []byte) bool {
	h.mutex.RLock()
	conns := h.clients[userID]
	delivered := false
	for client := range conns {
		select {
		case client.Send <- message:
			delivered = true
		default:
		}
	}
	h.mutex.RUnlock()
	return delivered
}

// BroadcastToChatRoom delivers to every connection in the room except the
// sender's own.
func (h *Hub) BroadcastToChatRoom(chatID string, message []byte, exclude *Client) {
	h.mutex.RLock()
	for client := range h.chatRooms[chatID] {
		if client == exclude {
			continue
		}
		select {
		case client.Send <- message:
		default:
		}
	}
	h.mutex.RUnlock()
}

// Broadcast queues a message for every connected client.
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients[userID]) > 0
}
