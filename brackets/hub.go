package brackets

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Типы сообщений, которые сервер рассылает подписчикам турнира.
const (
	MessageBoardResult         = "BOARD_RESULT"
	MessageBoardReset          = "BOARD_RESET"
	MessageStandingsUpdated    = "STANDINGS_UPDATED"
	MessageTournamentCompleted = "TOURNAMENT_COMPLETED"
)

type WebSocketMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// TournamentRoom returns the room name live updates for a tournament go to.
func TournamentRoom(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}

type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
	Room string
}

type roomMessage struct {
	room string
	data []byte
}

// Hub fans messages out to the clients of a room. All room bookkeeping
// happens on the Run goroutine.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	broadcast  chan roomMessage
	sizeReq    chan sizeRequest
	rooms      map[string]map[*Client]bool
	done       chan struct{}
	logger     *slog.Logger
}

type sizeRequest struct {
	room  string
	reply chan int
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 64),
		sizeReq:    make(chan sizeRequest),
		rooms:      make(map[string]map[*Client]bool),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for room, clients := range h.rooms {
				for client := range clients {
					close(client.Send)
				}
				delete(h.rooms, room)
			}
			return

		case client := <-h.Register:
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.logger.Debug("client registered", slog.String("room", client.Room), slog.Int("clients", len(h.rooms[client.Room])))

		case client := <-h.Unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			for client := range h.rooms[msg.room] {
				select {
				case client.Send <- msg.data:
				default:
					h.logger.Warn("client send buffer full, dropping client", slog.String("room", msg.room))
					h.remove(client)
				}
			}

		case req := <-h.sizeReq:
			req.reply <- len(h.rooms[req.room])
		}
	}
}

func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.Room]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.rooms, client.Room)
		h.logger.Debug("room closed", slog.String("room", client.Room))
	}
}

// BroadcastToRoom отправляет сообщение всем клиентам в указанной комнате.
func (h *Hub) BroadcastToRoom(roomID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", slog.String("room", roomID), slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- roomMessage{room: roomID, data: data}:
	case <-h.done:
	}
}

// RoomSize returns the number of clients currently in room.
func (h *Hub) RoomSize(room string) int {
	reply := make(chan int, 1)
	select {
	case h.sizeReq <- sizeRequest{room: room, reply: reply}:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Join registers client with the hub. It returns false once the hub has
// stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (c *Client) unregister() {
	select {
	case c.Hub.Unregister <- c:
	case <-c.Hub.done:
	}
}

// ReadPump drains incoming frames so pongs are processed. Client messages
// are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.unregister()
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("websocket closed unexpectedly", slog.String("room", c.Room), slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Каждое событие отдельным кадром, иначе клиент получит склеенный JSON.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Debug("websocket write failed", slog.String("room", c.Room), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
