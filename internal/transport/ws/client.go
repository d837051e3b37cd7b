package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mafia/internal/app"
	"mafia/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Size of the send channel buffer
	sendBufferSize = 256
)

// Client represents a WebSocket client connection. It starts anonymous and
// gains an identity on the first user_connected message; every other message
// type requires one.
type Client struct {
	conn     *websocket.Conn
	registry *app.Registry
	logger   *slog.Logger
	send     chan []byte
	done     chan struct{}
	mu       sync.Mutex
	closed   bool
	nickname string
	avatar   string
}

// NewClient creates a new WebSocket client
func NewClient(conn *websocket.Conn, registry *app.Registry, logger *slog.Logger) *Client {
	return &Client{
		conn:     conn,
		registry: registry,
		logger:   logger,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
	}
}

// Send implements app.ClientConnection. Serialization happens synchronously in
// the caller's goroutine; only the queue and the socket write are deferred.
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "nickname", c.nickname)
		return nil
	}
}

// Close implements app.ClientConnection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// identity returns the nickname bound to this connection, if any
func (c *Client) identity() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nickname, c.nickname != ""
}

func (c *Client) setIdentity(nickname, avatar string) {
	c.mu.Lock()
	c.nickname = nickname
	c.avatar = avatar
	c.mu.Unlock()
}

// readPump pumps messages from the WebSocket connection. A read failure is an
// implicit leave: the identity is unbound and every room membership torn down.
func (c *Client) readPump() {
	defer func() {
		if nickname, ok := c.identity(); ok {
			c.registry.Disconnect(nickname, c)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.sendError("Invalid message format")
		return
	}

	if env.Type == MsgUserConnected {
		c.handleUserConnected(data)
		return
	}

	nickname, ok := c.identity()
	if !ok {
		c.sendError("Connect with user_connected first")
		return
	}

	switch env.Type {
	case MsgCreateRoom:
		c.handleCreateRoom(data, nickname)
	case MsgJoinRoom:
		c.handleJoinRoom(data, nickname)
	case MsgLeaveRoom:
		c.handleLeaveRoom(data, nickname)
	case MsgChatMessage:
		c.handleChat(data, nickname)
	case MsgGetRooms:
		c.registry.SendRoomsList(nickname)
	case MsgNightAction:
		c.handleNightAction(data, nickname)
	case MsgCastVote:
		c.handleCastVote(data, nickname)
	default:
		c.sendError("Unknown message type")
	}
}

// handleUserConnected binds this connection to a player identity
func (c *Client) handleUserConnected(data []byte) {
	var msg UserConnectedMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.User.Nickname == "" {
		c.sendError("Nickname is required")
		return
	}

	c.setIdentity(msg.User.Nickname, msg.User.Avatar)
	if err := c.registry.Connect(msg.User.Nickname, c); err != nil {
		c.sendError(err.Error())
	}
}

// handleCreateRoom handles a create_room message
func (c *Client) handleCreateRoom(data []byte, nickname string) {
	var msg CreateRoomMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("Invalid payload")
		return
	}

	c.mu.Lock()
	avatar := c.avatar
	c.mu.Unlock()

	creator := domain.NewPlayer(nickname, avatar)
	if _, err := c.registry.CreateRoom(msg.Name, creator, msg.MinPlayers, msg.MaxPlayers, msg.Roles); err != nil {
		c.sendDomainError(err)
	}
}

// handleJoinRoom handles a join_room message
func (c *Client) handleJoinRoom(data []byte, nickname string) {
	var msg JoinRoomMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" {
		c.sendError("Room ID is required")
		return
	}

	c.mu.Lock()
	avatar := c.avatar
	c.mu.Unlock()

	player := domain.NewPlayer(nickname, avatar)
	if err := c.registry.JoinRoom(msg.RoomID, player); err != nil {
		c.sendDomainError(err)
	}
}

// handleLeaveRoom handles a leave_room message
func (c *Client) handleLeaveRoom(data []byte, nickname string) {
	var msg LeaveRoomMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" {
		c.sendError("Room ID is required")
		return
	}

	if err := c.registry.LeaveRoom(msg.RoomID, nickname); err != nil {
		c.sendDomainError(err)
	}
}

// handleChat handles a chat_message message
func (c *Client) handleChat(data []byte, nickname string) {
	var msg ChatInMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" || msg.Message == "" {
		c.sendError("Room ID and message are required")
		return
	}

	if err := c.registry.Chat(msg.RoomID, nickname, msg.Message); err != nil {
		c.sendDomainError(err)
	}
}

// handleNightAction handles a night_action message
func (c *Client) handleNightAction(data []byte, nickname string) {
	var msg NightActionMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" || msg.Action.Target == "" {
		c.sendError("Room ID and action target are required")
		return
	}

	if err := c.registry.NightAction(msg.RoomID, nickname, msg.Action); err != nil {
		c.sendDomainError(err)
	}
}

// handleCastVote handles a cast_vote message
func (c *Client) handleCastVote(data []byte, nickname string) {
	var msg CastVoteMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" || msg.Target == "" {
		c.sendError("Room ID and target are required")
		return
	}

	if err := c.registry.CastVote(msg.RoomID, nickname, msg.Target); err != nil {
		c.sendDomainError(err)
	}
}

// sendDomainError maps a domain error to a targeted error reply
func (c *Client) sendDomainError(err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrRoomFull),
		errors.Is(err, domain.ErrGameAlreadyStarted),
		errors.Is(err, domain.ErrAlreadyInRoom),
		errors.Is(err, domain.ErrNotInRoom),
		errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrPlayerDead),
		errors.Is(err, domain.ErrInvalidPhase),
		errors.Is(err, domain.ErrNotActiveRole),
		errors.Is(err, domain.ErrInvalidRoomConfig):
		c.sendError(err.Error())
	default:
		c.logger.Error("message handling failed", "nickname", c.nickname, "error", err)
		c.sendError("Internal error")
	}
}

// sendError sends a targeted error message to this connection only
func (c *Client) sendError(message string) {
	c.Send(domain.NewErrorMessage(message))
}
