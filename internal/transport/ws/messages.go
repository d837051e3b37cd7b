package ws

import "mafia/internal/domain"

// MessageType represents the type of an inbound WebSocket message
type MessageType string

// Client → Server message types. Outbound types live in the domain package
// next to the payloads they carry.
const (
	MsgUserConnected MessageType = "user_connected"
	MsgCreateRoom    MessageType = "create_room"
	MsgJoinRoom      MessageType = "join_room"
	MsgLeaveRoom     MessageType = "leave_room"
	MsgChatMessage   MessageType = "chat_message"
	MsgGetRooms      MessageType = "get_rooms"
	MsgNightAction   MessageType = "night_action"
	MsgCastVote      MessageType = "cast_vote"
)

// Inbound messages use a flat envelope: the type tag sits beside the payload
// fields. Decoding is two-pass, a type probe followed by the typed struct.

// envelope is the first-pass probe for the message type
type envelope struct {
	Type MessageType `json:"type"`
}

// UserRef identifies a player inside an inbound message
type UserRef struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
}

// UserConnectedMessage binds the connection to a player identity
type UserConnectedMessage struct {
	User UserRef `json:"user"`
}

// CreateRoomMessage asks for a new room
type CreateRoomMessage struct {
	Name       string        `json:"name"`
	Creator    UserRef       `json:"creator"`
	MinPlayers int           `json:"minPlayers"`
	MaxPlayers int           `json:"maxPlayers"`
	Roles      []domain.Role `json:"roles"`
}

// JoinRoomMessage asks to join an existing room
type JoinRoomMessage struct {
	RoomID string  `json:"roomId"`
	User   UserRef `json:"user"`
}

// LeaveRoomMessage asks to leave a room
type LeaveRoomMessage struct {
	RoomID string `json:"roomId"`
}

// ChatInMessage relays a chat line into a room
type ChatInMessage struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// NightActionMessage submits a night action into a running game
type NightActionMessage struct {
	RoomID string             `json:"roomId"`
	Action domain.NightAction `json:"action"`
}

// CastVoteMessage submits a daytime vote into a running game
type CastVoteMessage struct {
	RoomID string `json:"roomId"`
	Target string `json:"target"`
}
