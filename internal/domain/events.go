package domain

import "time"

// MessageType tags every outbound message envelope
type MessageType string

const (
	MsgRoomsList     MessageType = "rooms_list"
	MsgRoomCreated   MessageType = "room_created"
	MsgRoomJoined    MessageType = "room_joined"
	MsgPlayerJoined  MessageType = "player_joined"
	MsgPlayerLeft    MessageType = "player_left"
	MsgGameStarting  MessageType = "game_starting"
	MsgGameStarted   MessageType = "game_started"
	MsgChatMessage   MessageType = "chat_message"
	MsgNightResolved MessageType = "night_resolved"
	MsgVoteResolved  MessageType = "vote_resolved"
	MsgPhaseChanged  MessageType = "phase_changed"
	MsgGameEnded     MessageType = "game_ended"
	MsgError         MessageType = "error"
)

// Outbound messages use a flat envelope: the type tag sits beside the payload
// fields rather than wrapping them.

// RoomsListMessage carries the public view of every live room
type RoomsListMessage struct {
	Type  MessageType `json:"type"`
	Rooms []RoomInfo  `json:"rooms"`
}

// NewRoomsListMessage builds a rooms_list message
func NewRoomsListMessage(rooms []RoomInfo) RoomsListMessage {
	return RoomsListMessage{Type: MsgRoomsList, Rooms: rooms}
}

// RoomMessage is sent to a single client after creating or joining a room
type RoomMessage struct {
	Type MessageType `json:"type"`
	Room *Room       `json:"room"`
}

// NewRoomCreatedMessage builds a room_created message
func NewRoomCreatedMessage(room *Room) RoomMessage {
	return RoomMessage{Type: MsgRoomCreated, Room: room}
}

// NewRoomJoinedMessage builds a room_joined message
func NewRoomJoinedMessage(room *Room) RoomMessage {
	return RoomMessage{Type: MsgRoomJoined, Room: room}
}

// RosterChangeMessage notifies a room that a player joined or left
type RosterChangeMessage struct {
	Type   MessageType `json:"type"`
	Player *Player     `json:"player"`
	Room   *Room       `json:"room"`
}

// NewPlayerJoinedMessage builds a player_joined message
func NewPlayerJoinedMessage(player *Player, room *Room) RosterChangeMessage {
	return RosterChangeMessage{Type: MsgPlayerJoined, Player: player, Room: room}
}

// NewPlayerLeftMessage builds a player_left message
func NewPlayerLeftMessage(player *Player, room *Room) RosterChangeMessage {
	return RosterChangeMessage{Type: MsgPlayerLeft, Player: player, Room: room}
}

// GameStartingMessage broadcasts the remaining auto-start countdown ticks
type GameStartingMessage struct {
	Type      MessageType `json:"type"`
	Countdown int         `json:"countdown"`
}

// NewGameStartingMessage builds a game_starting message
func NewGameStartingMessage(countdown int) GameStartingMessage {
	return GameStartingMessage{Type: MsgGameStarting, Countdown: countdown}
}

// GameStartedMessage carries the freshly created game state
type GameStartedMessage struct {
	Type     MessageType `json:"type"`
	GameData *Game       `json:"gameData"`
}

// NewGameStartedMessage builds a game_started message
func NewGameStartedMessage(game *Game) GameStartedMessage {
	return GameStartedMessage{Type: MsgGameStarted, GameData: game}
}

// ChatMessage relays a chat line to a room
type ChatMessage struct {
	Type      MessageType `json:"type"`
	Sender    string      `json:"sender"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewChatMessage builds a chat_message with the current timestamp
func NewChatMessage(sender, message string) ChatMessage {
	return ChatMessage{Type: MsgChatMessage, Sender: sender, Message: message, Timestamp: time.Now()}
}

// RoundResolvedMessage broadcasts a resolved night or ballot
type RoundResolvedMessage struct {
	Type   MessageType `json:"type"`
	Record *Record     `json:"record"`
	Phase  Phase       `json:"phase"`
	Day    int         `json:"day"`
}

// NewNightResolvedMessage builds a night_resolved message
func NewNightResolvedMessage(record *Record, game *Game) RoundResolvedMessage {
	return RoundResolvedMessage{Type: MsgNightResolved, Record: record, Phase: game.Phase, Day: game.Day}
}

// NewVoteResolvedMessage builds a vote_resolved message
func NewVoteResolvedMessage(record *Record, game *Game) RoundResolvedMessage {
	return RoundResolvedMessage{Type: MsgVoteResolved, Record: record, Phase: game.Phase, Day: game.Day}
}

// PhaseChangedMessage announces a phase transition
type PhaseChangedMessage struct {
	Type  MessageType `json:"type"`
	Phase Phase       `json:"phase"`
	Day   int         `json:"day"`
}

// NewPhaseChangedMessage builds a phase_changed message
func NewPhaseChangedMessage(game *Game) PhaseChangedMessage {
	return PhaseChangedMessage{Type: MsgPhaseChanged, Phase: game.Phase, Day: game.Day}
}

// GameEndedMessage announces the winner of a finished game
type GameEndedMessage struct {
	Type   MessageType `json:"type"`
	Winner Winner      `json:"winner"`
}

// NewGameEndedMessage builds a game_ended message
func NewGameEndedMessage(winner Winner) GameEndedMessage {
	return GameEndedMessage{Type: MsgGameEnded, Winner: winner}
}

// ErrorMessage is a targeted error reply to one connection
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// NewErrorMessage builds an error message
func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Type: MsgError, Message: message}
}
