package domain

import (
	"math/rand"
	"time"
)

// RoomStatus represents the lifecycle state of a room
type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusPlaying RoomStatus = "playing"
)

// Room is a pre-game lobby grouping players before a session starts.
// The roster keeps insertion order; the creator seeds it. Capacity is only
// capped above MaxPlayers on join; MinPlayers gates the auto-start countdown,
// not joining.
type Room struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Creator    *Player    `json:"creator"`
	Players    []*Player  `json:"players"`
	MinPlayers int        `json:"minPlayers"`
	MaxPlayers int        `json:"maxPlayers"`
	Roles      []Role     `json:"roles"`
	Status     RoomStatus `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	Game       *Game      `json:"gameData,omitempty"`
}

// NewRoom creates a room seeded with its creator
func NewRoom(name string, creator *Player, minPlayers, maxPlayers int, roles []Role) *Room {
	return &Room{
		ID:         newID("room"),
		Name:       name,
		Creator:    creator,
		Players:    []*Player{creator},
		MinPlayers: minPlayers,
		MaxPlayers: maxPlayers,
		Roles:      roles,
		Status:     StatusWaiting,
		CreatedAt:  time.Now(),
	}
}

// Player returns a roster member by nickname
func (r *Room) Player(nickname string) (*Player, bool) {
	for _, p := range r.Players {
		if p.Nickname == nickname {
			return p, true
		}
	}
	return nil, false
}

// HasPlayer reports whether a nickname is on the roster
func (r *Room) HasPlayer(nickname string) bool {
	_, ok := r.Player(nickname)
	return ok
}

// AddPlayer appends a player to the roster
func (r *Room) AddPlayer(player *Player) error {
	if r.Status != StatusWaiting {
		return ErrGameAlreadyStarted
	}
	if len(r.Players) >= r.MaxPlayers {
		return ErrRoomFull
	}
	if r.HasPlayer(player.Nickname) {
		return ErrAlreadyInRoom
	}

	r.Players = append(r.Players, player)
	return nil
}

// RemovePlayer removes a player from the roster and returns the record
func (r *Room) RemovePlayer(nickname string) (*Player, error) {
	for i, p := range r.Players {
		if p.Nickname == nickname {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			return p, nil
		}
	}
	return nil, ErrNotInRoom
}

// Empty returns true when the roster has no players left
func (r *Room) Empty() bool {
	return len(r.Players) == 0
}

// ShouldStartNow returns true when the roster reached capacity
func (r *Room) ShouldStartNow() bool {
	return r.Status == StatusWaiting && len(r.Players) >= r.MaxPlayers
}

// CanCountdown returns true when the roster is large enough for a countdown
func (r *Room) CanCountdown() bool {
	return r.Status == StatusWaiting && len(r.Players) >= r.MinPlayers
}

// Start flips the room to playing and creates its game. This is a one-way
// transition; the room never downgrades back to waiting.
func (r *Room) Start(rng *rand.Rand) (*Game, error) {
	if r.Status != StatusWaiting {
		return nil, ErrGameAlreadyStarted
	}

	r.Status = StatusPlaying
	r.Game = NewGame(r.Players, r.Roles, rng)
	return r.Game, nil
}

// Info returns the room view used by the rooms-list broadcast. Players are
// copied so the snapshot stays stable after the room lock is released.
func (r *Room) Info() RoomInfo {
	players := make([]Player, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, *p)
	}
	return RoomInfo{
		ID:         r.ID,
		Name:       r.Name,
		Players:    players,
		MinPlayers: r.MinPlayers,
		MaxPlayers: r.MaxPlayers,
		Roles:      r.Roles,
		Status:     r.Status,
	}
}

// RoomInfo is the public room view sent to clients browsing the room list
type RoomInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Players    []Player   `json:"players"`
	MinPlayers int        `json:"minPlayers"`
	MaxPlayers int        `json:"maxPlayers"`
	Roles      []Role     `json:"roles"`
	Status     RoomStatus `json:"status"`
}
