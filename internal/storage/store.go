package storage

import (
	"context"
	"errors"
	"time"

	"mafia/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("storage: not found")

// User is a persisted user account with lifetime stats
type User struct {
	ID          int64     `db:"id" json:"id"`
	Nickname    string    `db:"nickname" json:"nickname"`
	Avatar      string    `db:"avatar" json:"avatar,omitempty"`
	GamesPlayed int       `db:"games_played" json:"gamesPlayed"`
	GamesWon    int       `db:"games_won" json:"gamesWon"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// RoomRecord is the persisted mirror of a live room
type RoomRecord struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Creator    string    `db:"creator_nickname" json:"creator"`
	MinPlayers int       `db:"min_players" json:"minPlayers"`
	MaxPlayers int       `db:"max_players" json:"maxPlayers"`
	Roles      string    `db:"roles" json:"roles"` // JSON-encoded role list
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Message is a persisted chat line
type Message struct {
	ID        int64     `db:"id" json:"id"`
	RoomID    string    `db:"room_id" json:"roomId"`
	Sender    string    `db:"sender" json:"sender"`
	Message   string    `db:"message" json:"message"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Counts are aggregate table counts for the stats endpoint
type Counts struct {
	TotalUsers  int `json:"totalUsers"`
	TotalGames  int `json:"totalGames"`
	ActiveRooms int `json:"activeRooms"`
}

// Store mirrors live session state into durable storage. Every call is
// best-effort from the core's point of view: the in-memory session is the
// source of truth and a failed write never gates a transition.
type Store interface {
	UserExists(ctx context.Context, nickname string) (bool, error)
	CreateUser(ctx context.Context, nickname, avatar string) (*User, error)
	GetUser(ctx context.Context, nickname string) (*User, error)
	UpdateUserStats(ctx context.Context, nickname string, won bool) error

	CreateRoom(ctx context.Context, room *domain.Room) error
	Rooms(ctx context.Context) ([]RoomRecord, error)
	DeleteRoom(ctx context.Context, id string) error

	StartGame(ctx context.Context, roomID string, game *domain.Game) error
	EndGame(ctx context.Context, gameID string, winner domain.Winner) error

	SaveMessage(ctx context.Context, roomID, sender, message string, at time.Time) error
	RoomMessages(ctx context.Context, roomID string, limit int) ([]Message, error)

	Counts(ctx context.Context) (Counts, error)
	Close() error
}
