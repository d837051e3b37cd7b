package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"mafia/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	nickname TEXT UNIQUE NOT NULL,
	avatar TEXT NOT NULL DEFAULT '',
	games_played INTEGER NOT NULL DEFAULT 0,
	games_won INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rooms (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	creator_nickname TEXT NOT NULL,
	min_players INTEGER NOT NULL,
	max_players INTEGER NOT NULL,
	roles TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'waiting',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	room_id TEXT NOT NULL,
	players TEXT NOT NULL,
	roles_distribution TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	winner TEXT,
	started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ended_at DATETIME
);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id TEXT NOT NULL,
	sender TEXT NOT NULL,
	message TEXT NOT NULL,
	timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is the Store implementation backing the best-effort mirror
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for an ephemeral database in tests.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// SQLite writes are serialized; one connection avoids lock contention
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

// UserExists reports whether a nickname is already registered
func (s *SQLite) UserExists(ctx context.Context, nickname string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE nickname = ?`, nickname)
	return count > 0, err
}

// CreateUser registers a new user and returns the stored record
func (s *SQLite) CreateUser(ctx context.Context, nickname, avatar string) (*User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (nickname, avatar) VALUES (?, ?)`, nickname, avatar)
	if err != nil {
		return nil, err
	}
	return s.GetUser(ctx, nickname)
}

// GetUser returns a user by nickname, or ErrNotFound
func (s *SQLite) GetUser(ctx context.Context, nickname string) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, `SELECT * FROM users WHERE nickname = ?`, nickname)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserStats bumps a user's played counter and, on a win, the won counter
func (s *SQLite) UpdateUserStats(ctx context.Context, nickname string, won bool) error {
	wonDelta := 0
	if won {
		wonDelta = 1
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET games_played = games_played + 1, games_won = games_won + ? WHERE nickname = ?`,
		wonDelta, nickname)
	return err
}

// CreateRoom mirrors a newly created room
func (s *SQLite) CreateRoom(ctx context.Context, room *domain.Room) error {
	roles, err := json.Marshal(room.Roles)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, name, creator_nickname, min_players, max_players, roles, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.Creator.Nickname, room.MinPlayers, room.MaxPlayers,
		string(roles), string(room.Status))
	return err
}

// Rooms lists mirrored rooms still waiting for players, newest first
func (s *SQLite) Rooms(ctx context.Context) ([]RoomRecord, error) {
	rooms := make([]RoomRecord, 0)
	err := s.db.SelectContext(ctx, &rooms,
		`SELECT * FROM rooms WHERE status = 'waiting' ORDER BY created_at DESC`)
	return rooms, err
}

// DeleteRoom removes a mirrored room
func (s *SQLite) DeleteRoom(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	return err
}

// StartGame mirrors a game start and flips the room's mirrored status
func (s *SQLite) StartGame(ctx context.Context, roomID string, game *domain.Game) error {
	players, err := json.Marshal(game.Players)
	if err != nil {
		return err
	}
	roles := make([]domain.Role, 0, len(game.Players))
	for _, p := range game.Players {
		roles = append(roles, p.Role)
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, room_id, players, roles_distribution) VALUES (?, ?, ?, ?)`,
		game.ID, roomID, string(players), string(rolesJSON)); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `UPDATE rooms SET status = 'playing' WHERE id = ?`, roomID)
	return err
}

// EndGame records the winner of a finished game
func (s *SQLite) EndGame(ctx context.Context, gameID string, winner domain.Winner) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE games SET status = 'finished', winner = ?, ended_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(winner), gameID)
	return err
}

// SaveMessage mirrors a chat line
func (s *SQLite) SaveMessage(ctx context.Context, roomID, sender, message string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (room_id, sender, message, timestamp) VALUES (?, ?, ?, ?)`,
		roomID, sender, message, at)
	return err
}

// RoomMessages returns the latest chat lines for a room, newest first
func (s *SQLite) RoomMessages(ctx context.Context, roomID string, limit int) ([]Message, error) {
	messages := make([]Message, 0)
	err := s.db.SelectContext(ctx, &messages,
		`SELECT * FROM messages WHERE room_id = ? ORDER BY timestamp DESC LIMIT ?`, roomID, limit)
	return messages, err
}

// Counts returns aggregate table counts
func (s *SQLite) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	if err := s.db.GetContext(ctx, &counts.TotalUsers, `SELECT COUNT(*) FROM users`); err != nil {
		return counts, err
	}
	if err := s.db.GetContext(ctx, &counts.TotalGames, `SELECT COUNT(*) FROM games`); err != nil {
		return counts, err
	}
	err := s.db.GetContext(ctx, &counts.ActiveRooms, `SELECT COUNT(*) FROM rooms WHERE status = 'waiting'`)
	return counts, err
}

// Close closes the underlying database
func (s *SQLite) Close() error {
	return s.db.Close()
}
