package storage

import (
	"context"
	"time"

	"mafia/internal/domain"
)

// Nop is a Store that records nothing. It backs tests and runs where no
// database is configured; the core behaves identically either way.
type Nop struct{}

func (Nop) UserExists(context.Context, string) (bool, error)           { return false, nil }
func (Nop) CreateUser(context.Context, string, string) (*User, error)  { return nil, ErrNotFound }
func (Nop) GetUser(context.Context, string) (*User, error)             { return nil, ErrNotFound }
func (Nop) UpdateUserStats(context.Context, string, bool) error        { return nil }
func (Nop) CreateRoom(context.Context, *domain.Room) error             { return nil }
func (Nop) Rooms(context.Context) ([]RoomRecord, error)                { return nil, nil }
func (Nop) DeleteRoom(context.Context, string) error                   { return nil }
func (Nop) StartGame(context.Context, string, *domain.Game) error      { return nil }
func (Nop) EndGame(context.Context, string, domain.Winner) error       { return nil }
func (Nop) SaveMessage(context.Context, string, string, string, time.Time) error {
	return nil
}
func (Nop) RoomMessages(context.Context, string, int) ([]Message, error) { return nil, nil }
func (Nop) Counts(context.Context) (Counts, error)                       { return Counts{}, nil }
func (Nop) Close() error                                                 { return nil }
