package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom(minPlayers, maxPlayers int) *Room {
	return NewRoom("test room", NewPlayer("creator", ""), minPlayers, maxPlayers, []Role{RoleDoctor})
}

func TestNewRoom_SeedsCreator(t *testing.T) {
	room := testRoom(4, 8)

	assert.Equal(t, StatusWaiting, room.Status)
	assert.True(t, room.HasPlayer("creator"))
	assert.Len(t, room.Players, 1)
	assert.NotEmpty(t, room.ID)
}

func TestRoom_AddPlayer(t *testing.T) {
	room := testRoom(4, 3)

	require.NoError(t, room.AddPlayer(NewPlayer("alice", "")))
	assert.ErrorIs(t, room.AddPlayer(NewPlayer("alice", "")), ErrAlreadyInRoom)

	require.NoError(t, room.AddPlayer(NewPlayer("bob", "")))
	assert.ErrorIs(t, room.AddPlayer(NewPlayer("carol", "")), ErrRoomFull)
}

func TestRoom_AddPlayerAfterStart(t *testing.T) {
	room := testRoom(4, 8)
	for _, nickname := range []string{"alice", "bob", "carol"} {
		require.NoError(t, room.AddPlayer(NewPlayer(nickname, "")))
	}

	_, err := room.Start(rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	assert.ErrorIs(t, room.AddPlayer(NewPlayer("dave", "")), ErrGameAlreadyStarted)
}

func TestRoom_RemovePlayer(t *testing.T) {
	room := testRoom(4, 8)
	require.NoError(t, room.AddPlayer(NewPlayer("alice", "")))

	player, err := room.RemovePlayer("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", player.Nickname)
	assert.False(t, room.HasPlayer("alice"))

	_, err = room.RemovePlayer("alice")
	assert.ErrorIs(t, err, ErrNotInRoom)

	_, err = room.RemovePlayer("creator")
	require.NoError(t, err)
	assert.True(t, room.Empty())
}

func TestRoom_StartThresholds(t *testing.T) {
	room := testRoom(4, 5)

	assert.False(t, room.CanCountdown())
	assert.False(t, room.ShouldStartNow())

	for _, nickname := range []string{"alice", "bob", "carol"} {
		require.NoError(t, room.AddPlayer(NewPlayer(nickname, "")))
	}
	assert.True(t, room.CanCountdown())
	assert.False(t, room.ShouldStartNow())

	require.NoError(t, room.AddPlayer(NewPlayer("dave", "")))
	assert.True(t, room.ShouldStartNow())
}

func TestRoom_StartIsOneWay(t *testing.T) {
	room := testRoom(4, 8)
	for _, nickname := range []string{"alice", "bob", "carol"} {
		require.NoError(t, room.AddPlayer(NewPlayer(nickname, "")))
	}

	game, err := room.Start(rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.Equal(t, StatusPlaying, room.Status)
	assert.Same(t, game, room.Game)
	assert.Len(t, game.Players, 4)

	_, err = room.Start(rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
	assert.False(t, room.CanCountdown())
}

func TestRoom_InfoCopiesPlayers(t *testing.T) {
	room := testRoom(4, 8)
	info := room.Info()

	require.Len(t, info.Players, 1)
	info.Players[0].Nickname = "mutated"
	assert.Equal(t, "creator", room.Players[0].Nickname)
}
