package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mafia/internal/domain"
	"mafia/internal/storage"
)

// fakeConn records everything sent to it
type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool
}

func (c *fakeConn) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) count(msgType domain.MessageType) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, data := range c.messages {
		var env struct {
			Type domain.MessageType `json:"type"`
		}
		if json.Unmarshal(data, &env) == nil && env.Type == msgType {
			n++
		}
	}
	return n
}

func (c *fakeConn) last(msgType domain.MessageType) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.messages) - 1; i >= 0; i-- {
		var env struct {
			Type domain.MessageType `json:"type"`
		}
		if json.Unmarshal(c.messages[i], &env) == nil && env.Type == msgType {
			return c.messages[i]
		}
	}
	return nil
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewRegistry(storage.Nop{}, logger, Options{
		CountdownTicks: 2,
		TickInterval:   5 * time.Millisecond,
		DayDuration:    25 * time.Millisecond,
		MinRoomSize:    4,
		MaxRoomSize:    6,
		Seed:           42,
	})
	t.Cleanup(registry.Close)
	return registry
}

func connect(t *testing.T, registry *Registry, nickname string) *fakeConn {
	t.Helper()
	conn := &fakeConn{}
	require.NoError(t, registry.Connect(nickname, conn))
	return conn
}

func TestConnect_ReplacesPreviousConnection(t *testing.T) {
	registry := testRegistry(t)

	first := connect(t, registry, "alice")
	second := connect(t, registry, "alice")

	first.mu.Lock()
	closed := first.closed
	first.mu.Unlock()
	assert.True(t, closed)

	assert.Equal(t, 1, registry.Stats().ConnectedUsers)
	assert.Equal(t, 1, second.count(domain.MsgRoomsList))
}

func TestCreateRoom_Validation(t *testing.T) {
	registry := testRegistry(t)
	connect(t, registry, "alice")

	_, err := registry.CreateRoom("", domain.NewPlayer("alice", ""), 4, 6, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRoomConfig)

	_, err = registry.CreateRoom("room", domain.NewPlayer("alice", ""), 2, 6, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRoomConfig)

	_, err = registry.CreateRoom("room", domain.NewPlayer("alice", ""), 4, 20, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRoomConfig)

	_, err = registry.CreateRoom("room", domain.NewPlayer("alice", ""), 4, 6, nil)
	assert.NoError(t, err)
}

func TestCreateRoom_AnnouncesToCreatorAndEveryone(t *testing.T) {
	registry := testRegistry(t)
	alice := connect(t, registry, "alice")
	bob := connect(t, registry, "bob")

	room, err := registry.CreateRoom("night shift", domain.NewPlayer("alice", ""), 4, 6, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, alice.count(domain.MsgRoomCreated))
	assert.Zero(t, bob.count(domain.MsgRoomCreated))

	// Both get the refreshed rooms list
	data := bob.last(domain.MsgRoomsList)
	require.NotNil(t, data)
	var msg domain.RoomsListMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Len(t, msg.Rooms, 1)
	assert.Equal(t, room.ID, msg.Rooms[0].ID)
}

func TestJoinRoom_NotFound(t *testing.T) {
	registry := testRegistry(t)
	connect(t, registry, "alice")

	err := registry.JoinRoom("room_missing", domain.NewPlayer("alice", ""))
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestJoinAtCapacityStartsImmediately(t *testing.T) {
	registry := testRegistry(t)
	conns := map[string]*fakeConn{}
	for _, nickname := range []string{"alice", "bob", "carol", "dave"} {
		conns[nickname] = connect(t, registry, nickname)
	}

	room, err := registry.CreateRoom("fast", domain.NewPlayer("alice", ""), 4, 4, nil)
	require.NoError(t, err)

	for _, nickname := range []string{"bob", "carol", "dave"} {
		require.NoError(t, registry.JoinRoom(room.ID, domain.NewPlayer(nickname, "")))
	}

	for nickname, conn := range conns {
		assert.Equal(t, 1, conn.count(domain.MsgGameStarted), "nickname %s", nickname)
	}
	assert.Equal(t, 1, registry.Stats().ActiveGames)
}

func TestCountdownStartsGame(t *testing.T) {
	registry := testRegistry(t)
	alice := connect(t, registry, "alice")
	for _, nickname := range []string{"bob", "carol", "dave"} {
		connect(t, registry, nickname)
	}

	room, err := registry.CreateRoom("slow", domain.NewPlayer("alice", ""), 4, 6, nil)
	require.NoError(t, err)

	for _, nickname := range []string{"bob", "carol", "dave"} {
		require.NoError(t, registry.JoinRoom(room.ID, domain.NewPlayer(nickname, "")))
	}

	// Roster reached the minimum, the countdown announcement goes out at once
	require.GreaterOrEqual(t, alice.count(domain.MsgGameStarting), 1)

	require.Eventually(t, func() bool {
		return alice.count(domain.MsgGameStarted) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCountdownRestartsWhenRosterGrows(t *testing.T) {
	registry := testRegistry(t)
	alice := connect(t, registry, "alice")
	for _, nickname := range []string{"bob", "carol", "dave", "erin"} {
		connect(t, registry, nickname)
	}

	room, err := registry.CreateRoom("busy", domain.NewPlayer("alice", ""), 4, 6, nil)
	require.NoError(t, err)

	for _, nickname := range []string{"bob", "carol", "dave"} {
		require.NoError(t, registry.JoinRoom(room.ID, domain.NewPlayer(nickname, "")))
	}
	require.NoError(t, registry.JoinRoom(room.ID, domain.NewPlayer("erin", "")))

	// Two full-length announcements: one per roster change at or above minimum
	count := 0
	alice.mu.Lock()
	for _, data := range alice.messages {
		var msg domain.GameStartingMessage
		if json.Unmarshal(data, &msg) == nil && msg.Type == domain.MsgGameStarting && msg.Countdown == 2 {
			count++
		}
	}
	alice.mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestLeaveCancelsCountdownBelowMinimum(t *testing.T) {
	registry := testRegistry(t)
	alice := connect(t, registry, "alice")
	for _, nickname := range []string{"bob", "carol", "dave"} {
		connect(t, registry, nickname)
	}

	room, err := registry.CreateRoom("fragile", domain.NewPlayer("alice", ""), 4, 6, nil)
	require.NoError(t, err)

	for _, nickname := range []string{"bob", "carol", "dave"} {
		require.NoError(t, registry.JoinRoom(room.ID, domain.NewPlayer(nickname, "")))
	}
	require.NoError(t, registry.LeaveRoom(room.ID, "dave"))

	// Enough ticks for the cancelled countdown to have fired
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, alice.count(domain.MsgGameStarted))
	assert.Zero(t, registry.Stats().ActiveGames)
}

func TestRoomDeletedWhenEmptied(t *testing.T) {
	registry := testRegistry(t)
	connect(t, registry, "alice")

	room, err := registry.CreateRoom("ghost town", domain.NewPlayer("alice", ""), 4, 6, nil)
	require.NoError(t, err)
	require.Equal(t, 1, registry.Stats().ActiveRooms)

	require.NoError(t, registry.LeaveRoom(room.ID, "alice"))
	assert.Zero(t, registry.Stats().ActiveRooms)

	err = registry.JoinRoom(room.ID, domain.NewPlayer("bob", ""))
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestDisconnectLeavesEveryRoom(t *testing.T) {
	registry := testRegistry(t)
	alice := connect(t, registry, "alice")
	bob := connect(t, registry, "bob")

	room, err := registry.CreateRoom("flaky", domain.NewPlayer("alice", ""), 4, 6, nil)
	require.NoError(t, err)
	require.NoError(t, registry.JoinRoom(room.ID, domain.NewPlayer("bob", "")))

	registry.Disconnect("bob", bob)

	assert.Equal(t, 1, alice.count(domain.MsgPlayerLeft))
	assert.Equal(t, 1, registry.Stats().ConnectedUsers)
	assert.Equal(t, 1, registry.Stats().TotalPlayers)
}

func TestChat_RequiresMembership(t *testing.T) {
	registry := testRegistry(t)
	alice := connect(t, registry, "alice")
	connect(t, registry, "mallory")

	room, err := registry.CreateRoom("cozy", domain.NewPlayer("alice", ""), 4, 6, nil)
	require.NoError(t, err)

	err = registry.Chat(room.ID, "mallory", "let me in")
	assert.ErrorIs(t, err, domain.ErrNotInRoom)

	require.NoError(t, registry.Chat(room.ID, "alice", "hello?"))
	assert.Equal(t, 1, alice.count(domain.MsgChatMessage))
}

// rolesFromStart extracts the role assignment from a game_started payload
func rolesFromStart(t *testing.T, conn *fakeConn) map[domain.Role][]string {
	t.Helper()
	data := conn.last(domain.MsgGameStarted)
	require.NotNil(t, data)

	var msg domain.GameStartedMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	require.NotNil(t, msg.GameData)

	byRole := make(map[domain.Role][]string)
	for _, p := range msg.GameData.Players {
		byRole[p.Role] = append(byRole[p.Role], p.Nickname)
	}
	return byRole
}

func TestFullGameFlow(t *testing.T) {
	registry := testRegistry(t)
	nicknames := []string{"alice", "bob", "carol", "dave"}
	conns := map[string]*fakeConn{}
	for _, nickname := range nicknames {
		conns[nickname] = connect(t, registry, nickname)
	}

	room, err := registry.CreateRoom("showdown", domain.NewPlayer("alice", ""), 4, 4, nil)
	require.NoError(t, err)
	for _, nickname := range nicknames[1:] {
		require.NoError(t, registry.JoinRoom(room.ID, domain.NewPlayer(nickname, "")))
	}

	byRole := rolesFromStart(t, conns["alice"])
	require.Len(t, byRole[domain.RoleMafia], 1)
	require.Len(t, byRole[domain.RoleSheriff], 1)
	require.Len(t, byRole[domain.RoleCivilian], 2)

	mafia := byRole[domain.RoleMafia][0]
	sheriff := byRole[domain.RoleSheriff][0]
	victim := byRole[domain.RoleCivilian][0]

	// Night 1: mafia kills a civilian, sheriff investigates the mafia
	require.NoError(t, registry.NightAction(room.ID, mafia, domain.NightAction{Type: domain.ActionKill, Target: victim}))
	require.NoError(t, registry.NightAction(room.ID, sheriff, domain.NightAction{Type: domain.ActionCheck, Target: mafia}))

	require.Equal(t, 1, conns[mafia].count(domain.MsgNightResolved))

	data := conns[sheriff].last(domain.MsgNightResolved)
	var resolved domain.RoundResolvedMessage
	require.NoError(t, json.Unmarshal(data, &resolved))
	assert.Equal(t, []string{victim}, resolved.Record.Killed)
	assert.Equal(t, domain.PhaseDay, resolved.Phase)

	// Dead players cannot act
	err = registry.CastVote(room.ID, victim, mafia)
	assert.Error(t, err)

	// The day window elapses and voting opens
	require.Eventually(t, func() bool {
		data := conns[mafia].last(domain.MsgPhaseChanged)
		if data == nil {
			return false
		}
		var msg domain.PhaseChangedMessage
		return json.Unmarshal(data, &msg) == nil && msg.Phase == domain.PhaseVoting
	}, time.Second, 5*time.Millisecond)

	// Everyone left alive votes the mafia out
	survivors := []string{mafia, sheriff, byRole[domain.RoleCivilian][1]}
	for _, nickname := range survivors {
		require.NoError(t, registry.CastVote(room.ID, nickname, mafia))
	}

	require.Equal(t, 1, conns[sheriff].count(domain.MsgVoteResolved))

	data = conns[sheriff].last(domain.MsgGameEnded)
	require.NotNil(t, data)
	var ended domain.GameEndedMessage
	require.NoError(t, json.Unmarshal(data, &ended))
	assert.Equal(t, domain.WinnerCivilians, ended.Winner)

	assert.Zero(t, registry.Stats().ActiveGames)
}
