package app

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"mafia/internal/domain"
	"mafia/internal/storage"
)

// ClientConnection represents a connected client. Send must serialize the
// message synchronously before queueing so callers may pass shared state while
// holding the lock that guards it.
type ClientConnection interface {
	Send(message interface{}) error
	Close() error
}

// Options tune the registry. Zero values fall back to production defaults.
type Options struct {
	CountdownTicks int           // auto-start countdown length, in ticks
	TickInterval   time.Duration // spacing between countdown ticks
	DayDuration    time.Duration // discussion window before voting opens
	MinRoomSize    int           // smallest allowed room minimum
	MaxRoomSize    int           // largest allowed room maximum
	Seed           int64         // RNG seed; 0 seeds from the clock
}

func (o Options) withDefaults() Options {
	if o.CountdownTicks == 0 {
		o.CountdownTicks = 15
	}
	if o.TickInterval == 0 {
		o.TickInterval = time.Second
	}
	if o.DayDuration == 0 {
		o.DayDuration = 60 * time.Second
	}
	if o.MinRoomSize == 0 {
		o.MinRoomSize = 4
	}
	if o.MaxRoomSize == 0 {
		o.MaxRoomSize = 16
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return o
}

// Stats are the live counters exposed by the stats endpoint
type Stats struct {
	ConnectedUsers int `json:"connectedUsers"`
	ActiveRooms    int `json:"activeRooms"`
	ActiveGames    int `json:"activeGames"`
	TotalPlayers   int `json:"totalPlayers"`
}

// Registry owns every live room session and the connection table. All state
// flows through it: inbound messages land here, mutate exactly one session,
// and fan back out through the connection table. Storage writes are a
// best-effort mirror that never gates a transition.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]ClientConnection // nickname -> connection
	sessions map[string]*RoomSession     // roomID -> session

	store  storage.Store
	logger *slog.Logger
	opts   Options

	seedMu sync.Mutex
	seeder *rand.Rand
}

// NewRegistry creates a registry backed by the given store
func NewRegistry(store storage.Store, logger *slog.Logger, opts Options) *Registry {
	opts = opts.withDefaults()
	return &Registry{
		clients:  make(map[string]ClientConnection),
		sessions: make(map[string]*RoomSession),
		store:    store,
		logger:   logger,
		opts:     opts,
		seeder:   rand.New(rand.NewSource(opts.Seed)),
	}
}

// Connect binds a connection to a player identity. A previous connection for
// the same nickname is closed and replaced.
func (r *Registry) Connect(nickname string, conn ClientConnection) error {
	if nickname == "" {
		return domain.ErrInvalidNickname
	}

	r.mu.Lock()
	old, had := r.clients[nickname]
	r.clients[nickname] = conn
	sessions := r.sessionList()
	r.mu.Unlock()

	if had && old != conn {
		old.Close()
	}

	for _, s := range sessions {
		s.PlayerReconnected(nickname)
	}

	r.logger.Info("user connected", "nickname", nickname)
	r.sendRoomsList(nickname)
	return nil
}

// Disconnect tears down a connection's identity binding and runs the same
// side-effects as an explicit leave in every room the player occupied.
func (r *Registry) Disconnect(nickname string, conn ClientConnection) {
	r.mu.Lock()
	current, ok := r.clients[nickname]
	if !ok || current != conn {
		// A replacement connection took over this identity
		r.mu.Unlock()
		return
	}
	delete(r.clients, nickname)
	sessions := r.sessionList()
	r.mu.Unlock()

	left := false
	for _, s := range sessions {
		_, empty, err := s.Leave(nickname)
		if err != nil {
			continue
		}
		left = true
		if empty {
			r.deleteSession(s.RoomID())
		}
	}

	r.logger.Info("user disconnected", "nickname", nickname)
	if left {
		r.broadcastRoomsList()
	}
}

// CreateRoom creates a room seeded with its creator and announces it
func (r *Registry) CreateRoom(name string, creator *domain.Player, minPlayers, maxPlayers int, roles []domain.Role) (*domain.Room, error) {
	if name == "" || creator == nil || creator.Nickname == "" {
		return nil, domain.ErrInvalidRoomConfig
	}
	if minPlayers < r.opts.MinRoomSize || maxPlayers > r.opts.MaxRoomSize || minPlayers > maxPlayers {
		return nil, domain.ErrInvalidRoomConfig
	}

	room := domain.NewRoom(name, creator, minPlayers, maxPlayers, roles)
	session := newRoomSession(room, r)

	r.mu.Lock()
	r.sessions[room.ID] = session
	r.mu.Unlock()

	r.mirror("createRoom", func(ctx context.Context) error {
		return r.store.CreateRoom(ctx, room)
	})

	r.logger.Info("room created", "roomID", room.ID, "name", room.Name, "creator", creator.Nickname)

	session.SendRoomCreated(creator.Nickname)
	r.broadcastRoomsList()
	return room, nil
}

// JoinRoom adds a player to a waiting room and runs the auto-start check
func (r *Registry) JoinRoom(roomID string, player *domain.Player) error {
	session, err := r.session(roomID)
	if err != nil {
		return err
	}

	if err := session.Join(player); err != nil {
		return err
	}

	r.logger.Info("player joined room", "roomID", roomID, "nickname", player.Nickname)
	r.broadcastRoomsList()
	return nil
}

// LeaveRoom removes a player from a room, deleting the room if it empties
func (r *Registry) LeaveRoom(roomID, nickname string) error {
	session, err := r.session(roomID)
	if err != nil {
		return err
	}

	player, empty, err := session.Leave(nickname)
	if err != nil {
		return err
	}
	if empty {
		r.deleteSession(roomID)
	}

	r.logger.Info("player left room", "roomID", roomID, "nickname", player.Nickname)
	r.broadcastRoomsList()
	return nil
}

// Chat relays a chat line to a room the sender occupies
func (r *Registry) Chat(roomID, sender, message string) error {
	session, err := r.session(roomID)
	if err != nil {
		return err
	}
	return session.Chat(sender, message)
}

// NightAction routes a night action into a room's running game
func (r *Registry) NightAction(roomID, nickname string, action domain.NightAction) error {
	session, err := r.session(roomID)
	if err != nil {
		return err
	}
	return session.NightAction(nickname, action)
}

// CastVote routes a vote into a room's running game
func (r *Registry) CastVote(roomID, nickname, target string) error {
	session, err := r.session(roomID)
	if err != nil {
		return err
	}
	return session.CastVote(nickname, target)
}

// SendRoomsList unicasts the current room list to one identity
func (r *Registry) SendRoomsList(nickname string) {
	r.sendRoomsList(nickname)
}

// RoomInfos returns the public view of every live room
func (r *Registry) RoomInfos() []domain.RoomInfo {
	return r.roomInfos()
}

// Stats returns the live counters
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	stats := Stats{ConnectedUsers: len(r.clients), ActiveRooms: len(r.sessions)}
	sessions := r.sessionList()
	r.mu.RUnlock()

	for _, s := range sessions {
		players, playing := s.Counters()
		stats.TotalPlayers += players
		if playing {
			stats.ActiveGames++
		}
	}
	return stats
}

// Close cancels every session timer and closes all connections
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessionList()
	clients := make([]ClientConnection, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[string]ClientConnection)
	r.sessions = make(map[string]*RoomSession)
	r.mu.Unlock()

	for _, s := range sessions {
		s.CancelTimers()
	}
	for _, c := range clients {
		c.Close()
	}
}

// session resolves a room session by id
func (r *Registry) session(roomID string) (*RoomSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return session, nil
}

// sessionList snapshots the session table; callers must hold r.mu
func (r *Registry) sessionList() []*RoomSession {
	sessions := make([]*RoomSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// deleteSession drops a session and mirrors the deletion
func (r *Registry) deleteSession(roomID string) {
	r.mu.Lock()
	session, ok := r.sessions[roomID]
	delete(r.sessions, roomID)
	r.mu.Unlock()

	if !ok {
		return
	}
	session.CancelTimers()

	r.mirror("deleteRoom", func(ctx context.Context) error {
		return r.store.DeleteRoom(ctx, roomID)
	})
	r.logger.Info("room deleted", "roomID", roomID)
}

// unicast sends a message to one identity. A send to a closed or absent
// connection is silently dropped, never an error.
func (r *Registry) unicast(nickname string, message interface{}) {
	r.mu.RLock()
	conn, ok := r.clients[nickname]
	r.mu.RUnlock()

	if !ok {
		return
	}
	if err := conn.Send(message); err != nil {
		r.logger.Debug("send failed", "nickname", nickname, "error", err)
	}
}

// sendRoomsList unicasts the room list snapshot to one identity
func (r *Registry) sendRoomsList(nickname string) {
	r.unicast(nickname, domain.NewRoomsListMessage(r.roomInfos()))
}

// broadcastRoomsList sends the room list snapshot to every connected identity
func (r *Registry) broadcastRoomsList() {
	msg := domain.NewRoomsListMessage(r.roomInfos())

	r.mu.RLock()
	clients := make(map[string]ClientConnection, len(r.clients))
	for nickname, conn := range r.clients {
		clients[nickname] = conn
	}
	r.mu.RUnlock()

	for nickname, conn := range clients {
		if err := conn.Send(msg); err != nil {
			r.logger.Debug("send failed", "nickname", nickname, "error", err)
		}
	}
}

// roomInfos snapshots the public view of every live room
func (r *Registry) roomInfos() []domain.RoomInfo {
	r.mu.RLock()
	sessions := r.sessionList()
	r.mu.RUnlock()

	infos := make([]domain.RoomInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// gameRNG derives an independent random source for one game. Sources derived
// from the same seed are reproducible across runs.
func (r *Registry) gameRNG() *rand.Rand {
	r.seedMu.Lock()
	defer r.seedMu.Unlock()
	return rand.New(rand.NewSource(r.seeder.Int63()))
}

// mirror runs a storage write in the background. Failures are logged and
// otherwise ignored; the live session is the source of truth.
func (r *Registry) mirror(op string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			r.logger.Warn("storage mirror failed", "op", op, "error", err)
		}
	}()
}
