package app

import (
	"context"
	"sync"
	"time"

	"mafia/internal/domain"
)

// RoomSession wraps one room behind a mutex and drives its timers. Every
// mutation of the room or its game happens under s.mu; broadcasts to the
// roster also happen under it, relying on ClientConnection.Send serializing
// synchronously. Session methods never call back into registry methods that
// take session locks.
type RoomSession struct {
	mu       sync.Mutex
	room     *domain.Room
	registry *Registry

	// timerGen invalidates scheduled work: countdown ticks and the day timer
	// capture the generation at start and exit once it moves on.
	timerGen int
}

func newRoomSession(room *domain.Room, registry *Registry) *RoomSession {
	return &RoomSession{room: room, registry: registry}
}

// RoomID returns the immutable room id
func (s *RoomSession) RoomID() string {
	return s.room.ID
}

// Info snapshots the public room view
func (s *RoomSession) Info() domain.RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Info()
}

// Counters reports the roster size and whether a game is in progress
func (s *RoomSession) Counters() (players int, playing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	game := s.room.Game
	return len(s.room.Players), game != nil && !game.Ended()
}

// SendRoomCreated unicasts the room snapshot to its creator
func (s *RoomSession) SendRoomCreated(nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.unicast(nickname, domain.NewRoomCreatedMessage(s.room))
}

// Join adds a player to the roster, confirms to the joiner, notifies the room
// and runs the start checks: full room starts immediately, a roster at or
// above the minimum restarts the countdown from the top.
func (s *RoomSession) Join(player *domain.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.room.AddPlayer(player); err != nil {
		return err
	}

	s.registry.unicast(player.Nickname, domain.NewRoomJoinedMessage(s.room))
	s.broadcastLocked(domain.NewPlayerJoinedMessage(player, s.room))

	if s.room.ShouldStartNow() {
		s.cancelTimersLocked()
		s.startGameLocked()
		return nil
	}
	if s.room.CanCountdown() {
		s.restartCountdownLocked()
	}
	return nil
}

// Leave removes a player from the roster. Any running countdown is cancelled
// and restarted from the top if enough players remain. During a game the
// departed player forfeits their pending turn, so the matching resolution is
// re-checked. Returns the removed player and whether the room emptied.
func (s *RoomSession) Leave(nickname string) (*domain.Player, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.room.RemovePlayer(nickname)
	if err != nil {
		return nil, false, err
	}

	if s.room.Status == domain.StatusWaiting {
		// Roster changed, any running countdown is void
		s.cancelTimersLocked()
	}

	game := s.room.Game
	if game != nil && !game.Ended() {
		game.SetPlayerConnected(nickname, false)
		s.resolvePendingLocked()
	}

	if s.room.Empty() {
		return player, true, nil
	}

	s.broadcastLocked(domain.NewPlayerLeftMessage(player, s.room))
	if s.room.CanCountdown() {
		s.restartCountdownLocked()
	}
	return player, false, nil
}

// PlayerReconnected restores a player's standing in a running game
func (s *RoomSession) PlayerReconnected(nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game := s.room.Game
	if game != nil && !game.Ended() && s.room.HasPlayer(nickname) {
		game.SetPlayerConnected(nickname, true)
	}
}

// Chat relays a chat line to the roster and mirrors it
func (s *RoomSession) Chat(sender, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.HasPlayer(sender) {
		return domain.ErrNotInRoom
	}

	msg := domain.NewChatMessage(sender, message)
	s.broadcastLocked(msg)

	roomID := s.room.ID
	s.registry.mirror("saveMessage", func(ctx context.Context) error {
		return s.registry.store.SaveMessage(ctx, roomID, msg.Sender, msg.Message, msg.Timestamp)
	})
	return nil
}

// NightAction records a night action and resolves the night once every living
// connected active-role player has acted
func (s *RoomSession) NightAction(nickname string, action domain.NightAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game := s.room.Game
	if game == nil {
		return domain.ErrGameNotFound
	}
	if err := game.SubmitNightAction(nickname, action); err != nil {
		return err
	}

	s.resolvePendingLocked()
	return nil
}

// CastVote records a vote and resolves the ballot once every living connected
// player has voted
func (s *RoomSession) CastVote(nickname, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	game := s.room.Game
	if game == nil {
		return domain.ErrGameNotFound
	}
	if err := game.CastVote(nickname, target); err != nil {
		return err
	}

	s.resolvePendingLocked()
	return nil
}

// CancelTimers invalidates any scheduled countdown or day timer
func (s *RoomSession) CancelTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimersLocked()
}

func (s *RoomSession) cancelTimersLocked() {
	s.timerGen++
}

// restartCountdownLocked announces a fresh countdown and schedules its ticks.
// Any previous countdown is invalidated; the count always restarts from the
// top when the roster changes.
func (s *RoomSession) restartCountdownLocked() {
	s.timerGen++
	gen := s.timerGen
	ticks := s.registry.opts.CountdownTicks

	s.broadcastLocked(domain.NewGameStartingMessage(ticks))
	go s.runCountdown(gen, ticks)
}

func (s *RoomSession) runCountdown(gen, remaining int) {
	ticker := time.NewTicker(s.registry.opts.TickInterval)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		if s.timerGen != gen {
			s.mu.Unlock()
			return
		}

		remaining--
		if remaining > 0 {
			s.broadcastLocked(domain.NewGameStartingMessage(remaining))
			s.mu.Unlock()
			continue
		}

		s.timerGen++
		started := s.startGameLocked()
		s.mu.Unlock()

		if started {
			s.registry.broadcastRoomsList()
		}
		return
	}
}

// startGameLocked flips the room to playing, mirrors the start and announces
// the fresh game state. The caller handles the rooms-list broadcast once the
// lock is released.
func (s *RoomSession) startGameLocked() bool {
	game, err := s.room.Start(s.registry.gameRNG())
	if err != nil {
		s.registry.logger.Warn("game start failed", "roomID", s.room.ID, "error", err)
		return false
	}

	roomID := s.room.ID
	s.registry.mirror("startGame", func(ctx context.Context) error {
		return s.registry.store.StartGame(ctx, roomID, game)
	})

	s.registry.logger.Info("game started",
		"roomID", roomID, "gameID", game.ID, "players", len(game.Players))

	s.broadcastLocked(domain.NewGameStartedMessage(game))
	return true
}

// startDayTimerLocked schedules the end of the current day discussion window.
// The first night has no day window, so this only arms when the game reaches
// the day phase; it is called after every resolution and no-ops otherwise.
func (s *RoomSession) startDayTimerLocked() {
	game := s.room.Game
	if game == nil || game.Phase != domain.PhaseDay {
		return
	}

	s.timerGen++
	gen := s.timerGen

	go func() {
		time.Sleep(s.registry.opts.DayDuration)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.timerGen != gen {
			return
		}

		game := s.room.Game
		if game == nil || game.StartVoting() != nil {
			return
		}

		s.broadcastLocked(domain.NewPhaseChangedMessage(game))
		// Every living voter may already be disconnected
		s.resolvePendingLocked()
	}()
}

// resolvePendingLocked runs whichever resolution the game is ready for and
// broadcasts the outcome. Resolution itself is idempotent; this may be called
// after every event that could complete a phase.
func (s *RoomSession) resolvePendingLocked() {
	game := s.room.Game
	if game == nil {
		return
	}

	if record, ok := game.ResolveNight(); ok {
		s.broadcastLocked(domain.NewNightResolvedMessage(record, game))
		if game.Ended() {
			s.finishGameLocked(game)
			return
		}
		s.broadcastLocked(domain.NewPhaseChangedMessage(game))
		s.startDayTimerLocked()
		return
	}

	if record, ok := game.ResolveVoting(); ok {
		s.broadcastLocked(domain.NewVoteResolvedMessage(record, game))
		if game.Ended() {
			s.finishGameLocked(game)
			return
		}
		s.broadcastLocked(domain.NewPhaseChangedMessage(game))
	}
}

// finishGameLocked announces the winner and mirrors the result plus each
// player's lifetime stats
func (s *RoomSession) finishGameLocked(game *domain.Game) {
	s.cancelTimersLocked()

	winner := game.Winner
	s.registry.logger.Info("game ended",
		"roomID", s.room.ID, "gameID", game.ID, "winner", winner)

	s.broadcastLocked(domain.NewGameEndedMessage(winner))

	gameID := game.ID
	s.registry.mirror("endGame", func(ctx context.Context) error {
		return s.registry.store.EndGame(ctx, gameID, winner)
	})

	for _, p := range game.Players {
		nickname, won := p.Nickname, playerWon(p.Role, winner)
		s.registry.mirror("updateUserStats", func(ctx context.Context) error {
			return s.registry.store.UpdateUserStats(ctx, nickname, won)
		})
	}
}

// broadcastLocked sends a message to every roster member with a live
// connection
func (s *RoomSession) broadcastLocked(message interface{}) {
	for _, p := range s.room.Players {
		s.registry.unicast(p.Nickname, message)
	}
}

// playerWon maps a role to whether the given winner counts as its victory.
// Lovers win with nobody; their goal is surviving together, not a faction win.
func playerWon(role domain.Role, winner domain.Winner) bool {
	switch role {
	case domain.RoleMafia:
		return winner == domain.WinnerMafia
	case domain.RoleManiac:
		return winner == domain.WinnerManiac
	case domain.RoleCivilian, domain.RoleSheriff, domain.RoleDoctor:
		return winner == domain.WinnerCivilians
	default:
		return false
	}
}
