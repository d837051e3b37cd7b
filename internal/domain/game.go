package domain

import (
	"math/rand"
	"time"
)

// Game is one running session with a fixed roster and role assignment.
// It is a pure state machine: callers are responsible for serializing access
// (the session wraps every call in its lock) and for driving the day phase,
// which accepts no player actions of its own.
type Game struct {
	ID        string                 `json:"id"`
	Players   []*Player              `json:"players"`
	Phase     Phase                  `json:"phase"`
	Day       int                    `json:"day"`
	Alive     []string               `json:"alive"`
	Dead      []string               `json:"dead"`
	Actions   map[string]NightAction `json:"actions"`
	Votes     map[string]string      `json:"votes"`
	History   []Record               `json:"history"`
	Winner    Winner                 `json:"winner,omitempty"`
	StartedAt time.Time              `json:"startTime"`

	voteOrder    []string        // ballot cast order, first-to-max tie-break
	disconnected map[string]bool // forfeited from trigger checks, still alive
}

// NewGame distributes roles over the given players and opens the first night.
// Membership is fixed from here on: no late joins, no substitutions.
func NewGame(players []*Player, enabled []Role, rng *rand.Rand) *Game {
	assigned := DistributeRoles(players, enabled, rng)

	alive := make([]string, 0, len(assigned))
	for _, p := range assigned {
		alive = append(alive, p.Nickname)
	}

	return &Game{
		ID:           newID("game"),
		Players:      assigned,
		Phase:        PhaseNight,
		Day:          1,
		Alive:        alive,
		Dead:         make([]string, 0),
		Actions:      make(map[string]NightAction),
		Votes:        make(map[string]string),
		History:      make([]Record, 0),
		StartedAt:    time.Now(),
		disconnected: make(map[string]bool),
	}
}

// Player returns a player by nickname
func (g *Game) Player(nickname string) (*Player, bool) {
	for _, p := range g.Players {
		if p.Nickname == nickname {
			return p, true
		}
	}
	return nil, false
}

// PlayerRole returns the role assigned to a player, or "" if unknown
func (g *Game) PlayerRole(nickname string) Role {
	if p, ok := g.Player(nickname); ok {
		return p.Role
	}
	return ""
}

// SetPlayerConnected marks a player as connected or disconnected. Alive status
// is untouched; a disconnected player is only excluded from the "everyone
// acted" trigger checks so their absence cannot stall a phase. The caller must
// re-run the matching resolution after marking a disconnect.
func (g *Game) SetPlayerConnected(nickname string, connected bool) {
	if _, ok := g.Player(nickname); !ok {
		return
	}
	if connected {
		delete(g.disconnected, nickname)
	} else {
		g.disconnected[nickname] = true
	}
}

// SubmitNightAction records one action for a living active-role player.
// It does not resolve the night; call ResolveNight once it reports ready.
func (g *Game) SubmitNightAction(nickname string, action NightAction) error {
	if g.Phase != PhaseNight {
		return ErrInvalidPhase
	}

	player, ok := g.Player(nickname)
	if !ok {
		return ErrPlayerNotFound
	}
	if !player.Alive {
		return ErrPlayerDead
	}
	if !player.HasActiveRole() {
		return ErrNotActiveRole
	}

	g.Actions[nickname] = action
	return nil
}

// NightReady reports whether every living, connected active-role player has a
// recorded action for the current night.
func (g *Game) NightReady() bool {
	if g.Phase != PhaseNight {
		return false
	}
	for _, p := range g.Players {
		if !p.Alive || !p.HasActiveRole() || g.disconnected[p.Nickname] {
			continue
		}
		if _, ok := g.Actions[p.Nickname]; !ok {
			return false
		}
	}
	return true
}

// ResolveNight resolves all pending night actions exactly once: heals are
// collected first, kills are applied excluding healed targets, sheriff checks
// are answered, and the round is appended to history. The pending-action map
// is cleared as part of the same step, so a second call observes "not ready"
// and no-ops. Returns the history record and whether a resolution happened.
func (g *Game) ResolveNight() (*Record, bool) {
	if g.Phase != PhaseNight || !g.NightReady() {
		return nil, false
	}

	protected := make([]string, 0)
	for nickname, action := range g.Actions {
		if g.PlayerRole(nickname) == RoleDoctor && action.Type == ActionHeal {
			protected = append(protected, action.Target)
		}
	}

	killed := make([]string, 0)
	for _, p := range g.Players {
		action, ok := g.Actions[p.Nickname]
		if !ok || action.Type != ActionKill {
			continue
		}
		if p.Role != RoleMafia && p.Role != RoleManiac {
			continue
		}
		if containsString(protected, action.Target) || containsString(killed, action.Target) {
			continue
		}
		killed = append(killed, action.Target)
	}

	checked := make([]SheriffCheck, 0)
	for _, p := range g.Players {
		action, ok := g.Actions[p.Nickname]
		if !ok || p.Role != RoleSheriff || action.Type != ActionCheck {
			continue
		}
		result := "innocent"
		if g.PlayerRole(action.Target) == RoleMafia {
			result = "mafia"
		}
		checked = append(checked, SheriffCheck{
			Sheriff: p.Nickname,
			Target:  action.Target,
			Result:  result,
		})
	}

	for _, nickname := range killed {
		g.kill(nickname)
	}

	record := Record{
		Phase:     PhaseNight,
		Day:       g.Day,
		Killed:    killed,
		Protected: protected,
		Checked:   checked,
		Actions:   g.Actions,
	}
	g.History = append(g.History, record)
	g.Actions = make(map[string]NightAction)

	if !g.checkWinConditions() {
		g.Phase = PhaseDay
	}

	return &record, true
}

// StartVoting moves the game from the day discussion window into voting.
// The ballot starts clean: vote map, cast order and per-player counts reset.
func (g *Game) StartVoting() error {
	if !g.Phase.CanTransitionTo(PhaseVoting) {
		return ErrInvalidTransition
	}

	g.Phase = PhaseVoting
	g.Votes = make(map[string]string)
	g.voteOrder = nil
	for _, p := range g.Players {
		p.Votes = 0
	}
	return nil
}

// CastVote records one target nomination for a living player. Re-voting
// replaces the previous nomination but keeps the original cast position.
func (g *Game) CastVote(voter, target string) error {
	if g.Phase != PhaseVoting {
		return ErrInvalidPhase
	}

	player, ok := g.Player(voter)
	if !ok {
		return ErrPlayerNotFound
	}
	if !player.Alive {
		return ErrPlayerDead
	}

	if _, voted := g.Votes[voter]; !voted {
		g.voteOrder = append(g.voteOrder, voter)
	}
	g.Votes[voter] = target
	return nil
}

// VotingReady reports whether every living, connected player has voted
func (g *Game) VotingReady() bool {
	if g.Phase != PhaseVoting {
		return false
	}
	required := 0
	for _, p := range g.Players {
		if p.Alive && !g.disconnected[p.Nickname] {
			required++
		}
	}
	return len(g.Votes) >= required
}

// ResolveVoting tallies the ballot exactly once and eliminates the plurality
// target. Ties resolve to whichever target's count first reached the current
// maximum in cast order; later equal counts do not displace it. The pending
// vote map is cleared in the same step, so a second call no-ops.
func (g *Game) ResolveVoting() (*Record, bool) {
	if g.Phase != PhaseVoting || !g.VotingReady() {
		return nil, false
	}

	tally := make(map[string]int)
	maxVotes := 0
	eliminated := ""
	for _, voter := range g.voteOrder {
		target := g.Votes[voter]
		tally[target]++
		if p, ok := g.Player(target); ok {
			p.Votes = tally[target]
		}
		if tally[target] > maxVotes {
			maxVotes = tally[target]
			eliminated = target
		}
	}

	if eliminated != "" {
		g.kill(eliminated)
	}

	record := Record{
		Phase:      PhaseVoting,
		Day:        g.Day,
		Votes:      g.Votes,
		Tally:      tally,
		Eliminated: eliminated,
	}
	g.History = append(g.History, record)
	g.Votes = make(map[string]string)
	g.voteOrder = nil

	if !g.checkWinConditions() {
		g.Day++
		g.Phase = PhaseNight
	}

	return &record, true
}

// Ended returns true once the game reached its terminal phase
func (g *Game) Ended() bool {
	return g.Phase == PhaseEnded
}

// kill moves a player from the alive set to the dead set
func (g *Game) kill(nickname string) {
	player, ok := g.Player(nickname)
	if !ok || !player.Alive {
		return
	}

	player.Alive = false
	remaining := make([]string, 0, len(g.Alive))
	for _, n := range g.Alive {
		if n != nickname {
			remaining = append(remaining, n)
		}
	}
	g.Alive = remaining
	g.Dead = append(g.Dead, nickname)
}

// checkWinConditions evaluates the win rules over the living players and, on a
// win, records the winner and moves the game to its terminal phase.
func (g *Game) checkWinConditions() bool {
	var aliveMafia, aliveCivilianSide, aliveManiac, aliveTotal int
	for _, p := range g.Players {
		if !p.Alive {
			continue
		}
		aliveTotal++
		switch p.Role {
		case RoleMafia:
			aliveMafia++
		case RoleCivilian, RoleSheriff, RoleDoctor:
			aliveCivilianSide++
		case RoleManiac:
			aliveManiac++
		}
	}

	switch {
	case aliveManiac > 0 && aliveTotal == 1:
		g.Winner = WinnerManiac
	case aliveMafia >= aliveCivilianSide && aliveManiac == 0:
		g.Winner = WinnerMafia
	case aliveMafia == 0 && aliveManiac == 0:
		g.Winner = WinnerCivilians
	default:
		return false
	}

	g.Phase = PhaseEnded
	return true
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
