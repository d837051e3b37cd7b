package domain

// Player represents a participant in a room and, once the game starts, in the
// game itself. The same record is shared by reference between the two; it is
// never copied divergently.
type Player struct {
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar,omitempty"`
	Role     Role   `json:"role,omitempty"`
	Alive    bool   `json:"isAlive"`
	Votes    int    `json:"votes"`
}

// NewPlayer creates a new player with the given nickname and avatar
func NewPlayer(nickname, avatar string) *Player {
	return &Player{
		Nickname: nickname,
		Avatar:   avatar,
	}
}

// HasActiveRole returns true if the player must submit a night action
func (p *Player) HasActiveRole() bool {
	return p.Role.IsActive()
}
