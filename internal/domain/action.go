package domain

// ActionType represents the kind of night action a player submits
type ActionType string

const (
	ActionKill  ActionType = "kill"  // Mafia and maniac
	ActionHeal  ActionType = "heal"  // Doctor
	ActionCheck ActionType = "check" // Sheriff
)

// NightAction is one player's submitted action for the current night
type NightAction struct {
	Type   ActionType `json:"type"`
	Target string     `json:"target"`
}

// SheriffCheck is the outcome of a sheriff investigating a target
type SheriffCheck struct {
	Sheriff string `json:"sheriff"`
	Target  string `json:"target"`
	Result  string `json:"result"` // "mafia" or "innocent"
}
