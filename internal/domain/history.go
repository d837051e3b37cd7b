package domain

// Record is one resolved round appended to a game's history. Night rounds fill
// Killed/Protected/Checked/Actions; ballots fill Votes/Tally/Eliminated.
type Record struct {
	Phase      Phase                  `json:"phase"`
	Day        int                    `json:"day"`
	Killed     []string               `json:"killed,omitempty"`
	Protected  []string               `json:"protected,omitempty"`
	Checked    []SheriffCheck         `json:"checked,omitempty"`
	Actions    map[string]NightAction `json:"actions,omitempty"`
	Votes      map[string]string      `json:"votes,omitempty"`
	Tally      map[string]int         `json:"voteCount,omitempty"`
	Eliminated string                 `json:"eliminated,omitempty"`
}
