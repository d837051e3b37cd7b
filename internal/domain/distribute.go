package domain

import "math/rand"

// RoleCounts is the role multiset for a given player count and enabled-role set
type RoleCounts struct {
	Mafia    int `json:"mafia"`
	Sheriff  int `json:"sheriff"`
	Doctor   int `json:"doctor"`
	Maniac   int `json:"maniac"`
	Lover    int `json:"lover"`
	Civilian int `json:"civilian"`
}

// Total returns the size of the multiset
func (c RoleCounts) Total() int {
	return c.Mafia + c.Sheriff + c.Doctor + c.Maniac + c.Lover + c.Civilian
}

// CalculateRoleCounts determines how many of each role a game gets.
// Mafia is capped so it can never be a majority-forcing block relative to
// the special and civilian roles.
func CalculateRoleCounts(playerCount int, enabled []Role) RoleCounts {
	var counts RoleCounts

	if playerCount >= 4 {
		counts.Mafia = 1
		counts.Sheriff = 1
	}
	if playerCount >= 6 {
		counts.Mafia = 2
	}
	if playerCount >= 8 && ContainsRole(enabled, RoleDoctor) {
		counts.Doctor = 1
	}
	if playerCount >= 10 {
		counts.Mafia = 3
	}
	if playerCount >= 12 && ContainsRole(enabled, RoleManiac) {
		counts.Maniac = 1
	}
	if playerCount >= 8 && ContainsRole(enabled, RoleLover) {
		counts.Lover = 2
	}

	specials := counts.Sheriff + counts.Doctor + counts.Maniac + counts.Lover
	maxMafia := (playerCount - specials) / 3
	if counts.Mafia > maxMafia {
		counts.Mafia = maxMafia
	}

	counts.Civilian = playerCount - counts.Mafia - counts.Sheriff - counts.Doctor - counts.Maniac - counts.Lover

	return counts
}

// DistributeRoles assigns every player exactly one role and returns the
// players in a fresh, independently shuffled order. The role multiset and the
// player order are each permuted uniformly with the provided source, so the
// assignment is reproducible under a fixed seed.
func DistributeRoles(players []*Player, enabled []Role, rng *rand.Rand) []*Player {
	counts := CalculateRoleCounts(len(players), enabled)

	roles := make([]Role, 0, len(players))
	for i := 0; i < counts.Mafia; i++ {
		roles = append(roles, RoleMafia)
	}
	for i := 0; i < counts.Sheriff; i++ {
		roles = append(roles, RoleSheriff)
	}
	for i := 0; i < counts.Doctor; i++ {
		roles = append(roles, RoleDoctor)
	}
	for i := 0; i < counts.Maniac; i++ {
		roles = append(roles, RoleManiac)
	}
	for i := 0; i < counts.Lover; i++ {
		roles = append(roles, RoleLover)
	}
	for len(roles) < len(players) {
		roles = append(roles, RoleCivilian)
	}

	rng.Shuffle(len(roles), func(i, j int) {
		roles[i], roles[j] = roles[j], roles[i]
	})

	shuffled := make([]*Player, len(players))
	copy(shuffled, players)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for i, p := range shuffled {
		p.Role = roles[i]
		p.Alive = true
		p.Votes = 0
	}

	return shuffled
}
