package domain

// Role represents a player's hidden role in a game
type Role string

const (
	RoleMafia    Role = "mafia"
	RoleSheriff  Role = "sheriff"
	RoleDoctor   Role = "doctor"
	RoleManiac   Role = "maniac"
	RoleLover    Role = "lover"
	RoleCivilian Role = "civilian"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsActive returns true if this role must submit a night action
func (r Role) IsActive() bool {
	switch r {
	case RoleMafia, RoleSheriff, RoleDoctor, RoleManiac:
		return true
	}
	return false
}

// OptionalRoles are the roles a room may enable when it is created.
// Mafia, sheriff and civilians are always in play.
var OptionalRoles = []Role{RoleDoctor, RoleManiac, RoleLover}

// ContainsRole reports whether the given role set includes a role
func ContainsRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Winner identifies the winning side of a finished game
type Winner string

const (
	WinnerMafia     Winner = "mafia"
	WinnerCivilians Winner = "civilians"
	WinnerManiac    Winner = "maniac"
)
