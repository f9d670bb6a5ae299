package models

import (
	"regexp"
	"strings"
)

// Role identifies a member's position in a user's tree.
// Values outside the core set are extended-relative roles.
type Role string

const (
	RoleOwner               Role = "owner"
	RoleMother              Role = "mother"
	RoleFather              Role = "father"
	RoleMaternalGrandmother Role = "maternal_grandmother"
	RoleMaternalGrandfather Role = "maternal_grandfather"
	RolePaternalGrandmother Role = "paternal_grandmother"
	RolePaternalGrandfather Role = "paternal_grandfather"
)

var CoreRoles = []Role{
	RoleOwner,
	RoleMother,
	RoleFather,
	RoleMaternalGrandmother,
	RoleMaternalGrandfather,
	RolePaternalGrandmother,
	RolePaternalGrandfather,
}

// reservedRoles collide with fixed route segments under /family-members.
var reservedRoles = map[Role]bool{
	"my":            true,
	"my-tree":       true,
	"my-tree-paged": true,
	"set-partner":   true,
	"clear-partner": true,
	"relationships": true,
}

var rolePattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// NormalizeRole lower-cases and trims a role. Lookups and writes both go through it.
func NormalizeRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

func (r Role) IsCore() bool {
	for _, c := range CoreRoles {
		if r == c {
			return true
		}
	}
	return false
}

// Valid reports whether a normalized role may be stored.
func (r Role) Valid() bool {
	return rolePattern.MatchString(string(r)) && !reservedRoles[r]
}

func (r Role) String() string { return string(r) }
