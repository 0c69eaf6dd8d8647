package rank

import "strings"

// Rank levels, lowest to highest. Authorization checks compare levels
// numerically, so the order here is load-bearing.
const (
	Member = iota
	Midcomm
	Hicomm
	Director
	Owner
)

// Order lists the canonical rank names by level.
var Order = []string{"member", "midcomm", "hicomm", "director", "owner"}

var names = map[int]string{
	Member:   "Member",
	Midcomm:  "Midcomm",
	Hicomm:   "Hicomm",
	Director: "Director",
	Owner:    "Owner",
}

// Promotable lists the ranks a member can be promoted to. Owner is absent:
// it is only reachable through an ownership transfer.
var Promotable = []string{"director", "hicomm", "midcomm", "member"}

// LevelOf maps a rank name to its level, case-insensitively. Unknown or
// empty names map to Member, so missing rank data degrades to the lowest
// privilege rather than a higher one.
func LevelOf(name string) int {
	for i, r := range Order {
		if r == strings.ToLower(name) {
			return i
		}
	}
	return Member
}

// NameOf returns the canonical display name for a level. Levels outside
// 0..4 return "Owner", matching the long-standing lookup-fallback behavior
// that callers and stored data now depend on.
func NameOf(level int) string {
	if n, ok := names[level]; ok {
		return n
	}
	return "Owner"
}

// Valid reports whether name is one of the five canonical ranks.
func Valid(name string) bool {
	lower := strings.ToLower(name)
	for _, r := range Order {
		if r == lower {
			return true
		}
	}
	return false
}

// IsPromotable reports whether name is a legal promotion destination.
func IsPromotable(name string) bool {
	lower := strings.ToLower(name)
	for _, r := range Promotable {
		if r == lower {
			return true
		}
	}
	return false
}

// CanStrike reports whether a member at strikerLevel may strike a member at
// targetLevel. Equal ranks can never strike each other.
func CanStrike(strikerLevel, targetLevel int) bool {
	return strikerLevel > targetLevel
}
