package poll

import "strings"

// Type selects how votes are cast and counted.
type Type int

const (
	TypeSingle Type = iota // one option per voter
	TypeRanked             // ordered preferences, resolved by instant runoff
)

func (t Type) String() string {
	switch t {
	case TypeSingle:
		return "SINGLE"
	case TypeRanked:
		return "RANKED"
	default:
		return "UNKNOWN"
	}
}

// ParseType converts a persisted or user-supplied type name. Unknown names
// fall back to TypeSingle with ok=false.
func ParseType(s string) (Type, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SINGLE":
		return TypeSingle, true
	case "RANKED":
		return TypeRanked, true
	default:
		return TypeSingle, false
	}
}

// Status is the lifecycle phase observed at a given instant.
type Status int

const (
	StatusPending Status = iota
	StatusOpen
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}
