package directory

import (
	"fmt"
	"strings"
)

// AccessLevel is a GitLab permission ordinal. Higher means more privilege.
type AccessLevel int

const (
	Guest      AccessLevel = 10
	Reporter   AccessLevel = 20
	Developer  AccessLevel = 30
	Maintainer AccessLevel = 40
	Owner      AccessLevel = 50
)

var accessLevels = map[string]AccessLevel{
	"guest":      Guest,
	"reporter":   Reporter,
	"developer":  Developer,
	"maintainer": Maintainer,
	"master":     Maintainer, // pre-11.0 name, still common in CSV files
	"owner":      Owner,
}

// ParseAccessLevel maps a level name from a CSV record to its ordinal.
// Matching is case-insensitive.
func ParseAccessLevel(name string) (AccessLevel, error) {
	level, ok := accessLevels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown access level %q", name)
	}
	return level, nil
}

func (l AccessLevel) String() string {
	switch l {
	case Guest:
		return "guest"
	case Reporter:
		return "reporter"
	case Developer:
		return "developer"
	case Maintainer:
		return "maintainer"
	case Owner:
		return "owner"
	}
	return fmt.Sprintf("access level %d", int(l))
}
