package selection

import (
	"fmt"
	"strings"
)

// Mode controls how a new selection combines with the current one.
type Mode int

const (
	Replace Mode = iota
	Add
	Subtract
	Intersect
)

var modeNames = [...]string{"replace", "add", "subtract", "intersect"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode accepts the lowercase mode names. Empty means replace.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Replace, nil
	}
	for i, name := range modeNames {
		if s == name {
			return Mode(i), nil
		}
	}
	return Replace, fmt.Errorf("invalid selection mode %q: want replace, add, subtract or intersect", s)
}

// Apply combines next into current according to m, in place.
func (m Mode) Apply(current, next *Set) {
	switch m {
	case Replace:
		current.Clear()
		current.Unite(next)
	case Add:
		current.Unite(next)
	case Subtract:
		current.SubtractFrom(next)
	case Intersect:
		current.Intersect(next)
	}
}
