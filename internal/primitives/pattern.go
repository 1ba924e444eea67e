package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// Wildcard is the pattern that matches any event not consumed by a more
// specific transition.
const Wildcard = "*"

// PatternKind classifies an event pattern.
type PatternKind uint8

const (
	PatternExact PatternKind = iota
	PatternPrefix
	PatternAny
)

// Pattern is a parsed transition trigger. The zero value is invalid; use
// ParsePattern.
type Pattern struct {
	raw    string
	kind   PatternKind
	prefix string
}

// ParsePattern accepts an exact name ("door.open"), the wildcard "*", or a
// hierarchical prefix ("door.*") matching "door" and every "door.<...>".
func ParsePattern(s string) (Pattern, error) {
	if s == "" {
		return Pattern{}, errors.New("event pattern is empty")
	}
	if s == Wildcard {
		return Pattern{raw: s, kind: PatternAny}, nil
	}
	if prefix, ok := strings.CutSuffix(s, ".*"); ok {
		if strings.Contains(prefix, "*") {
			return Pattern{}, fmt.Errorf("event pattern %q: wildcard only allowed as trailing segment", s)
		}
		if err := validateSegments(prefix); err != nil {
			return Pattern{}, fmt.Errorf("event pattern %q: %w", s, err)
		}
		return Pattern{raw: s, kind: PatternPrefix, prefix: prefix}, nil
	}
	if strings.Contains(s, "*") {
		return Pattern{}, fmt.Errorf("event pattern %q: wildcard only allowed as trailing segment", s)
	}
	if err := validateSegments(s); err != nil {
		return Pattern{}, fmt.Errorf("event pattern %q: %w", s, err)
	}
	return Pattern{raw: s, kind: PatternExact}, nil
}

// MustParsePattern is ParsePattern for literals known to be valid.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Kind reports the pattern form.
func (p Pattern) Kind() PatternKind { return p.kind }

// IsWildcard reports whether p is "*".
func (p Pattern) IsWildcard() bool { return p.kind == PatternAny }

func (p Pattern) String() string { return p.raw }

// Match reports whether an event named name triggers p.
func (p Pattern) Match(name string) bool {
	switch p.kind {
	case PatternExact:
		return name == p.raw
	case PatternPrefix:
		return name == p.prefix || strings.HasPrefix(name, p.prefix+".")
	case PatternAny:
		return name != ""
	}
	return false
}
