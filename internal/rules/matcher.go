package rules

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

// MatcherKind tags the variant held by a Matcher
type MatcherKind int

const (
	// KindLiteral matches by exact string equality.
	KindLiteral MatcherKind = iota
	// KindPattern matches by case-insensitive regular expression search.
	KindPattern
)

// String returns the name of the kind as used in rules files.
func (k MatcherKind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Matcher is either a literal name or a compiled pattern.
// The zero value is a literal matching the empty string.
type Matcher struct {
	kind   MatcherKind
	source string
	re     *regexp.Regexp
}

// Literal returns a matcher that matches exactly s.
func Literal(s string) Matcher {
	return Matcher{kind: KindLiteral, source: s}
}

// Pattern compiles expr into a case-insensitive matcher.
// Matching is a search: expr may match anywhere in the value unless anchored.
func Pattern(expr string) (Matcher, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Matcher{}, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return Matcher{kind: KindPattern, source: expr, re: re}, nil
}

// MustPattern is like Pattern but panics on an invalid expression.
// It is meant for the built-in tables.
func MustPattern(expr string) Matcher {
	m, err := Pattern(expr)
	if err != nil {
		panic(err)
	}
	return m
}

// Kind returns the variant of the matcher.
func (m Matcher) Kind() MatcherKind {
	return m.kind
}

// Match reports whether value is matched.
func (m Matcher) Match(value string) bool {
	if m.kind == KindPattern {
		return m.re.MatchString(value)
	}
	return m.source == value
}

// String returns the literal text or the pattern source.
func (m Matcher) String() string {
	if m.kind == KindPattern {
		return "/" + m.source + "/i"
	}
	return m.source
}

// MatchAny reports whether any matcher in ms matches value.
func MatchAny(ms []Matcher, value string) bool {
	for _, m := range ms {
		if m.Match(value) {
			return true
		}
	}
	return false
}

// UnmarshalYAML accepts a bare scalar (literal) or a single-key mapping
// with either "literal" or "pattern".
func (m *Matcher) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*m = Literal(node.Value)
		return nil
	case yaml.MappingNode:
		var def struct {
			Literal *string `yaml:"literal"`
			Pattern *string `yaml:"pattern"`
		}
		if err := node.Decode(&def); err != nil {
			return err
		}
		switch {
		case def.Literal != nil && def.Pattern != nil:
			return fmt.Errorf("line %d: matcher sets both literal and pattern", node.Line)
		case def.Literal != nil:
			*m = Literal(*def.Literal)
			return nil
		case def.Pattern != nil:
			pm, err := Pattern(*def.Pattern)
			if err != nil {
				return fmt.Errorf("line %d: %w", node.Line, err)
			}
			*m = pm
			return nil
		default:
			return fmt.Errorf("line %d: matcher needs a literal or pattern key", node.Line)
		}
	default:
		return fmt.Errorf("line %d: matcher must be a string or a mapping", node.Line)
	}
}
