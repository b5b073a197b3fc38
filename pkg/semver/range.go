// SPDX-License-Identifier: MPL-2.0

package semver

import (
	"fmt"
	"strings"
)

// Range is a parsed NuGet version range.
//
// The grammar covers the forms a dependency declaration may use:
//
//	1.2.3            minimum (>= 1.2.3)
//	[1.2.3]          exact
//	[1.0.0,2.0.0)    interval with inclusive/exclusive bounds
//	(,2.0.0]         lower side unbounded
//	[1.0.0,)         upper side unbounded
//	1.*              floating (highest matching 1.x)
type Range struct {
	// Lower is the lower bound; nil means unbounded.
	Lower *Version
	// LowerInclusive reports whether the lower bound itself satisfies the range.
	LowerInclusive bool
	// Upper is the upper bound; nil means unbounded.
	Upper *Version
	// UpperInclusive reports whether the upper bound itself satisfies the range.
	UpperInclusive bool
	// Floating marks wildcard ranges like "1.*", which prefer the highest
	// matching version instead of the lowest.
	Floating bool

	original string
}

// ParseRange parses a NuGet range expression.
func ParseRange(s string) (Range, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Range{}, &ParseError{Input: s, Msg: "empty range"}
	}
	if len(trimmed) > MaxInputLength {
		return Range{}, &ParseError{Input: s, Msg: fmt.Sprintf("range longer than %d characters", MaxInputLength)}
	}

	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "(") {
		return parseInterval(s, trimmed)
	}
	if strings.ContainsAny(trimmed, "]),") {
		return Range{}, &ParseError{Input: s, Msg: "interval ranges must start with '[' or '('"}
	}
	if strings.Contains(trimmed, "*") {
		return parseFloating(s, trimmed)
	}

	// A bare version is a minimum bound.
	lower, err := Parse(trimmed)
	if err != nil {
		return Range{}, &ParseError{Input: s, Msg: "invalid minimum version: " + err.(*ParseError).Msg}
	}
	return Range{Lower: &lower, LowerInclusive: true, original: trimmed}, nil
}

// MustParseRange is ParseRange for static range literals; it panics on error.
func MustParseRange(s string) Range {
	r, err := ParseRange(s)
	if err != nil {
		panic(err)
	}
	return r
}

func parseInterval(input, trimmed string) (Range, error) {
	lowerInclusive := trimmed[0] == '['
	last := trimmed[len(trimmed)-1]
	if last != ']' && last != ')' {
		return Range{}, &ParseError{Input: input, Offset: len(trimmed) - 1, Msg: "interval must end with ']' or ')'"}
	}
	upperInclusive := last == ']'
	inner := trimmed[1 : len(trimmed)-1]

	parts := strings.Split(inner, ",")
	switch len(parts) {
	case 1:
		// Exact pin: "[1.2.3]".
		if !lowerInclusive || !upperInclusive {
			return Range{}, &ParseError{Input: input, Msg: "exact ranges require '[' and ']'"}
		}
		exact, err := Parse(parts[0])
		if err != nil {
			return Range{}, &ParseError{Input: input, Msg: "invalid exact version: " + err.(*ParseError).Msg}
		}
		return Range{
			Lower: &exact, LowerInclusive: true,
			Upper: &exact, UpperInclusive: true,
			original: trimmed,
		}, nil
	case 2:
		r := Range{LowerInclusive: lowerInclusive, UpperInclusive: upperInclusive, original: trimmed}
		if lowerText := strings.TrimSpace(parts[0]); lowerText != "" {
			lower, err := Parse(lowerText)
			if err != nil {
				return Range{}, &ParseError{Input: input, Msg: "invalid lower bound: " + err.(*ParseError).Msg}
			}
			r.Lower = &lower
		} else {
			r.LowerInclusive = false
		}
		if upperText := strings.TrimSpace(parts[1]); upperText != "" {
			upper, err := Parse(upperText)
			if err != nil {
				return Range{}, &ParseError{Input: input, Msg: "invalid upper bound: " + err.(*ParseError).Msg}
			}
			r.Upper = &upper
		} else {
			r.UpperInclusive = false
		}
		if r.Lower == nil && r.Upper == nil {
			return Range{}, &ParseError{Input: input, Msg: "interval needs at least one bound"}
		}
		if err := checkNonEmpty(input, r); err != nil {
			return Range{}, err
		}
		return r, nil
	default:
		return Range{}, &ParseError{Input: input, Msg: "interval must have exactly one comma"}
	}
}

// checkNonEmpty rejects intervals that no version can satisfy.
func checkNonEmpty(input string, r Range) error {
	if r.Lower == nil || r.Upper == nil {
		return nil
	}
	switch c := r.Lower.Compare(*r.Upper); {
	case c > 0:
		return &ParseError{Input: input, Msg: "empty range: lower bound exceeds upper bound"}
	case c == 0 && !(r.LowerInclusive && r.UpperInclusive):
		return &ParseError{Input: input, Msg: "empty range: equal bounds with an exclusive endpoint"}
	}
	return nil
}

// parseFloating handles wildcard ranges: "*", "1.*", "1.2.*".
func parseFloating(input, trimmed string) (Range, error) {
	if trimmed == "*" {
		return Range{Floating: true, original: trimmed}, nil
	}
	prefix, ok := strings.CutSuffix(trimmed, ".*")
	if !ok || strings.Contains(prefix, "*") {
		return Range{}, &ParseError{Input: input, Msg: "floating ranges must end with '.*'"}
	}
	lower, err := Parse(prefix)
	if err != nil {
		return Range{}, &ParseError{Input: input, Msg: "invalid floating prefix: " + err.(*ParseError).Msg}
	}
	if lower.Prerelease != "" || lower.Build != "" {
		return Range{}, &ParseError{Input: input, Msg: "floating prefix must be numeric components only"}
	}

	upper := lower
	switch strings.Count(prefix, ".") {
	case 0: // "1.*" floats the minor component
		upper.Major++
		upper.Minor, upper.Patch, upper.Revision = 0, 0, 0
	case 1: // "1.2.*" floats the patch component
		upper.Minor++
		upper.Patch, upper.Revision = 0, 0
	case 2: // "1.2.3.*" floats the revision component
		upper.Patch++
		upper.Revision = 0
	default:
		return Range{}, &ParseError{Input: input, Msg: "floating prefix has too many components"}
	}
	return Range{
		Lower: &lower, LowerInclusive: true,
		Upper: &upper, UpperInclusive: false,
		Floating: true,
		original: trimmed,
	}, nil
}

// Satisfies reports whether the version is inside the range. Pre-release
// versions only satisfy ranges whose bounds mention a pre-release.
func (r Range) Satisfies(v Version) bool {
	if v.IsPrerelease() && !r.HasPrerelease() {
		return false
	}
	if r.Lower != nil {
		if c := r.Lower.Compare(v); c > 0 || (c == 0 && !r.LowerInclusive) {
			return false
		}
	}
	if r.Upper != nil {
		if c := v.Compare(*r.Upper); c > 0 || (c == 0 && !r.UpperInclusive) {
			return false
		}
	}
	return true
}

// HasPrerelease reports whether either bound carries pre-release identifiers.
func (r Range) HasPrerelease() bool {
	return (r.Lower != nil && r.Lower.IsPrerelease()) || (r.Upper != nil && r.Upper.IsPrerelease())
}

// IsExact reports whether the range pins a single version.
func (r Range) IsExact() bool {
	return r.Lower != nil && r.Upper != nil &&
		r.LowerInclusive && r.UpperInclusive && r.Lower.Equal(*r.Upper)
}

// String renders the range. The original spelling is preserved when the
// range came from ParseRange.
func (r Range) String() string {
	if r.original != "" {
		return r.original
	}
	if r.Lower == nil && r.Upper == nil {
		return "*"
	}
	if r.IsExact() {
		return "[" + r.Lower.String() + "]"
	}
	if r.Upper == nil && r.LowerInclusive && !r.Floating {
		return r.Lower.String()
	}
	var sb strings.Builder
	if r.LowerInclusive {
		sb.WriteByte('[')
	} else {
		sb.WriteByte('(')
	}
	if r.Lower != nil {
		sb.WriteString(r.Lower.String())
	}
	sb.WriteByte(',')
	if r.Upper != nil {
		sb.WriteString(r.Upper.String())
	}
	if r.UpperInclusive {
		sb.WriteByte(']')
	} else {
		sb.WriteByte(')')
	}
	return sb.String()
}

// MarshalText implements encoding.TextMarshaler.
func (r Range) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Range) UnmarshalText(text []byte) error {
	parsed, err := ParseRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
