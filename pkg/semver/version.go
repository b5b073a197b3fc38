// SPDX-License-Identifier: MPL-2.0

// Package semver implements NuGet-flavored semantic versions and version
// ranges.
//
// NuGet versions follow semver 2.0.0 precedence rules with one extension:
// an optional fourth "revision" component (e.g. "1.0.0.1") kept for
// compatibility with legacy four-part package versions. Ranges use the
// NuGet interval grammar ("[1.0.0,2.0.0)", "1.2.3", "[1.2.3]") plus
// floating ranges ("1.*").
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxInputLength bounds version and range inputs so a malicious manifest
// cannot feed the parser unbounded text.
const MaxInputLength = 256

// Version is a parsed NuGet semantic version.
type Version struct {
	Major      uint64
	Minor      uint64
	Patch      uint64
	Revision   uint64
	Prerelease string
	Build      string
}

// ParseError describes a failure to parse a version or range, pointing at
// the offending position in the input.
type ParseError struct {
	// Input is the full original input string.
	Input string
	// Offset is the byte offset where parsing failed (best effort).
	Offset int
	// Msg describes what was expected.
	Msg string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid version syntax %q at offset %d: %s", e.Input, e.Offset, e.Msg)
}

// versionRegex matches NuGet semantic version strings, including the
// optional fourth revision component and pre-release/build metadata.
var versionRegex = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?(?:-([0-9A-Za-z.-]+))?(?:\+([0-9A-Za-z.-]+))?$`)

// prereleaseIdentRegex validates a single dot-separated pre-release identifier.
var prereleaseIdentRegex = regexp.MustCompile(`^[0-9A-Za-z-]+$`)

// Parse parses a version string into a Version.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Version{}, &ParseError{Input: s, Msg: "empty version"}
	}
	if len(trimmed) > MaxInputLength {
		return Version{}, &ParseError{Input: s, Msg: fmt.Sprintf("version longer than %d characters", MaxInputLength)}
	}
	matches := versionRegex.FindStringSubmatch(trimmed)
	if matches == nil {
		return Version{}, &ParseError{Input: s, Offset: invalidOffset(trimmed), Msg: "expected major[.minor[.patch[.revision]]][-prerelease][+build]"}
	}

	var v Version
	var err error
	if v.Major, err = strconv.ParseUint(matches[1], 10, 64); err != nil {
		return Version{}, &ParseError{Input: s, Msg: "major component out of range"}
	}
	if matches[2] != "" {
		if v.Minor, err = strconv.ParseUint(matches[2], 10, 64); err != nil {
			return Version{}, &ParseError{Input: s, Msg: "minor component out of range"}
		}
	}
	if matches[3] != "" {
		if v.Patch, err = strconv.ParseUint(matches[3], 10, 64); err != nil {
			return Version{}, &ParseError{Input: s, Msg: "patch component out of range"}
		}
	}
	if matches[4] != "" {
		if v.Revision, err = strconv.ParseUint(matches[4], 10, 64); err != nil {
			return Version{}, &ParseError{Input: s, Msg: "revision component out of range"}
		}
	}
	if matches[5] != "" {
		for _, ident := range strings.Split(matches[5], ".") {
			if !prereleaseIdentRegex.MatchString(ident) {
				return Version{}, &ParseError{Input: s, Msg: fmt.Sprintf("invalid pre-release identifier %q", ident)}
			}
		}
		v.Prerelease = matches[5]
	}
	v.Build = matches[6]
	return v, nil
}

// MustParse is Parse for trusted inputs; it panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// invalidOffset finds the first byte that cannot appear in a version string,
// for error reporting only.
func invalidOffset(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c == '.', c == '-', c == '+':
		default:
			return i
		}
	}
	return 0
}

// String renders the normal form: pre-release and build metadata are kept,
// the revision component is printed only when non-zero.
func (v Version) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Revision != 0 {
		fmt.Fprintf(&sb, ".%d", v.Revision)
	}
	if v.Prerelease != "" {
		sb.WriteByte('-')
		sb.WriteString(v.Prerelease)
	}
	if v.Build != "" {
		sb.WriteByte('+')
		sb.WriteString(v.Build)
	}
	return sb.String()
}

// IsPrerelease reports whether the version carries pre-release identifiers.
func (v Version) IsPrerelease() bool { return v.Prerelease != "" }

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater than
// other, following semver precedence. Build metadata is ignored.
func (v Version) Compare(other Version) int {
	if c := compareUint(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareUint(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareUint(v.Patch, other.Patch); c != 0 {
		return c
	}
	if c := compareUint(v.Revision, other.Revision); c != 0 {
		return c
	}
	return comparePrerelease(v.Prerelease, other.Prerelease)
}

// Equal reports whether two versions have equal precedence.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// comparePrerelease orders pre-release identifier lists per semver: a
// version without pre-release sorts above any pre-release, numeric
// identifiers compare numerically and sort below alphanumeric ones, and a
// longer identifier list wins when all shared identifiers are equal.
func comparePrerelease(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}
	aIdents := strings.Split(a, ".")
	bIdents := strings.Split(b, ".")
	for i := 0; i < len(aIdents) && i < len(bIdents); i++ {
		if c := comparePrereleaseIdent(aIdents[i], bIdents[i]); c != 0 {
			return c
		}
	}
	return compareUint(uint64(len(aIdents)), uint64(len(bIdents)))
}

func comparePrereleaseIdent(a, b string) int {
	aNum, aErr := strconv.ParseUint(a, 10, 64)
	bNum, bErr := strconv.ParseUint(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return compareUint(aNum, bNum)
	case aErr == nil:
		return -1 // numeric identifiers sort below alphanumeric
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
