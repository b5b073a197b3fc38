// SPDX-License-Identifier: MPL-2.0

package semver

import "testing"

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  Version
	}{
		{"1.2.3", Version{Major: 1, Minor: 2, Patch: 3}},
		{"1", Version{Major: 1}},
		{"1.2", Version{Major: 1, Minor: 2}},
		{"1.2.3.4", Version{Major: 1, Minor: 2, Patch: 3, Revision: 4}},
		{"1.0.0-alpha", Version{Major: 1, Prerelease: "alpha"}},
		{"1.0.0-alpha.1", Version{Major: 1, Prerelease: "alpha.1"}},
		{"1.0.0+build.5", Version{Major: 1, Build: "build.5"}},
		{"2.1.0-rc.2+sha.abc", Version{Major: 2, Minor: 1, Prerelease: "rc.2", Build: "sha.abc"}},
		{"  1.2.3 ", Version{Major: 1, Minor: 2, Patch: 3}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "abc", "1.2.3.4.5", "1..2", "-1.2.3", "1.0.0-", "1.0.0-al pha", "1.0.0-a..b"}
	for _, input := range inputs {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q): expected error, got nil", input)
		}
	}
}

func TestCompare_Precedence(t *testing.T) {
	t.Parallel()

	// Ascending precedence per semver 2.0.0 §11, plus the NuGet revision
	// component between patch and pre-release.
	ordered := []string{
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-alpha.beta",
		"1.0.0-beta",
		"1.0.0-beta.2",
		"1.0.0-beta.11",
		"1.0.0-rc.1",
		"1.0.0",
		"1.0.0.1",
		"1.0.1",
		"1.1.0",
		"2.0.0",
	}
	for i := 1; i < len(ordered); i++ {
		lo := mustParse(t, ordered[i-1])
		hi := mustParse(t, ordered[i])
		if lo.Compare(hi) >= 0 {
			t.Errorf("expected %s < %s", ordered[i-1], ordered[i])
		}
		if hi.Compare(lo) <= 0 {
			t.Errorf("expected %s > %s", ordered[i], ordered[i-1])
		}
	}
}

func TestCompare_BuildMetadataIgnored(t *testing.T) {
	t.Parallel()

	a := mustParse(t, "1.0.0+one")
	b := mustParse(t, "1.0.0+two")
	if !a.Equal(b) {
		t.Errorf("build metadata must not affect precedence: %s vs %s", a, b)
	}
}

func TestString_NormalForm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, want string
	}{
		{"1", "1.0.0"},
		{"1.2", "1.2.0"},
		{"1.2.3.0", "1.2.3"},
		{"1.2.3.4", "1.2.3.4"},
		{"1.0.0-rc.1+meta", "1.0.0-rc.1+meta"},
	}
	for _, tt := range tests {
		if got := mustParse(t, tt.input).String(); got != tt.want {
			t.Errorf("String of %q = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func mustParse(t *testing.T, s string) Version {
	t.Helper()
	v, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return v
}
