// SPDX-License-Identifier: MPL-2.0

package semver

import "testing"

func TestPickVersion(t *testing.T) {
	t.Parallel()

	available := []string{"1.2.0", "1.2.2", "1.2.3", "1.2.3-alpha", "1.2.4", "2.0.0"}
	versions := make([]Version, 0, len(available))
	for _, s := range available {
		versions = append(versions, mustParse(t, s))
	}

	tests := []struct {
		rng   string
		want  string
		found bool
	}{
		{"[1.2.3,)", "1.2.3", true},   // lowest satisfying wins
		{"1", "1.2.0", true},          // bare minimum, lowest match
		{"1.*", "1.2.4", true},        // floating picks the highest
		{"[3.0.0,)", "", false},       // nothing satisfies
		{"[1.2.3-alpha]", "1.2.3-alpha", true}, // pre-release allowed when range mentions one
	}
	for _, tt := range tests {
		got, ok := PickVersion(MustParseRange(tt.rng), versions)
		if ok != tt.found {
			t.Errorf("PickVersion(%q): found=%v, want %v", tt.rng, ok, tt.found)
			continue
		}
		if ok && got.String() != tt.want {
			t.Errorf("PickVersion(%q) = %s, want %s", tt.rng, got, tt.want)
		}
	}
}

func TestPickVersion_ExcludesPrereleaseByDefault(t *testing.T) {
	t.Parallel()

	versions := []Version{mustParse(t, "1.2.0-beta"), mustParse(t, "1.2.0-rc.1")}
	if _, ok := PickVersion(MustParseRange("1"), versions); ok {
		t.Error("plain range must not resolve to a pre-release version")
	}
}
