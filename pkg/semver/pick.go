// SPDX-License-Identifier: MPL-2.0

package semver

import "sort"

// PickVersion selects the version a dependency range resolves to out of the
// versions a registry advertises.
//
// Non-floating ranges resolve to the lowest satisfying version, so installs
// stay stable as newer releases appear. Floating ranges resolve to the
// highest satisfying version. Pre-release versions are only considered when
// the range itself mentions a pre-release. Returns false when nothing
// satisfies the range.
func PickVersion(r Range, versions []Version) (Version, bool) {
	includePre := r.HasPrerelease()
	candidates := make([]Version, 0, len(versions))
	for _, v := range versions {
		if v.IsPrerelease() && !includePre {
			continue
		}
		candidates = append(candidates, v)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Compare(candidates[j]) < 0 })

	if r.Floating {
		for i := len(candidates) - 1; i >= 0; i-- {
			if r.Satisfies(candidates[i]) {
				return candidates[i], true
			}
		}
		return Version{}, false
	}
	for _, v := range candidates {
		if r.Satisfies(v) {
			return v, true
		}
	}
	return Version{}, false
}
