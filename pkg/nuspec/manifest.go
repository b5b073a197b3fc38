// SPDX-License-Identifier: MPL-2.0

// Package nuspec models package manifests.
//
// A manifest has two document forms. The source form is a CUE file
// (nupkg.cue) that declares package identity, dependencies, and content
// files; it is validated against an embedded CUE schema plus semantic rules
// (identifier grammar, version and range syntax, file existence, unique
// archive paths). The canonical form is the .nuspec XML document embedded
// in a built archive; its serialization is byte-for-byte deterministic so
// archive builds are reproducible.
package nuspec

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"nugo-cli/pkg/semver"
)

// ManifestFileName is the conventional name of the manifest source document.
const ManifestFileName = "nupkg.cue"

// idRegex validates package identifiers: letters, digits, '.', '_', '-',
// with a letter or digit at both ends.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

type (
	// Identity is a package id plus version. Identifier comparison is
	// case-insensitive; version comparison follows semver precedence.
	Identity struct {
		ID      string
		Version semver.Version
	}

	// Dependency declares a requirement on another package.
	Dependency struct {
		ID    string
		Range semver.Range
	}

	// ContentFile maps a file on disk to its path inside the archive.
	ContentFile struct {
		// Source is the path on disk, relative to the manifest's directory.
		Source string
		// Target is the normalized archive path (forward slashes).
		Target string
	}

	// Manifest is a parsed, validated package manifest. Immutable once
	// constructed; the archive builder consumes it as a value.
	Manifest struct {
		Identity    Identity
		Title       string
		Description string
		// Authors in declared order.
		Authors []string
		// Dependencies sorted by case-folded id, so the canonical
		// serialization is stable regardless of declaration order.
		Dependencies []Dependency
		// Files in declared order. The archive builder preserves this order.
		Files []ContentFile
	}
)

// Equal reports whether two identities name the same package version.
func (id Identity) Equal(other Identity) bool {
	return strings.EqualFold(id.ID, other.ID) && id.Version.Equal(other.Version)
}

// String renders "id@version".
func (id Identity) String() string {
	return id.ID + "@" + id.Version.String()
}

type (
	// ValidationIssue represents a single validation problem in a manifest.
	ValidationIssue struct {
		// Field is the manifest field the issue refers to (e.g. "id",
		// "dependencies.Foo", "files[2].target").
		Field string
		// Message describes the specific problem.
		Message string
	}

	// ValidationError aggregates every issue found in one pass, so a caller
	// can report them together instead of fixing one at a time.
	ValidationError struct {
		// Source names the document the issues were found in.
		Source string
		// Issues contains all problems found, in field order.
		Issues []ValidationIssue
	}
)

// Error implements the error interface for ValidationIssue.
func (v ValidationIssue) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("%s: %s", e.Source, e.Issues[0].Error())
	}
	lines := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		lines = append(lines, issue.Error())
	}
	return fmt.Sprintf("%s: %d validation issues:\n  %s", e.Source, len(e.Issues), strings.Join(lines, "\n  "))
}

func (e *ValidationError) add(field, message string) {
	e.Issues = append(e.Issues, ValidationIssue{Field: field, Message: message})
}

// document is the wire shape decoded from nupkg.cue.
type document struct {
	ID           string            `json:"id"`
	Version      string            `json:"version"`
	Title        string            `json:"title,omitempty"`
	Description  string            `json:"description,omitempty"`
	Authors      []string          `json:"authors,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Files        []fileMapping     `json:"files,omitempty"`
}

type fileMapping struct {
	Src    string `json:"src"`
	Target string `json:"target"`
}

// build turns a decoded document into a Manifest, accumulating every
// semantic failure. baseDir anchors relative source paths; when empty,
// file existence checks are skipped (used when reading back from archives).
func (doc *document) build(source, baseDir string, checkFiles bool) (*Manifest, error) {
	verr := &ValidationError{Source: source}

	if doc.ID == "" {
		verr.add("id", "identifier is required")
	} else if !idRegex.MatchString(doc.ID) {
		verr.add("id", fmt.Sprintf("invalid identifier %q: letters, digits, '.', '_', '-' only, no leading or trailing separators", doc.ID))
	}

	version, err := semver.Parse(doc.Version)
	if err != nil {
		verr.add("version", err.Error())
	}

	for _, author := range doc.Authors {
		if strings.Contains(author, ",") {
			verr.add("authors", fmt.Sprintf("author %q must not contain ','", author))
		}
	}

	depIDs := make([]string, 0, len(doc.Dependencies))
	for depID := range doc.Dependencies {
		depIDs = append(depIDs, depID)
	}
	sort.Slice(depIDs, func(i, j int) bool {
		return strings.ToLower(depIDs[i]) < strings.ToLower(depIDs[j])
	})
	deps := make([]Dependency, 0, len(depIDs))
	for _, depID := range depIDs {
		field := "dependencies." + depID
		if !idRegex.MatchString(depID) {
			verr.add(field, fmt.Sprintf("invalid dependency identifier %q", depID))
		}
		rng, err := semver.ParseRange(doc.Dependencies[depID])
		if err != nil {
			verr.add(field, err.Error())
			continue
		}
		deps = append(deps, Dependency{ID: depID, Range: rng})
	}

	seenTargets := make(map[string]int, len(doc.Files))
	files := make([]ContentFile, 0, len(doc.Files))
	for i, fm := range doc.Files {
		field := fmt.Sprintf("files[%d]", i)
		target, err := NormalizeArchivePath(fm.Target)
		if err != nil {
			verr.add(field+".target", err.Error())
			continue
		}
		key := strings.ToLower(target)
		if prev, dup := seenTargets[key]; dup {
			verr.add(field+".target", fmt.Sprintf("duplicate archive path %q (also declared by files[%d])", target, prev))
			continue
		}
		seenTargets[key] = i

		if checkFiles {
			// The archive builder reads sources through an fs.FS rooted at the
			// manifest directory, so validate against the same path rules:
			// relative, slash-separated, no escape from the root.
			rel := path.Clean(strings.ReplaceAll(fm.Src, `\`, "/"))
			if !fs.ValidPath(rel) {
				verr.add(field+".src", fmt.Sprintf("source %q must be a relative path inside the manifest directory", fm.Src))
				continue
			}
			info, err := os.Stat(filepath.Join(baseDir, filepath.FromSlash(rel)))
			switch {
			case err != nil:
				verr.add(field+".src", fmt.Sprintf("source file %q: %v", fm.Src, err))
				continue
			case !info.Mode().IsRegular():
				verr.add(field+".src", fmt.Sprintf("source %q is not a regular file", fm.Src))
				continue
			}
		}
		files = append(files, ContentFile{Source: fm.Src, Target: target})
	}

	if len(verr.Issues) > 0 {
		return nil, verr
	}
	return &Manifest{
		Identity:     Identity{ID: doc.ID, Version: version},
		Title:        doc.Title,
		Description:  doc.Description,
		Authors:      append([]string(nil), doc.Authors...),
		Dependencies: deps,
		Files:        files,
	}, nil
}

// NormalizeArchivePath validates and normalizes an archive target path:
// forward slashes, no traversal segments, no absolute or drive-rooted paths,
// and no collision with the archive's bookkeeping entries.
func NormalizeArchivePath(target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("archive path is required")
	}
	slashed := strings.ReplaceAll(target, `\`, "/")
	if strings.HasPrefix(slashed, "/") {
		return "", fmt.Errorf("archive path %q must be relative", target)
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("archive path %q traverses outside the archive", target)
	}
	for _, segment := range strings.Split(cleaned, "/") {
		if strings.TrimSpace(segment) == "" {
			return "", fmt.Errorf("archive path %q has an empty segment", target)
		}
	}
	lower := strings.ToLower(cleaned)
	if lower == "[content_types].xml" || strings.HasPrefix(lower, "_rels/") || strings.HasSuffix(lower, ".nuspec") && !strings.Contains(lower, "/") {
		return "", fmt.Errorf("archive path %q collides with a reserved package entry", target)
	}
	return cleaned, nil
}

// Equal reports whether two manifests are semantically identical: same
// identity, metadata, authors, dependencies (id + range spelling after
// normalization), and file mappings in order.
func (m *Manifest) Equal(other *Manifest) bool {
	if m == nil || other == nil {
		return m == other
	}
	if !m.Identity.Equal(other.Identity) ||
		m.Title != other.Title ||
		m.Description != other.Description ||
		len(m.Authors) != len(other.Authors) ||
		len(m.Dependencies) != len(other.Dependencies) ||
		len(m.Files) != len(other.Files) {
		return false
	}
	for i := range m.Authors {
		if m.Authors[i] != other.Authors[i] {
			return false
		}
	}
	for i := range m.Dependencies {
		a, b := m.Dependencies[i], other.Dependencies[i]
		if !strings.EqualFold(a.ID, b.ID) || a.Range.String() != b.Range.String() {
			return false
		}
	}
	for i := range m.Files {
		if m.Files[i] != other.Files[i] {
			return false
		}
	}
	return true
}
