// SPDX-License-Identifier: MPL-2.0

// Package nupkg builds and reads package archives.
//
// A package archive is a zip container holding the canonical manifest
// document (<id>.nuspec), the declared content files, and two bookkeeping
// entries: a content-type declaration ([Content_Types].xml) computed from
// the distinct file extensions present, and a relationship descriptor
// (_rels/.rels) pointing at the manifest.
//
// Builds are reproducible: entries appear in a fixed order with a fixed
// timestamp and fixed compression parameters, so two builds from identical
// input are byte-identical.
package nupkg

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"nugo-cli/pkg/nuspec"
)

const (
	// ContentTypesEntry is the OPC content-type declaration entry.
	ContentTypesEntry = "[Content_Types].xml"
	// RelationshipsEntry is the OPC relationship descriptor entry.
	RelationshipsEntry = "_rels/.rels"

	// DefaultMaxEntrySize caps a single archive entry (250 MiB).
	DefaultMaxEntrySize = int64(250 << 20)

	contentTypesNamespace  = "http://schemas.openxmlformats.org/package/2006/content-types"
	relationshipsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"
	manifestRelationType   = "http://schemas.microsoft.com/packaging/2010/07/manifest"
)

// epochTimestamp is the fixed modification time stamped on every entry;
// zip cannot represent times before 1980.
var epochTimestamp = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

type (
	// Archive is a finished package: the raw bytes plus the manifest and
	// entry list they were built from. A pure value owning no resources.
	Archive struct {
		// Bytes is the complete zip container.
		Bytes []byte
		// Manifest is the manifest the archive was built from.
		Manifest *nuspec.Manifest
		// Entries lists every entry path in archive order.
		Entries []string
	}

	// UnreadableContentError reports a declared content file that could not
	// be read at build time (e.g. it vanished after validation).
	UnreadableContentError struct {
		Path string
		Err  error
	}

	// EntryTooLargeError reports a single entry exceeding the size ceiling.
	EntryTooLargeError struct {
		Path  string
		Limit int64
	}

	// BuildOption configures a Build call.
	BuildOption func(*buildOptions)

	buildOptions struct {
		maxEntrySize int64
	}
)

// Error implements the error interface.
func (e *UnreadableContentError) Error() string {
	return fmt.Sprintf("content file %q is unreadable: %v", e.Path, e.Err)
}

// Unwrap returns the underlying read error.
func (e *UnreadableContentError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *EntryTooLargeError) Error() string {
	return fmt.Sprintf("entry %q exceeds the %d byte ceiling", e.Path, e.Limit)
}

// WithMaxEntrySize overrides the per-entry size ceiling.
func WithMaxEntrySize(limit int64) BuildOption {
	return func(o *buildOptions) { o.maxEntrySize = limit }
}

// ManifestEntryName returns the archive path of the manifest document.
func ManifestEntryName(m *nuspec.Manifest) string {
	return m.Identity.ID + ".nuspec"
}

// Build produces the package archive for a validated manifest. Content
// bytes are read from fsys using the manifest's declared source paths
// (slash-separated, relative to the fs root). Declared files are never
// dropped or reordered: the archive holds the nuspec first, then content
// files in declared order, then the bookkeeping entries.
func Build(m *nuspec.Manifest, fsys fs.FS, opts ...BuildOption) (*Archive, error) {
	options := buildOptions{maxEntrySize: DefaultMaxEntrySize}
	for _, opt := range opts {
		opt(&options)
	}

	nuspecBytes, err := m.EncodeXML()
	if err != nil {
		return nil, err
	}
	if int64(len(nuspecBytes)) > options.maxEntrySize {
		return nil, &EntryTooLargeError{Path: ManifestEntryName(m), Limit: options.maxEntrySize}
	}

	entries := make([]entry, 0, len(m.Files)+3)
	entries = append(entries, entry{name: ManifestEntryName(m), data: nuspecBytes})

	for _, cf := range m.Files {
		data, err := readContent(fsys, cf.Source, options.maxEntrySize)
		if err != nil {
			if tooLarge, ok := err.(*EntryTooLargeError); ok {
				tooLarge.Path = cf.Target
				return nil, tooLarge
			}
			return nil, &UnreadableContentError{Path: cf.Source, Err: err}
		}
		entries = append(entries, entry{name: cf.Target, data: data})
	}

	entries = append(entries,
		entry{name: ContentTypesEntry, data: contentTypesXML(entries)},
		entry{name: RelationshipsEntry, data: relationshipsXML(ManifestEntryName(m))},
	)

	var buf bytes.Buffer
	if err := writeDeterministicZip(&buf, entries); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return &Archive{Bytes: buf.Bytes(), Manifest: m, Entries: names}, nil
}

type entry struct {
	name string
	data []byte
}

func readContent(fsys fs.FS, source string, limit int64) ([]byte, error) {
	f, err := fsys.Open(path.Clean(strings.ReplaceAll(source, `\`, "/")))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, &EntryTooLargeError{Limit: limit}
	}
	return data, nil
}

// writeDeterministicZip writes entries in the given order with fixed
// timestamps, mode, and compression so output depends only on input.
func writeDeterministicZip(w io.Writer, entries []entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		header := &zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: epochTimestamp,
		}
		header.SetMode(0o644)
		ew, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("create entry %s: %w", e.name, err)
		}
		if _, err := ew.Write(e.data); err != nil {
			return fmt.Errorf("write entry %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// contentTypesXML renders the content-type declaration from the set of
// distinct file extensions present, sorted for determinism. Entries
// without an extension are covered by the zip container defaults and need
// no declaration.
func contentTypesXML(entries []entry) []byte {
	seen := map[string]bool{"rels": true}
	for _, e := range entries {
		if ext := strings.TrimPrefix(path.Ext(e.name), "."); ext != "" {
			seen[strings.ToLower(ext)] = true
		}
	}
	extensions := make([]string, 0, len(seen))
	for ext := range seen {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	sb.WriteString(`<Types xmlns="` + contentTypesNamespace + `">` + "\n")
	for _, ext := range extensions {
		contentType := "application/octet"
		if ext == "rels" {
			contentType = "application/vnd.openxmlformats-package.relationships+xml"
		}
		fmt.Fprintf(&sb, "  <Default Extension=%q ContentType=%q />\n", ext, contentType)
	}
	sb.WriteString("</Types>\n")
	return []byte(sb.String())
}

// relationshipsXML renders the descriptor binding the container to its
// manifest document. The relationship id is derived from the manifest name
// so it is stable across builds.
func relationshipsXML(manifestName string) []byte {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	sb.WriteString(`<Relationships xmlns="` + relationshipsNamespace + `">` + "\n")
	fmt.Fprintf(&sb, "  <Relationship Type=%q Target=%q Id=%q />\n",
		manifestRelationType, "/"+manifestName, "manifest")
	sb.WriteString("</Relationships>\n")
	return []byte(sb.String())
}
