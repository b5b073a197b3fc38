// SPDX-License-Identifier: MPL-2.0

package nupkg

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"nugo-cli/pkg/nuspec"
)

func sampleManifest(t *testing.T) (*nuspec.Manifest, fstest.MapFS) {
	t.Helper()
	fsys := fstest.MapFS{
		"bin/a.dll": &fstest.MapFile{Data: []byte("machine code")},
	}
	doc := `
id: "Sample.Pkg"
version: "1.0.0"
description: "A sample package."
files: [{src: "bin/a.dll", target: "lib/a.dll"}]
`
	// File existence is anchored on a temp dir for Parse; the archive build
	// reads content from the in-memory fs with the same layout.
	dir := t.TempDir()
	writeTree(t, dir, fsys)
	m, err := nuspec.Parse([]byte(doc), dir)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m, fsys
}

func writeTree(t *testing.T, dir string, fsys fstest.MapFS) {
	t.Helper()
	for name, file := range fsys {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, file.Data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuild_EntryOrder(t *testing.T) {
	t.Parallel()

	m, fsys := sampleManifest(t)
	archive, err := Build(m, fsys)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{
		"Sample.Pkg.nuspec",
		"lib/a.dll",
		"[Content_Types].xml",
		"_rels/.rels",
	}
	if len(archive.Entries) != len(want) {
		t.Fatalf("entries = %v, want %v", archive.Entries, want)
	}
	for i, name := range want {
		if archive.Entries[i] != name {
			t.Errorf("entry[%d] = %q, want %q", i, archive.Entries[i], name)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	m, fsys := sampleManifest(t)
	first, err := Build(m, fsys)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := Build(m, fsys)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !bytes.Equal(first.Bytes, second.Bytes) {
		t.Error("two builds from identical input are not byte-identical")
	}
}

func TestBuild_ReadRoundTrip(t *testing.T) {
	t.Parallel()

	m, fsys := sampleManifest(t)
	built, err := Build(m, fsys)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	back, err := Read(built.Bytes)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !m.Equal(back.Manifest) {
		t.Errorf("recovered manifest differs:\nbefore: %+v\nafter:  %+v", m, back.Manifest)
	}
	if len(back.Entries) != len(built.Entries) {
		t.Errorf("entries = %v, want %v", back.Entries, built.Entries)
	}
}

func TestBuild_UnreadableContent(t *testing.T) {
	t.Parallel()

	m, _ := sampleManifest(t)
	_, err := Build(m, fstest.MapFS{}) // declared file absent from the source
	var unreadable *UnreadableContentError
	if !errors.As(err, &unreadable) {
		t.Fatalf("expected *UnreadableContentError, got %T: %v", err, err)
	}
	if unreadable.Path != "bin/a.dll" {
		t.Errorf("Path = %q, want bin/a.dll", unreadable.Path)
	}
}

func TestBuild_EntryTooLarge(t *testing.T) {
	t.Parallel()

	m, fsys := sampleManifest(t)
	_, err := Build(m, fsys, WithMaxEntrySize(4))
	var tooLarge *EntryTooLargeError
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected *EntryTooLargeError, got %T: %v", err, err)
	}
}

func TestRead_NoManifest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeDeterministicZip(&buf, []entry{{name: "lib/a.dll", data: []byte("x")}}); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(buf.Bytes()); !errors.Is(err, ErrNoManifest) {
		t.Errorf("expected ErrNoManifest, got %v", err)
	}
}

func TestRead_Garbage(t *testing.T) {
	t.Parallel()

	if _, err := Read([]byte("definitely not a zip")); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestContentTypesXML_SortedExtensions(t *testing.T) {
	t.Parallel()

	got := string(contentTypesXML([]entry{
		{name: "Sample.Pkg.nuspec"},
		{name: "lib/z.dll"},
		{name: "content/readme.md"},
		{name: "lib/a.dll"}, // duplicate extension
	}))
	dll := bytes.Index([]byte(got), []byte(`Extension="dll"`))
	md := bytes.Index([]byte(got), []byte(`Extension="md"`))
	ns := bytes.Index([]byte(got), []byte(`Extension="nuspec"`))
	if dll < 0 || md < 0 || ns < 0 {
		t.Fatalf("missing extension declarations:\n%s", got)
	}
	if !(dll < md && md < ns) {
		t.Errorf("extensions not sorted:\n%s", got)
	}
	if n := bytes.Count([]byte(got), []byte(`Extension="dll"`)); n != 1 {
		t.Errorf("dll declared %d times, want 1", n)
	}
}
