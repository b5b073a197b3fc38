// SPDX-License-Identifier: MPL-2.0

package nupkg

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"nugo-cli/pkg/nuspec"
)

// ErrNoManifest reports an archive that holds no root-level .nuspec entry.
var ErrNoManifest = errors.New("archive holds no manifest entry")

// Read parses a package archive from raw bytes, recovering the manifest
// from its embedded .nuspec entry. The returned Archive lists every entry
// in container order.
func Read(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	var manifest *nuspec.Manifest
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
		if !isManifestEntry(f.Name) {
			continue
		}
		if manifest != nil {
			return nil, fmt.Errorf("archive holds more than one manifest entry")
		}
		raw, err := readEntry(f)
		if err != nil {
			return nil, fmt.Errorf("read manifest entry %s: %w", f.Name, err)
		}
		manifest, err = nuspec.DecodeXML(raw)
		if err != nil {
			return nil, err
		}
	}
	if manifest == nil {
		return nil, ErrNoManifest
	}
	return &Archive{Bytes: data, Manifest: manifest, Entries: names}, nil
}

// Open reads and parses the package archive file at the given path.
func Open(filename string) (*Archive, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	return Read(data)
}

// isManifestEntry reports whether name is a root-level .nuspec entry.
func isManifestEntry(name string) bool {
	return !strings.Contains(name, "/") &&
		strings.EqualFold(path.Ext(name), ".nuspec")
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
