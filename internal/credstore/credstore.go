// SPDX-License-Identifier: MPL-2.0

// Package credstore persists registry credentials in a TOML file under
// the user's config directory. Nothing reads it implicitly; the CLI wires
// looked-up keys into the transport explicitly.
package credstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// fileName is the credentials file under the nugo config directory.
const fileName = "credentials.toml"

type (
	// Store reads and writes the credentials file at a fixed path.
	Store struct {
		path string
	}

	// entry is one source's stored credential.
	entry struct {
		APIKey string `toml:"api_key"`
	}

	// fileFormat is the on-disk TOML shape: a table of sources keyed by URL.
	fileFormat struct {
		Sources map[string]entry `toml:"sources"`
	}
)

// DefaultPath returns the per-user credentials file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(base, "nugo", fileName), nil
}

// New creates a Store backed by the file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Lookup returns the API key stored for source, if any. A missing file is
// not an error; it simply holds no credentials.
func (s *Store) Lookup(source string) (string, bool, error) {
	contents, err := s.read()
	if err != nil {
		return "", false, err
	}
	e, ok := contents.Sources[source]
	if !ok || e.APIKey == "" {
		return "", false, nil
	}
	return e.APIKey, true, nil
}

// Save stores the API key for source, replacing any previous entry. The
// file is created with owner-only permissions.
func (s *Store) Save(source, apiKey string) error {
	contents, err := s.read()
	if err != nil {
		return err
	}
	if contents.Sources == nil {
		contents.Sources = make(map[string]entry)
	}
	contents.Sources[source] = entry{APIKey: apiKey}
	return s.write(contents)
}

// Delete removes the entry for source. Removing an absent entry is a no-op.
func (s *Store) Delete(source string) error {
	contents, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := contents.Sources[source]; !ok {
		return nil
	}
	delete(contents.Sources, source)
	return s.write(contents)
}

func (s *Store) read() (fileFormat, error) {
	var contents fileFormat
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return contents, nil
	}
	if err != nil {
		return contents, fmt.Errorf("reading credentials file: %w", err)
	}
	if err := toml.Unmarshal(data, &contents); err != nil {
		return contents, fmt.Errorf("parsing credentials file %s: %w", s.path, err)
	}
	return contents, nil
}

func (s *Store) write(contents fileFormat) error {
	data, err := toml.Marshal(contents)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials file: %w", err)
	}
	return nil
}
