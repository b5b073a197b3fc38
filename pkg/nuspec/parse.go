// SPDX-License-Identifier: MPL-2.0

package nuspec

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"nugo-cli/pkg/cueutil"
)

//go:embed manifest_schema.cue
var manifestSchema []byte

// Parse parses and validates a manifest source document (nupkg.cue form).
// baseDir anchors relative content-file paths for existence checks.
//
// Structural failures (CUE syntax, schema violations) return immediately;
// semantic failures are accumulated and returned together as a
// *ValidationError listing every issue.
func Parse(data []byte, baseDir string) (*Manifest, error) {
	return parse(data, ManifestFileName, baseDir, true)
}

// Load reads and parses the manifest file at path. Content-file paths are
// resolved relative to the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return parse(data, filepath.Base(path), filepath.Dir(path), true)
}

func parse(data []byte, source, baseDir string, checkFiles bool) (*Manifest, error) {
	result, err := cueutil.ParseAndDecode[document](
		manifestSchema,
		data,
		"#Manifest",
		cueutil.WithFilename(source),
	)
	if err != nil {
		return nil, err
	}
	return result.Value.build(source, baseDir, checkFiles)
}
