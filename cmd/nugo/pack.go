// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"nugo-cli/internal/issue"
	"nugo-cli/internal/workflows"
	"nugo-cli/pkg/nupkg"
	"nugo-cli/pkg/nuspec"
)

var packOutput string

var packCmd = &cobra.Command{
	Use:   "pack [manifest]",
	Short: "Build a .nupkg archive from a manifest",
	Long: `Validates the manifest and builds the package archive locally.

The archive is reproducible: building the same input twice yields
byte-identical output. By default the archive is written next to the
manifest as <Id>.<Version>.nupkg.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestPath := nuspec.ManifestFileName
		if len(args) == 1 {
			manifestPath = args[0]
		}

		manifest, err := nuspec.Load(manifestPath)
		if err != nil {
			return &ExitError{
				Code: workflows.StateValidationFailed.ExitCode(),
				Err: issue.NewErrorContext().
					WithOperation("load manifest").
					WithResource(manifestPath).
					WithSuggestion("Every validation issue is listed; fix them all in one pass").
					Wrap(err).
					BuildError(),
			}
		}

		archive, err := nupkg.Build(manifest, os.DirFS(filepath.Dir(manifestPath)))
		if err != nil {
			return &ExitError{
				Code: workflows.StateValidationFailed.ExitCode(),
				Err:  issue.WrapWithContext(err, "build archive", manifestPath),
			}
		}

		out := packOutput
		if out == "" {
			out = filepath.Join(filepath.Dir(manifestPath),
				fmt.Sprintf("%s.%s.nupkg", manifest.Identity.ID, manifest.Identity.Version))
		}
		if err := os.WriteFile(out, archive.Bytes, 0o644); err != nil {
			return &ExitError{Code: 1, Err: issue.WrapWithContext(err, "write archive", out)}
		}

		fmt.Fprintln(cmd.OutOrStdout(),
			SuccessStyle.Render("✓ ")+fmt.Sprintf("packed %s (%d entries, %d bytes) -> %s",
				manifest.Identity, len(archive.Entries), len(archive.Bytes), out))
		return nil
	},
}

func init() {
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "archive output path")
}
