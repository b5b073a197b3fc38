// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"nugo-cli/internal/workflows"
	"nugo-cli/pkg/nuspec"
)

var publishCmd = &cobra.Command{
	Use:   "publish [manifest|archive.nupkg]",
	Short: "Push a package to the registry",
	Long: `Builds the archive from a manifest (or takes a prebuilt .nupkg) and
uploads it to the registry's publish endpoint.

Publishing requires an API key: store one with 'nugo login' or pass
--api-key. A version that already exists on the registry terminates as a
conflict; published versions are immutable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := nuspec.ManifestFileName
		if len(args) == 1 {
			path = args[0]
		}

		wf := workflows.Publish{ManifestPath: path}
		if strings.HasSuffix(strings.ToLower(path), ".nupkg") {
			wf = workflows.Publish{ArchivePath: path}
		}
		return runWorkflow(cmd, wf)
	},
}
