// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"nugo-cli/internal/issue"
	"nugo-cli/internal/workflows"
	"nugo-cli/pkg/semver"
)

var unlistCmd = &cobra.Command{
	Use:   "unlist <id> <version>",
	Short: "Hide a published version from search results",
	Long: `Unlists a version: it stays downloadable by exact reference but no
longer appears in search. Unlisting an already-unlisted version succeeds.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersionArg(args[1])
		if err != nil {
			return err
		}
		return runWorkflow(cmd, workflows.Unlist{ID: args[0], Version: version})
	},
}

var relistCmd = &cobra.Command{
	Use:   "relist <id> <version>",
	Short: "Restore an unlisted version to search results",
	Long: `Relists a previously unlisted version. Relisting a version that is
already listed succeeds.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersionArg(args[1])
		if err != nil {
			return err
		}
		return runWorkflow(cmd, workflows.Relist{ID: args[0], Version: version})
	},
}

func parseVersionArg(arg string) (semver.Version, error) {
	version, err := semver.Parse(arg)
	if err != nil {
		return semver.Version{}, &ExitError{
			Code: workflows.StateValidationFailed.ExitCode(),
			Err:  issue.WrapWithContext(err, "parse version", arg),
		}
	}
	return version, nil
}
