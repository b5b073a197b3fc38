// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"nugo-cli/internal/workflows"
)

var viewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show a package's published versions",
	Long: `Fetches the package's registration index and lists every published
version with its catalog metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(cmd, workflows.View{ID: args[0]})
	},
}
