// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"nugo-cli/internal/workflows"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the registry source is reachable",
	Long: `Fetches the source's service index and reports the endpoints this
client would use, plus the round-trip time. Needs no credentials.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(cmd, workflows.Ping{})
	},
}
