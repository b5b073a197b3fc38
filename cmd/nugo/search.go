// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"nugo-cli/internal/workflows"
)

var (
	searchSkip        int
	searchTake        int
	searchPrerelease  bool
	searchPackageType string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the registry",
	Long: `Queries one page of the registry's search service. Pagination is
caller-driven: use --skip and --take to walk further pages.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(cmd, workflows.Search{
			Query:       strings.Join(args, " "),
			Skip:        searchSkip,
			Take:        searchTake,
			Prerelease:  searchPrerelease,
			PackageType: searchPackageType,
		})
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchSkip, "skip", 0, "number of results to skip")
	searchCmd.Flags().IntVar(&searchTake, "take", 20, "number of results per page")
	searchCmd.Flags().BoolVar(&searchPrerelease, "prerelease", false, "include pre-release versions")
	searchCmd.Flags().StringVar(&searchPackageType, "package-type", "", "filter by package type")
}
