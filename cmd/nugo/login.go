// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"nugo-cli/internal/credstore"
	"nugo-cli/internal/issue"
	"nugo-cli/internal/workflows"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Validate and store an API key for the registry source",
	Long: `Probes the source with the given API key and, on success, stores it in
the credentials file under your user config directory. Later commands pick
the key up automatically for that source.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if apiKeyFlag == "" {
			return &ExitError{
				Code: workflows.StateValidationFailed.ExitCode(),
				Err: issue.NewErrorContext().
					WithOperation("log in").
					WithSuggestion("Pass the key with --api-key").
					Wrap(fmt.Errorf("no API key given")).
					BuildError(),
			}
		}

		wctx, cfg, err := newWorkflowContext()
		if err != nil {
			return &ExitError{Code: workflows.StateValidationFailed.ExitCode(), Err: err}
		}

		ctx := cmd.Context()
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		outcome := workflows.Login{APIKey: apiKeyFlag}.Execute(ctx, wctx)
		renderOutcome(cmd.OutOrStdout(), outcome)
		if outcome.State != workflows.StateSuccess {
			return &ExitError{Code: outcome.State.ExitCode()}
		}

		// The workflow only validates; persisting is the CLI's job.
		path, err := credstore.DefaultPath()
		if err != nil {
			return &ExitError{Code: 1, Err: issue.WrapWithOperation(err, "locate credentials file")}
		}
		if err := credstore.New(path).Save(outcome.Credentials.Source, outcome.Credentials.APIKey); err != nil {
			return &ExitError{Code: 1, Err: issue.WrapWithContext(err, "store credentials", path)}
		}

		fmt.Fprintln(cmd.OutOrStdout(), SubtitleStyle.Render("  credentials saved to "+path))
		return nil
	},
}
