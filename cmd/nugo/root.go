// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for nugo.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"nugo-cli/internal/config"
	"nugo-cli/internal/credstore"
	"nugo-cli/internal/issue"
	"nugo-cli/internal/registry"
	"nugo-cli/internal/transport"
	"nugo-cli/internal/workflows"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// sourceFlag overrides the configured registry source
	sourceFlag string
	// apiKeyFlag overrides the stored API key
	apiKeyFlag string
	// jsonOutput switches result rendering to one JSON document on stdout
	jsonOutput bool

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "nugo",
		Short: "A client for NuGet-style package registries",
		Long: TitleStyle.Render("nugo") + SubtitleStyle.Render(" - a client for NuGet-style package registries") + `

nugo builds .nupkg archives from CUE manifests and talks to any registry
that exposes a v3 service index: publish, search, unlist, relist, view,
and ping.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Describe your package in a nupkg.cue manifest
  2. Store an API key with: nugo login --api-key <KEY>
  3. Publish with: nugo publish ./nupkg.cue

` + SubtitleStyle.Render("Examples:") + `
  nugo pack ./nupkg.cue             Build the archive locally
  nugo publish ./nupkg.cue          Build and push to the registry
  nugo search json --take 5         Search the registry
  nugo view Newtonsoft.Json         Show published versions
  nugo unlist Sample.Pkg 1.0.0      Hide a version from search`,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/nugo/config.cue)")
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "registry service index URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiKeyFlag, "api-key", "", "API key (overrides the credential store)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")

	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(unlistCmd)
	rootCmd.AddCommand(relistCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(loginCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// newLogger builds the CLI logger: debug level when verbose, silent
// otherwise.
func newLogger() *log.Logger {
	if !verbose {
		return log.New(io.Discard)
	}
	logger := log.New(os.Stderr)
	logger.SetLevel(log.DebugLevel)
	return logger
}

// loadConfig resolves configuration with the --config flag honored.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(cfgFile).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Remove the config file to fall back to defaults").
			Wrap(err).
			BuildError()
	}
	return cfg, nil
}

// newWorkflowContext wires the collaborators every workflow needs: config,
// credentials, transport, and resolver. The API key is resolved flag >
// credential store > none.
func newWorkflowContext() (*workflows.Context, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	source := cfg.Source
	if sourceFlag != "" {
		source = sourceFlag
	}

	apiKey := apiKeyFlag
	if apiKey == "" {
		if path, err := credstore.DefaultPath(); err == nil {
			if key, ok, err := credstore.New(path).Lookup(source); err == nil && ok {
				apiKey = key
			}
		}
	}

	logger := newLogger()
	client := transport.NewClient(
		transport.WithAPIKey(apiKey),
		transport.WithPolicy(transport.Policy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			MaxElapsed:  cfg.Retry.MaxElapsed,
			BaseDelay:   cfg.Retry.BaseDelay,
		}),
		transport.WithLogger(logger),
	)

	wctx := workflows.NewContext(source, registry.NewResolver(client, registry.WithResolverLogger(logger)), client)
	wctx.Logger = logger
	if apiKey != "" {
		wctx.Credentials = &workflows.Credentials{Source: source, APIKey: apiKey}
	}
	return wctx, cfg, nil
}

// runWorkflow executes wf with the configured timeout and renders its
// outcome; non-success outcomes become an ExitError with the state's code.
func runWorkflow(cmd *cobra.Command, wf workflows.Workflow) error {
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

	outcome := wf.Execute(ctx, wctx)
	renderOutcome(cmd.OutOrStdout(), outcome)
	if outcome.State != workflows.StateSuccess {
		return &ExitError{Code: outcome.State.ExitCode()}
	}
	return nil
}
