// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"nugo-cli/internal/workflows"
)

// jsonOutcome is the stable JSON shape emitted with --json.
type jsonOutcome struct {
	State        string                       `json:"state"`
	ExitCode     int                          `json:"exitCode"`
	Message      string                       `json:"message,omitempty"`
	HTTPStatus   int                          `json:"httpStatus,omitempty"`
	Search       *workflows.SearchPage        `json:"search,omitempty"`
	Registration *workflows.RegistrationIndex `json:"registration,omitempty"`
	Ping         *workflows.PingReport        `json:"ping,omitempty"`
}

// renderOutcome prints a workflow outcome, as one JSON document when
// --json is set and as styled text otherwise.
func renderOutcome(w io.Writer, outcome workflows.Outcome) {
	if jsonOutput {
		doc := jsonOutcome{
			State:        outcome.State.String(),
			ExitCode:     outcome.State.ExitCode(),
			Message:      outcome.Message,
			HTTPStatus:   outcome.HTTPStatus,
			Search:       outcome.Search,
			Registration: outcome.Registration,
			Ping:         outcome.Ping,
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(doc)
		return
	}

	switch outcome.State {
	case workflows.StateSuccess:
		fmt.Fprintln(w, SuccessStyle.Render("✓ ")+outcome.Message)
	default:
		fmt.Fprintln(w, ErrorStyle.Render("✗ ")+outcome.Message)
	}

	switch {
	case outcome.Search != nil:
		renderSearch(w, outcome.Search)
	case outcome.Registration != nil:
		renderRegistration(w, outcome.Registration)
	case outcome.Ping != nil:
		renderPing(w, outcome.Ping)
	}
}

func renderSearch(w io.Writer, page *workflows.SearchPage) {
	for _, r := range page.Data {
		fmt.Fprintf(w, "  %s %s\n", PackageStyle.Render(r.ID), SubtitleStyle.Render(r.Version))
		if r.Description != "" {
			fmt.Fprintf(w, "    %s\n", r.Description)
		}
	}
}

func renderRegistration(w io.Writer, reg *workflows.RegistrationIndex) {
	for _, page := range reg.Items {
		for _, leaf := range page.Items {
			entry := leaf.CatalogEntry
			line := "  " + PackageStyle.Render(entry.Version)
			if entry.Listed != nil && !*entry.Listed {
				line += WarningStyle.Render(" (unlisted)")
			}
			if entry.Published != "" {
				line += SubtitleStyle.Render("  published " + entry.Published)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func renderPing(w io.Writer, report *workflows.PingReport) {
	names := make([]string, 0, len(report.Endpoints))
	for name := range report.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-28s %s\n", name, SubtitleStyle.Render(report.Endpoints[name]))
	}
}
