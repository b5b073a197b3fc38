// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette for terminal output. Headers pick up the registry-blue
// brand hue; package identities get their own teal accent so they stand
// apart from surrounding text. All chosen for dark terminal backgrounds.
const (
	// ColorPrimary is registry blue - used for titles and headers.
	ColorPrimary = lipgloss.Color("#1C87C9")

	// ColorMuted is gray - used for versions, timestamps, and endpoints.
	ColorMuted = lipgloss.Color("#8B949E")

	// ColorSuccess is green - used for completed operations.
	ColorSuccess = lipgloss.Color("#2EA043")

	// ColorError is red - used for failed operations.
	ColorError = lipgloss.Color("#F85149")

	// ColorWarning is amber - used for unlisted versions and cautions.
	ColorWarning = lipgloss.Color("#D29922")

	// ColorPackage is teal - reserved for package identifiers.
	ColorPackage = lipgloss.Color("#2DD4BF")
)

// Base styles, reusable lipgloss styles built from the color palette.
var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for versions, endpoints, and de-emphasized detail.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warnings, e.g. the unlisted marker.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// PackageStyle is for package ids wherever they appear in output.
	PackageStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPackage)
)
