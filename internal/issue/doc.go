// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// It defines error types that carry remediation steps plus a catalog of
// Markdown-rendered guidance for the failures users hit most often when
// talking to a registry.
package issue
