// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name: "operation only",
			err: &ActionableError{
				Operation: "load manifest",
			},
			expected: "failed to load manifest",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "load manifest",
				Resource:  "./nupkg.cue",
			},
			expected: "failed to load manifest: ./nupkg.cue",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "resolve service index",
				Cause:     errors.New("connection refused"),
			},
			expected: "failed to resolve service index: connection refused",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "publish package",
				Resource:  "Sample.Pkg@1.2.3",
				Cause:     errors.New("HTTP 409"),
			},
			expected: "failed to publish package: Sample.Pkg@1.2.3: HTTP 409",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Format(t *testing.T) {
	err := &ActionableError{
		Operation:   "publish package",
		Resource:    "Sample.Pkg@1.2.3",
		Suggestions: []string{"Bump the version", "Unlist the existing version instead"},
		Cause:       errors.New("HTTP 409"),
	}

	plain := err.Format(false)
	if !strings.Contains(plain, "• Bump the version") {
		t.Errorf("Format(false) missing suggestion:\n%s", plain)
	}
	if strings.Contains(plain, "Error chain") {
		t.Errorf("Format(false) must not include the error chain:\n%s", plain)
	}

	verbose := err.Format(true)
	if !strings.Contains(verbose, "Error chain:") || !strings.Contains(verbose, "1. HTTP 409") {
		t.Errorf("Format(true) missing error chain:\n%s", verbose)
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := WrapWithOperation(cause, "search registry")
	if !errors.Is(err, cause) {
		t.Error("errors.Is must reach the wrapped cause")
	}
}

func TestWrapHelpers_NilPassthrough(t *testing.T) {
	if WrapWithOperation(nil, "anything") != nil {
		t.Error("WrapWithOperation(nil, ...) must return nil")
	}
	if WrapWithContext(nil, "anything", "res") != nil {
		t.Error("WrapWithContext(nil, ...) must return nil")
	}
}

func TestErrorContext_Builder(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := NewErrorContext().
		WithOperation("resolve service index").
		WithResource("https://api.nuget.org/v3/index.json").
		WithSuggestion("Check the source URL").
		WithSuggestions("Verify network connectivity", "Try 'nugo ping'").
		Wrap(cause).
		Build()

	if err == nil {
		t.Fatal("Build returned nil")
	}
	if err.Operation != "resolve service index" || err.Resource == "" {
		t.Errorf("built error = %+v", err)
	}
	if len(err.Suggestions) != 3 {
		t.Errorf("suggestions = %v", err.Suggestions)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not preserved")
	}
	if !err.HasSuggestions() {
		t.Error("HasSuggestions() = false")
	}
}

func TestErrorContext_RequiresOperation(t *testing.T) {
	if NewErrorContext().WithResource("x").Build() != nil {
		t.Error("Build without operation must return nil")
	}
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError without operation must return nil")
	}
}
