// SPDX-License-Identifier: MPL-2.0

// Package workflows holds the closed set of registry operations the CLI
// exposes. Each workflow is a value implementing Execute against a
// Context, so concurrent workflows against different registries never
// share ambient state.
package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"nugo-cli/internal/registry"
	"nugo-cli/internal/transport"
)

// State is the terminal classification of a workflow run. Every state maps
// to a stable exit-code category so scripts can branch on the result.
type State int

const (
	// StateSuccess means the operation reached its target state, including
	// repeats of an already-applied idempotent toggle.
	StateSuccess State = iota
	// StateValidationFailed means local input (manifest, arguments) was
	// rejected before any network call.
	StateValidationFailed
	// StateUnauthenticated means the operation needs an API key and none
	// was configured, or the registry rejected the one provided.
	StateUnauthenticated
	// StateNotFound means the target package, version, or resource does
	// not exist on the registry.
	StateNotFound
	// StateConflict means the registry already holds the exact package
	// identity being pushed.
	StateConflict
	// StateTransportFailed means the exchange failed at the HTTP level
	// after the retry budget was spent.
	StateTransportFailed
)

// ExitCode maps the state to its stable process exit code.
func (s State) ExitCode() int {
	switch s {
	case StateSuccess:
		return 0
	case StateValidationFailed:
		return 2
	case StateUnauthenticated:
		return 3
	case StateNotFound:
		return 4
	case StateConflict:
		return 5
	case StateTransportFailed:
		return 6
	default:
		return 1
	}
}

// String renders the state for logs and JSON output.
func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateValidationFailed:
		return "validation_failed"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateNotFound:
		return "not_found"
	case StateConflict:
		return "conflict"
	case StateTransportFailed:
		return "transport_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type (
	// Credentials binds an API key to the source it authenticates against.
	Credentials struct {
		Source string `json:"source" toml:"source"`
		APIKey string `json:"-" toml:"api_key"`
	}

	// Context carries everything a workflow needs: no globals, so two
	// workflows against different registries are independent by
	// construction.
	Context struct {
		Source      string
		Credentials *Credentials
		Resolver    *registry.Resolver
		Transport   *transport.Client
		Logger      *log.Logger
	}

	// Workflow is one registry operation. Execute blocks until the
	// operation reaches a terminal state or ctx is done.
	Workflow interface {
		Execute(ctx context.Context, wctx *Context) Outcome
	}

	// Outcome is a workflow's terminal result. Exactly one of the typed
	// report fields is set, matching the workflow that produced it.
	Outcome struct {
		State      State
		Message    string
		HTTPStatus int
		Err        error

		Search       *SearchPage
		Registration *RegistrationIndex
		Ping         *PingReport
		Credentials  *Credentials
	}
)

// NewContext assembles a workflow context with defaults for the optional
// collaborators. Logger defaults to a discarding logger.
func NewContext(source string, resolver *registry.Resolver, client *transport.Client) *Context {
	return &Context{
		Source:    source,
		Resolver:  resolver,
		Transport: client,
		Logger:    log.New(io.Discard),
	}
}

// success builds a success outcome with a human-readable summary.
func success(format string, args ...any) Outcome {
	return Outcome{State: StateSuccess, Message: fmt.Sprintf(format, args...)}
}

// failure builds a non-success outcome with a human-readable summary.
func failure(state State, err error, format string, args ...any) Outcome {
	return Outcome{State: state, Err: err, Message: fmt.Sprintf(format, args...)}
}

// resolveFailure classifies a resolver error into a workflow outcome.
func resolveFailure(source string, err error) Outcome {
	var noMatch *registry.NoMatchingResourceError
	if errors.As(err, &noMatch) {
		return failure(StateNotFound, err, "source %s: %v", source, err)
	}
	var malformed *registry.MalformedIndexError
	if errors.As(err, &malformed) {
		return failure(StateTransportFailed, err, "%v", err)
	}
	return failure(StateTransportFailed, err, "cannot reach source %s", source)
}

// transportFailure classifies a failed transport outcome into a workflow
// outcome, preserving the HTTP status and body excerpt for diagnosis.
func transportFailure(out transport.Outcome, operation string) Outcome {
	state := StateTransportFailed
	switch {
	case out.Reason == transport.ReasonUnauthenticated,
		out.HTTPStatus == http.StatusUnauthorized,
		out.HTTPStatus == http.StatusForbidden:
		state = StateUnauthenticated
	case out.HTTPStatus == http.StatusNotFound:
		state = StateNotFound
	case out.HTTPStatus == http.StatusConflict:
		state = StateConflict
	}
	msg := fmt.Sprintf("%s failed (%s", operation, out.Status)
	if out.HTTPStatus != 0 {
		msg += fmt.Sprintf(", HTTP %d", out.HTTPStatus)
	}
	if out.Attempts > 1 {
		msg += fmt.Sprintf(", %d attempts", out.Attempts)
	}
	msg += ")"
	if excerpt := bodyExcerpt(out.Body); excerpt != "" {
		msg += ": " + excerpt
	}
	return Outcome{State: state, Message: msg, HTTPStatus: out.HTTPStatus, Err: out.Err}
}

// bodyExcerpt trims a response body down to a single short diagnostic line.
func bodyExcerpt(body []byte) string {
	const maxExcerpt = 200
	s := string(body)
	for i, r := range s {
		if r == '\n' || i >= maxExcerpt {
			return s[:i]
		}
	}
	return s
}
