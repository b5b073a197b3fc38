// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"

	"nugo-cli/internal/transport"
)

type (
	// Resolver fetches and caches service indexes per source URL. Safe for
	// concurrent use: the cache is guarded and only ever replaced whole, so
	// readers never observe a partially updated index.
	Resolver struct {
		client *transport.Client
		logger *log.Logger

		mu    sync.RWMutex
		cache map[string]*ServiceIndex
	}

	// ResolverOption configures a Resolver during construction.
	ResolverOption func(*Resolver)

	// UnreachableError reports a source whose index could not be fetched.
	UnreachableError struct {
		Source  string
		Outcome transport.Outcome
	}
)

// Error implements the error interface.
func (e *UnreachableError) Error() string {
	if e.Outcome.HTTPStatus != 0 {
		return fmt.Sprintf("source %s is unreachable: HTTP %d after %d attempts",
			e.Source, e.Outcome.HTTPStatus, e.Outcome.Attempts)
	}
	return fmt.Sprintf("source %s is unreachable: %v", e.Source, e.Outcome.Err)
}

// Unwrap returns the underlying transport error, if any.
func (e *UnreachableError) Unwrap() error { return e.Outcome.Err }

// WithResolverLogger sets the structured logger used for resolution events.
func WithResolverLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a Resolver that fetches indexes through client.
func NewResolver(client *transport.Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client: client,
		logger: log.New(io.Discard),
		cache:  make(map[string]*ServiceIndex),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the service index for source, fetching it on first use
// and serving the cached copy afterwards for the process lifetime.
func (r *Resolver) Resolve(ctx context.Context, source string) (*ServiceIndex, error) {
	r.mu.RLock()
	idx, ok := r.cache[source]
	r.mu.RUnlock()
	if ok {
		return idx, nil
	}
	return r.Refresh(ctx, source)
}

// Refresh re-fetches the index for source and atomically replaces the
// cache slot. The previous copy stays valid for readers already holding it.
func (r *Resolver) Refresh(ctx context.Context, source string) (*ServiceIndex, error) {
	idx, err := r.fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[source] = idx
	r.mu.Unlock()

	r.logger.Debug("service index resolved", "source", source, "resources", len(idx.Resources))
	return idx, nil
}

func (r *Resolver) fetch(ctx context.Context, source string) (*ServiceIndex, error) {
	out := r.client.Send(ctx, transport.Request{
		Method:     http.MethodGet,
		URL:        source,
		Idempotent: true,
	})
	if !out.OK() {
		return nil, &UnreachableError{Source: source, Outcome: out}
	}
	return ParseIndex(source, out.Body)
}
