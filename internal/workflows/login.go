// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"context"

	"nugo-cli/internal/registry"
)

// Login validates a candidate API key against a source: the source must
// resolve and advertise a publish endpoint the key could be used with. On
// success the outcome carries the Credentials for the caller to persist;
// the workflow itself never writes them anywhere.
type Login struct {
	APIKey string
}

// Execute implements Workflow.
func (l Login) Execute(ctx context.Context, wctx *Context) Outcome {
	if l.APIKey == "" {
		return failure(StateValidationFailed, nil, "an API key is required")
	}

	idx, err := wctx.Resolver.Refresh(ctx, wctx.Source)
	if err != nil {
		return resolveFailure(wctx.Source, err)
	}
	if _, err := idx.FindResource(registry.PackagePublish); err != nil {
		return resolveFailure(wctx.Source, err)
	}

	out := success("credentials accepted for %s", wctx.Source)
	out.Credentials = &Credentials{Source: wctx.Source, APIKey: l.APIKey}
	return out
}
