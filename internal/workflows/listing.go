// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"nugo-cli/internal/registry"
	"nugo-cli/internal/transport"
	"nugo-cli/pkg/semver"
)

type (
	// Unlist hides a published version from search results. Unlisting an
	// already-unlisted version still succeeds: the version is in the
	// requested state either way.
	Unlist struct {
		ID      string
		Version semver.Version
	}

	// Relist restores a previously unlisted version. Like Unlist, the
	// operation is an idempotent toggle.
	Relist struct {
		ID      string
		Version semver.Version
	}
)

// Execute implements Workflow.
func (u Unlist) Execute(ctx context.Context, wctx *Context) Outcome {
	return toggleListing(ctx, wctx, http.MethodDelete, u.ID, u.Version, "unlist")
}

// Execute implements Workflow.
func (r Relist) Execute(ctx context.Context, wctx *Context) Outcome {
	return toggleListing(ctx, wctx, http.MethodPut, r.ID, r.Version, "relist")
}

// toggleListing performs the shared DELETE/PUT exchange against the
// publish endpoint's {id}/{version} sub-resource.
func toggleListing(ctx context.Context, wctx *Context, method, id string, version semver.Version, operation string) Outcome {
	idx, err := wctx.Resolver.Resolve(ctx, wctx.Source)
	if err != nil {
		return resolveFailure(wctx.Source, err)
	}
	endpoint, err := idx.FindResource(registry.PackagePublish)
	if err != nil {
		return resolveFailure(wctx.Source, err)
	}

	// The toggle converges on repeat calls, but it still mutates registry
	// state: once the server has answered, the exchange must not be re-sent.
	url := fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(endpoint, "/"), strings.ToLower(id), version.String())
	out := wctx.Transport.Send(ctx, transport.Request{
		Method:       method,
		URL:          url,
		RequiresAuth: true,
		Idempotent:   false,
	})
	if !out.OK() {
		if out.HTTPStatus == http.StatusNotFound {
			return failure(StateNotFound, nil, "%s@%s does not exist on %s", id, version.String(), wctx.Source)
		}
		return transportFailure(out, operation)
	}

	wctx.Logger.Info("listing toggled", "id", id, "version", version.String(), "operation", operation)
	return success("%sed %s@%s on %s", operation, id, version.String(), wctx.Source)
}
