// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"nugo-cli/internal/registry"
	"nugo-cli/internal/transport"
)

type (
	// Search queries one page of the registry's search service. Pagination
	// is caller-driven through Skip/Take.
	Search struct {
		Query       string
		Skip        int
		Take        int
		Prerelease  bool
		PackageType string
	}

	// SearchPage is one page of search results.
	SearchPage struct {
		TotalHits int            `json:"totalHits"`
		Data      []SearchResult `json:"data"`
	}

	// SearchResult is one package record in a search page.
	SearchResult struct {
		ID             string   `json:"id"`
		Version        string   `json:"version"`
		Description    string   `json:"description"`
		Authors        []string `json:"authors"`
		TotalDownloads int64    `json:"totalDownloads"`
	}
)

// Execute implements Workflow.
func (s Search) Execute(ctx context.Context, wctx *Context) Outcome {
	idx, err := wctx.Resolver.Resolve(ctx, wctx.Source)
	if err != nil {
		return resolveFailure(wctx.Source, err)
	}
	endpoint, err := idx.FindResource(registry.SearchQueryService)
	if err != nil {
		return resolveFailure(wctx.Source, err)
	}

	query := url.Values{}
	query.Set("q", s.Query)
	query.Set("semVerLevel", "2.0.0")
	if s.Skip > 0 {
		query.Set("skip", strconv.Itoa(s.Skip))
	}
	if s.Take > 0 {
		query.Set("take", strconv.Itoa(s.Take))
	}
	if s.Prerelease {
		query.Set("prerelease", "true")
	}
	if s.PackageType != "" {
		query.Set("packageType", s.PackageType)
	}

	out := wctx.Transport.Send(ctx, transport.Request{
		Method:     http.MethodGet,
		URL:        endpoint + "?" + query.Encode(),
		Idempotent: true,
	})
	if !out.OK() {
		return transportFailure(out, "search")
	}

	var page SearchPage
	if err := json.Unmarshal(out.Body, &page); err != nil {
		return failure(StateTransportFailed, err, "search returned a malformed response")
	}

	result := success("%d packages matched %q (showing %d)", page.TotalHits, s.Query, len(page.Data))
	result.Search = &page
	return result
}
