// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"nugo-cli/internal/registry"
	"nugo-cli/internal/transport"
)

type (
	// View fetches a package's registration index: the catalog of every
	// published version with its metadata.
	View struct {
		ID string
	}

	// RegistrationIndex is the root registration document for one package.
	RegistrationIndex struct {
		Count int                `json:"count"`
		Items []RegistrationPage `json:"items"`
	}

	// RegistrationPage groups a contiguous version range of catalog leaves.
	// Servers may omit Items and point at an external page instead.
	RegistrationPage struct {
		ID    string             `json:"@id"`
		Lower string             `json:"lower"`
		Upper string             `json:"upper"`
		Count int                `json:"count"`
		Items []RegistrationLeaf `json:"items"`
	}

	// RegistrationLeaf is one published version.
	RegistrationLeaf struct {
		CatalogEntry   CatalogEntry `json:"catalogEntry"`
		PackageContent string       `json:"packageContent"`
	}

	// CatalogEntry is the metadata recorded for a published version.
	CatalogEntry struct {
		ID          string `json:"id"`
		Version     string `json:"version"`
		Description string `json:"description"`
		Authors     string `json:"authors"`
		Published   string `json:"published"`
		Listed      *bool  `json:"listed"`
	}
)

// Execute implements Workflow.
func (v View) Execute(ctx context.Context, wctx *Context) Outcome {
	idx, err := wctx.Resolver.Resolve(ctx, wctx.Source)
	if err != nil {
		return resolveFailure(wctx.Source, err)
	}
	base, err := idx.FindResource(registry.RegistrationsBaseURL)
	if err != nil {
		return resolveFailure(wctx.Source, err)
	}

	// Registration paths address packages by lowercase id.
	url := strings.TrimRight(base, "/") + "/" + strings.ToLower(v.ID) + "/index.json"
	out := wctx.Transport.Send(ctx, transport.Request{
		Method:     http.MethodGet,
		URL:        url,
		Idempotent: true,
	})
	if !out.OK() {
		if out.HTTPStatus == http.StatusNotFound {
			return failure(StateNotFound, nil, "package %s does not exist on %s", v.ID, wctx.Source)
		}
		return transportFailure(out, "view")
	}

	var reg RegistrationIndex
	if err := json.Unmarshal(out.Body, &reg); err != nil {
		return failure(StateTransportFailed, err, "registration index for %s is malformed", v.ID)
	}

	result := success("%s has %d registration page(s)", v.ID, reg.Count)
	result.Registration = &reg
	return result
}

// Versions flattens the inline leaves into the list of version strings, in
// document order. Pages without inline items contribute nothing.
func (r *RegistrationIndex) Versions() []string {
	var versions []string
	for _, page := range r.Items {
		for _, leaf := range page.Items {
			versions = append(versions, leaf.CatalogEntry.Version)
		}
	}
	return versions
}
