// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"context"
	"time"

	"nugo-cli/internal/registry"
)

type (
	// Ping checks that a source is alive: it resolves the service index
	// and reports the endpoints the client would use. Needs no credentials.
	Ping struct{}

	// PingReport summarizes a successful ping.
	PingReport struct {
		Source    string            `json:"source"`
		RoundTrip time.Duration     `json:"roundTrip"`
		Endpoints map[string]string `json:"endpoints"`
	}
)

// probedTypes are the resource types a ping reports on, in display order.
var probedTypes = []registry.ResourceType{
	registry.PackagePublish,
	registry.SearchQueryService,
	registry.RegistrationsBaseURL,
	registry.PackageBaseAddress,
	registry.Catalog,
}

// Execute implements Workflow.
func (Ping) Execute(ctx context.Context, wctx *Context) Outcome {
	start := time.Now()
	idx, err := wctx.Resolver.Refresh(ctx, wctx.Source)
	if err != nil {
		return resolveFailure(wctx.Source, err)
	}
	elapsed := time.Since(start)

	report := &PingReport{
		Source:    wctx.Source,
		RoundTrip: elapsed,
		Endpoints: make(map[string]string, len(probedTypes)),
	}
	for _, rt := range probedTypes {
		if url, err := idx.FindResource(rt); err == nil {
			report.Endpoints[string(rt)] = url
		}
	}

	out := success("source %s is up (%d resources, %s)", wctx.Source, len(idx.Resources), elapsed.Round(time.Millisecond))
	out.Ping = report
	return out
}
