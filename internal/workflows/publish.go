// SPDX-License-Identifier: MPL-2.0

package workflows

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"nugo-cli/internal/registry"
	"nugo-cli/internal/transport"
	"nugo-cli/pkg/nupkg"
	"nugo-cli/pkg/nuspec"
)

// Publish pushes a package to the registry. It either builds the archive
// from a manifest or takes a prebuilt .nupkg file; exactly one of
// ManifestPath and ArchivePath must be set.
//
// Building strictly precedes the upload, and the upload is never retried
// once the registry has answered: a publish must be applied at most once.
type Publish struct {
	ManifestPath string
	ArchivePath  string
}

// Execute implements Workflow.
func (p Publish) Execute(ctx context.Context, wctx *Context) Outcome {
	archive, out := p.loadArchive()
	if archive == nil {
		return out
	}
	identity := archive.Manifest.Identity

	idx, err := wctx.Resolver.Resolve(ctx, wctx.Source)
	if err != nil {
		return resolveFailure(wctx.Source, err)
	}
	endpoint, err := idx.FindResource(registry.PackagePublish)
	if err != nil {
		return resolveFailure(wctx.Source, err)
	}

	body, contentType, err := multipartBody(identity, archive.Bytes)
	if err != nil {
		return failure(StateValidationFailed, err, "cannot assemble upload body")
	}

	result := wctx.Transport.Send(ctx, transport.Request{
		Method:       http.MethodPut,
		URL:          endpoint,
		Header:       http.Header{"Content-Type": []string{contentType}},
		Body:         body,
		RequiresAuth: true,
		Idempotent:   false,
	})
	if !result.OK() {
		if result.HTTPStatus == http.StatusConflict {
			return failure(StateConflict, nil, "%s already exists on %s", identity, wctx.Source)
		}
		return transportFailure(result, "publish")
	}

	wctx.Logger.Info("package published", "id", identity.ID, "version", identity.Version.String(), "source", wctx.Source)
	return success("published %s to %s", identity, wctx.Source)
}

// loadArchive produces the archive bytes to upload. On failure the
// returned archive is nil and the outcome is terminal.
func (p Publish) loadArchive() (*nupkg.Archive, Outcome) {
	switch {
	case p.ArchivePath != "" && p.ManifestPath != "":
		return nil, failure(StateValidationFailed, nil, "pass a manifest or a prebuilt archive, not both")
	case p.ArchivePath != "":
		archive, err := nupkg.Open(p.ArchivePath)
		if err != nil {
			return nil, failure(StateValidationFailed, err, "cannot read archive %s: %v", p.ArchivePath, err)
		}
		return archive, Outcome{}
	case p.ManifestPath != "":
		manifest, err := nuspec.Load(p.ManifestPath)
		if err != nil {
			return nil, failure(StateValidationFailed, err, "invalid manifest %s:\n%v", p.ManifestPath, err)
		}
		archive, err := nupkg.Build(manifest, os.DirFS(filepath.Dir(p.ManifestPath)))
		if err != nil {
			return nil, failure(StateValidationFailed, err, "cannot build archive: %v", err)
		}
		return archive, Outcome{}
	default:
		return nil, failure(StateValidationFailed, nil, "nothing to publish: no manifest or archive given")
	}
}

// multipartBody wraps the archive bytes in the multipart/form-data upload
// shape the publish endpoint expects.
func multipartBody(identity nuspec.Identity, archive []byte) (body []byte, contentType string, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	filename := fmt.Sprintf("%s.%s.nupkg", identity.ID, identity.Version)
	part, err := w.CreateFormFile("package", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(archive); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
