// SPDX-License-Identifier: MPL-2.0

// Package registry resolves a registry source URL into its service index
// and selects concrete endpoint URLs from the advertised resources.
package registry

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResourceType is the logical name of a registry capability, the part of
// an advertised "@type" before the "/version" suffix.
type ResourceType string

const (
	PackagePublish            ResourceType = "PackagePublish"
	SearchQueryService        ResourceType = "SearchQueryService"
	RegistrationsBaseURL      ResourceType = "RegistrationsBaseUrl"
	PackageBaseAddress        ResourceType = "PackageBaseAddress"
	Catalog                   ResourceType = "Catalog"
	SearchAutocompleteService ResourceType = "SearchAutocompleteService"
	RepositorySignatures      ResourceType = "RepositorySignatures"
	SymbolPackagePublish      ResourceType = "SymbolPackagePublish"
)

// supportedVersions lists, per resource type, the API versions this client
// can speak, highest preference first. The empty string stands for an
// unversioned "@type", which servers use for a type's base version.
var supportedVersions = map[ResourceType][]string{
	PackagePublish:            {"2.0.0"},
	SearchQueryService:        {"3.5.0", "3.0.0-rc", "3.0.0-beta", ""},
	RegistrationsBaseURL:      {"3.6.0", "3.4.0", "3.0.0-rc", "3.0.0-beta", ""},
	PackageBaseAddress:        {"3.0.0"},
	Catalog:                   {"3.0.0"},
	SearchAutocompleteService: {"3.5.0", "3.0.0-beta", ""},
	RepositorySignatures:      {"5.0.0", "4.9.0", "4.7.0"},
	SymbolPackagePublish:      {"4.9.0"},
}

type (
	// Resource is one advertised endpoint in a service index. Unknown types
	// and missing optional fields are tolerated and simply never selected.
	Resource struct {
		ID      string `json:"@id"`
		Type    string `json:"@type"`
		Comment string `json:"comment,omitempty"`
	}

	// ServiceIndex is the root document of a v3-style registry source.
	ServiceIndex struct {
		Version   string     `json:"version"`
		Resources []Resource `json:"resources"`
	}

	// MalformedIndexError reports a source whose index document could not
	// be decoded.
	MalformedIndexError struct {
		Source string
		Err    error
	}

	// NoMatchingResourceError reports a source that advertises no version
	// of a resource type this client supports.
	NoMatchingResourceError struct {
		Type ResourceType
	}
)

// Error implements the error interface.
func (e *MalformedIndexError) Error() string {
	return fmt.Sprintf("source %s returned a malformed service index: %v", e.Source, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *MalformedIndexError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *NoMatchingResourceError) Error() string {
	return fmt.Sprintf("service index advertises no supported version of %s", e.Type)
}

// ParseIndex decodes a service index document.
func ParseIndex(source string, data []byte) (*ServiceIndex, error) {
	var idx ServiceIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, &MalformedIndexError{Source: source, Err: err}
	}
	return &idx, nil
}

// splitType separates an advertised "@type" into its logical name and API
// version. "PackagePublish/2.0.0" yields ("PackagePublish", "2.0.0"); a
// bare "SearchQueryService" yields an empty version.
func splitType(advertised string) (name, version string) {
	name, version, _ = strings.Cut(advertised, "/")
	return name, version
}

// FindResource returns the endpoint URL for the highest client-supported
// API version of rt that the index advertises, walking the supported list
// in preference order. A source advertising only unsupported versions (or
// none at all) yields a *NoMatchingResourceError.
func (idx *ServiceIndex) FindResource(rt ResourceType) (string, error) {
	advertised := make(map[string]string) // api version -> endpoint URL
	for _, res := range idx.Resources {
		name, version := splitType(res.Type)
		if name != string(rt) || res.ID == "" {
			continue
		}
		if _, taken := advertised[version]; !taken {
			advertised[version] = res.ID
		}
	}
	for _, version := range supportedVersions[rt] {
		if url, ok := advertised[version]; ok {
			return url, nil
		}
	}
	return "", &NoMatchingResourceError{Type: rt}
}
