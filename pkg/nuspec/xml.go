// SPDX-License-Identifier: MPL-2.0

package nuspec

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// SchemaNamespace is the nuspec XML namespace written into canonical
// documents and tolerated (along with its absence) when reading.
const SchemaNamespace = "http://schemas.microsoft.com/packaging/2013/05/nuspec.xsd"

// xmlPackage is the wire shape of a .nuspec document. Field order here
// fixes the canonical element order.
type xmlPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Xmlns    string      `xml:"xmlns,attr"`
	Metadata xmlMetadata `xml:"metadata"`
	Files    *xmlFiles   `xml:"files,omitempty"`
}

type xmlMetadata struct {
	ID           string           `xml:"id"`
	Version      string           `xml:"version"`
	Title        string           `xml:"title,omitempty"`
	Authors      string           `xml:"authors,omitempty"`
	Description  string           `xml:"description,omitempty"`
	Dependencies *xmlDependencies `xml:"dependencies,omitempty"`
}

type xmlDependencies struct {
	Dependency []xmlDependency `xml:"dependency"`
}

type xmlDependency struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr"`
}

type xmlFiles struct {
	File []xmlFile `xml:"file"`
}

type xmlFile struct {
	Src    string `xml:"src,attr"`
	Target string `xml:"target,attr"`
}

// EncodeXML serializes the manifest into its canonical .nuspec form.
// The output is byte-for-byte deterministic for a given Manifest value:
// fixed element order, two-space indent, LF line endings, trailing newline.
func (m *Manifest) EncodeXML() ([]byte, error) {
	doc := xmlPackage{
		Xmlns: SchemaNamespace,
		Metadata: xmlMetadata{
			ID:          m.Identity.ID,
			Version:     m.Identity.Version.String(),
			Title:       m.Title,
			Authors:     strings.Join(m.Authors, ","),
			Description: m.Description,
		},
	}
	if len(m.Dependencies) > 0 {
		deps := &xmlDependencies{Dependency: make([]xmlDependency, 0, len(m.Dependencies))}
		for _, dep := range m.Dependencies {
			deps.Dependency = append(deps.Dependency, xmlDependency{ID: dep.ID, Version: dep.Range.String()})
		}
		doc.Metadata.Dependencies = deps
	}
	if len(m.Files) > 0 {
		files := &xmlFiles{File: make([]xmlFile, 0, len(m.Files))}
		for _, cf := range m.Files {
			files.File = append(files.File, xmlFile{Src: cf.Source, Target: cf.Target})
		}
		doc.Files = files
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode nuspec: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// DecodeXML parses a canonical .nuspec document back into a Manifest.
// Dependency ranges and the version are re-parsed, so a decoded manifest is
// equal to the one it was encoded from. Content-file existence is not
// checked; the archive itself is the source of truth at this point.
func DecodeXML(data []byte) (*Manifest, error) {
	var wire xmlPackage
	if err := xml.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse nuspec: %w", err)
	}

	doc := document{
		ID:          wire.Metadata.ID,
		Version:     wire.Metadata.Version,
		Title:       wire.Metadata.Title,
		Description: wire.Metadata.Description,
	}
	if wire.Metadata.Authors != "" {
		doc.Authors = strings.Split(wire.Metadata.Authors, ",")
	}
	if wire.Metadata.Dependencies != nil {
		doc.Dependencies = make(map[string]string, len(wire.Metadata.Dependencies.Dependency))
		for _, dep := range wire.Metadata.Dependencies.Dependency {
			doc.Dependencies[dep.ID] = dep.Version
		}
	}
	if wire.Files != nil {
		doc.Files = make([]fileMapping, 0, len(wire.Files.File))
		for _, f := range wire.Files.File {
			doc.Files = append(doc.Files, fileMapping{Src: f.Src, Target: f.Target})
		}
	}
	return doc.build("nuspec", "", false)
}
