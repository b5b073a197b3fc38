// SPDX-License-Identifier: MPL-2.0

package nuspec

import (
	"bytes"
	"testing"
)

func sampleManifest(t *testing.T) *Manifest {
	t.Helper()
	dir := t.TempDir()
	writeContent(t, dir, "bin/a.dll")
	doc := `
id: "Sample.Pkg"
version: "1.0.0"
title: "Sample"
description: "A sample package."
authors: ["Ada Lovelace"]
dependencies: {
	"Newtonsoft.Json": "[12.0.0,13.0.0)"
}
files: [{src: "bin/a.dll", target: "lib/a.dll"}]
`
	m, err := Parse([]byte(doc), dir)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func TestEncodeXML_Deterministic(t *testing.T) {
	t.Parallel()

	m := sampleManifest(t)
	first, err := m.EncodeXML()
	if err != nil {
		t.Fatalf("EncodeXML: %v", err)
	}
	second, err := m.EncodeXML()
	if err != nil {
		t.Fatalf("EncodeXML: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("two encodings of the same manifest differ")
	}
	if !bytes.HasPrefix(first, []byte(`<?xml version="1.0" encoding="UTF-8"?>`)) {
		t.Errorf("missing XML declaration:\n%s", first)
	}
	if !bytes.Contains(first, []byte(`version="[12.0.0,13.0.0)"`)) {
		t.Errorf("dependency range not preserved:\n%s", first)
	}
}

func TestXML_RoundTrip(t *testing.T) {
	t.Parallel()

	m := sampleManifest(t)
	encoded, err := m.EncodeXML()
	if err != nil {
		t.Fatalf("EncodeXML: %v", err)
	}
	back, err := DecodeXML(encoded)
	if err != nil {
		t.Fatalf("DecodeXML: %v", err)
	}
	if !m.Equal(back) {
		t.Errorf("round trip changed the manifest:\nbefore: %+v\nafter:  %+v", m, back)
	}
}

func TestDecodeXML_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := DecodeXML([]byte("not xml at all")); err == nil {
		t.Error("expected parse error for garbage input")
	}
	// Structurally valid XML with an invalid version must fail validation.
	bad := []byte(`<?xml version="1.0"?><package><metadata><id>X</id><version>nope</version></metadata></package>`)
	if _, err := DecodeXML(bad); err == nil {
		t.Error("expected validation error for bad version")
	}
}
