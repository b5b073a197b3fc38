// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"strings"
	"testing"
)

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"id"}, "id"},
		{[]string{"files", "0", "target"}, "files[0].target"},
		{[]string{"dependencies", "Newtonsoft.Json"}, "dependencies.Newtonsoft.Json"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "nupkg.cue"); err != nil {
		t.Errorf("size at limit should pass: %v", err)
	}
	if err := CheckFileSize([]byte{}, 100, "nupkg.cue"); err != nil {
		t.Errorf("empty input should pass: %v", err)
	}
	err := CheckFileSize(make([]byte, 101), 100, "nupkg.cue")
	if err == nil {
		t.Fatal("size over limit should fail")
	}
	if !strings.Contains(err.Error(), "nupkg.cue") {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestParseAndDecode_SchemaViolation(t *testing.T) {
	t.Parallel()

	schema := []byte("#Thing: {\n\tname: string\n\tcount: int\n}\n")

	type thing struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	good, err := ParseAndDecode[thing](schema, []byte(`name: "a", count: 2`), "#Thing")
	if err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}
	if good.Value.Name != "a" || good.Value.Count != 2 {
		t.Errorf("decoded %+v, want {a 2}", *good.Value)
	}

	if _, err := ParseAndDecode[thing](schema, []byte(`name: "a", count: "two"`), "#Thing", WithFilename("bad.cue")); err == nil {
		t.Fatal("type mismatch should fail validation")
	} else if !strings.Contains(err.Error(), "bad.cue") {
		t.Errorf("error should name the file: %v", err)
	}
}
