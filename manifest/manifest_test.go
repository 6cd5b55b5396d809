package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/typebind/errors"
)

const geoManifest = `
std:
  scope: typebind:std@0.2.0
  preinstantiate: false
modules:
  - scope: example:geo@0.1.0
    declare:
      - name: meters
        go: meters
        shape: f64
    sequences:
      - meters
      - sequence<meters>
  - scope: example:app@0.1.0
    sequences: [s32]
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(geoManifest))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Std.Scope != "typebind:std@0.2.0" {
		t.Errorf("Std.Scope = %q", m.Std.Scope)
	}
	if m.PreinstantiateStd() {
		t.Error("preinstantiate should be false")
	}
	if len(m.Modules) != 2 {
		t.Fatalf("got %d modules", len(m.Modules))
	}
	geo := m.Modules[0]
	if len(geo.Declare) != 1 || geo.Declare[0].Name != "meters" || geo.Declare[0].Shape != "f64" {
		t.Errorf("declare = %+v", geo.Declare)
	}
	if len(geo.Sequences) != 2 || geo.Sequences[1] != "sequence<meters>" {
		t.Errorf("sequences = %v", geo.Sequences)
	}
}

func TestParse_Defaults(t *testing.T) {
	m, err := Parse([]byte("modules: []\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if m.Std.Scope != DefaultStdScope {
		t.Errorf("Std.Scope = %q, want default", m.Std.Scope)
	}
	if !m.PreinstantiateStd() {
		t.Error("preinstantiate should default to true")
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		kind errors.Kind
	}{
		{"syntax", "modules: [", errors.KindInvalidInput},
		{"bad scope", "modules:\n  - scope: NotAScope\n", errors.KindInvalidInput},
		{"missing scope", "modules:\n  - sequences: [s32]\n", errors.KindInvalidInput},
		{"bad shape", "modules:\n  - scope: a:b\n    declare:\n      - {name: x, go: x, shape: u8}\n", errors.KindInvalidInput},
		{"bad sequence name", "modules:\n  - scope: a:b\n    sequences: [\"Vec<int>\"]\n", errors.KindInvalidInput},
		{"duplicate module", "modules:\n  - scope: a:b\n  - scope: a:b\n", errors.KindInvalidInput},
		{"duplicate declare", "modules:\n  - scope: a:b\n    declare:\n      - {name: x, go: x, shape: s32}\n      - {name: x, go: y, shape: s32}\n", errors.KindInvalidInput},
		{"std reused", "std: {scope: a:b}\nmodules:\n  - scope: a:b\n", errors.KindAlreadyDefined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if got := errors.KindOf(err); got != tt.kind {
				t.Fatalf("kind = %q, want %q (err %v)", got, tt.kind, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typebind.yaml")
	if err := os.WriteFile(path, []byte(geoManifest), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); errors.KindOf(err) != errors.KindNotFound {
		t.Fatalf("missing file: got %v", err)
	}
}

func TestShape(t *testing.T) {
	tests := []struct {
		name string
		want wit.Type
	}{
		{"bool", wit.Bool{}},
		{"s32", wit.S32{}},
		{"s64", wit.S64{}},
		{"f32", wit.F32{}},
		{"f64", wit.F64{}},
		{"string", wit.String{}},
	}
	for _, tt := range tests {
		got, ok := Shape(tt.name)
		if !ok || reflect.TypeOf(got) != reflect.TypeOf(tt.want) {
			t.Errorf("Shape(%q) = %v, %v", tt.name, got, ok)
		}
	}
	if _, ok := Shape("u8"); ok {
		t.Error("u8 is not a supported shape")
	}
}

func TestSequenceElem(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"sequence<s32>", "s32", true},
		{"sequence<sequence<f64>>", "sequence<f64>", true},
		{"s32", "", false},
		{"sequence<s32", "", false},
	}
	for _, tt := range tests {
		got, ok := SequenceElem(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("SequenceElem(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	props, ok := doc["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema has no properties: %s", data)
	}
	for _, key := range []string{"std", "modules"} {
		if _, ok := props[key]; !ok {
			t.Errorf("schema missing property %q", key)
		}
	}
}
