package hosttype

import "testing"

func TestParseScope(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"example:geo", true},
		{"example:geo@0.1.0", true},
		{"example:geo/shapes@1.2", true},
		{"typebind:std@0.1.0", true},
		{"my-org:my-pkg/a-b", true},
		{"", false},
		{"geo", false},
		{"example:", false},
		{"Example:geo", false},
		{"example:geo@x.y", false},
		{"example:geo@", false},
		{"example:-geo", false},
		{"example:ge--o", false},
		{"example:geo//shapes", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseScope(tt.in)
			if tt.valid && err != nil {
				t.Fatalf("ParseScope(%q) failed: %v", tt.in, err)
			}
			if !tt.valid && err == nil {
				t.Fatalf("ParseScope(%q) should fail", tt.in)
			}
		})
	}
}

func TestScope_Parts(t *testing.T) {
	s := MustScope("example:geo/shapes@1.2.3")
	if s.Package() != "example:geo" {
		t.Errorf("Package = %q, want example:geo", s.Package())
	}
	v, ok := s.Version()
	if !ok {
		t.Fatal("Version should be present")
	}
	if v != (Version{Major: 1, Minor: 2, Patch: 3}) {
		t.Errorf("Version = %v", v)
	}
	if _, ok := MustScope("example:geo").Version(); ok {
		t.Error("unversioned scope reported a version")
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want Version
		ok   bool
	}{
		{"0.2.0", Version{0, 2, 0}, true},
		{"1", Version{1, 0, 0}, true},
		{"1.5", Version{1, 5, 0}, true},
		{"4294967295.0.0", Version{4294967295, 0, 0}, true},
		{"4294967296.0.0", Version{}, false},
		{"1.2.3.4", Version{}, false},
		{"1..2", Version{}, false},
		{"", Version{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseVersion(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseVersion(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	if s := (Version{Major: 10, Minor: 0, Patch: 7}).String(); s != "10.0.7" {
		t.Errorf("String = %q, want 10.0.7", s)
	}
}
