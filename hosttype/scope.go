package hosttype

import (
	"strings"

	"github.com/wippyai/typebind/errors"
)

// Scope names the module that owns a host-visible type.
// Scopes use WIT package syntax: "namespace:package[/interface][@version]".
type Scope string

// ParseScope validates s and returns it as a Scope.
func ParseScope(s string) (Scope, error) {
	path, ver, hasVer := strings.Cut(s, "@")
	if hasVer {
		if _, ok := ParseVersion(ver); !ok {
			return "", errors.InvalidInput(errors.PhaseConfig, "invalid scope version in "+s)
		}
	}

	ns, rest, ok := strings.Cut(path, ":")
	if !ok || !validIdent(ns) {
		return "", errors.InvalidInput(errors.PhaseConfig, "scope must be namespace:package: "+s)
	}
	for _, seg := range strings.Split(rest, "/") {
		if !validIdent(seg) {
			return "", errors.InvalidInput(errors.PhaseConfig, "invalid scope segment in "+s)
		}
	}
	return Scope(s), nil
}

// MustScope is like ParseScope but panics on error.
func MustScope(s string) Scope {
	sc, err := ParseScope(s)
	if err != nil {
		panic(err)
	}
	return sc
}

// Package returns the "namespace:package" part of the scope.
func (s Scope) Package() string {
	path, _, _ := strings.Cut(string(s), "@")
	pkg, _, _ := strings.Cut(path, "/")
	return pkg
}

// Version returns the scope's version, if it has one.
func (s Scope) Version() (Version, bool) {
	_, ver, ok := strings.Cut(string(s), "@")
	if !ok {
		return Version{}, false
	}
	return ParseVersion(ver)
}

func (s Scope) String() string {
	return string(s)
}

// validIdent accepts kebab-case WIT identifiers.
func validIdent(s string) bool {
	if s == "" || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-':
			if s[i-1] == '-' {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Version represents a semantic version attached to a scope
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
}

// ParseVersion parses a version string like "0.2.0" or "0.2"
func ParseVersion(s string) (Version, bool) {
	if s == "" {
		return Version{}, false
	}

	var v Version
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Version{}, false
	}

	for i, p := range parts {
		if p == "" {
			return Version{}, false
		}
		var n uint32
		for _, c := range p {
			if c < '0' || c > '9' {
				return Version{}, false
			}
			// Check for overflow before multiplication
			if n > 429496729 || (n == 429496729 && c > '5') {
				return Version{}, false
			}
			n = n*10 + uint32(c-'0')
		}
		switch i {
		case 0:
			v.Major = n
		case 1:
			v.Minor = n
		case 2:
			v.Patch = n
		}
	}
	return v, true
}

// String returns the version as "major.minor.patch"
func (v Version) String() string {
	var b strings.Builder
	b.Grow(16)
	writeUint(&b, v.Major)
	b.WriteByte('.')
	writeUint(&b, v.Minor)
	b.WriteByte('.')
	writeUint(&b, v.Patch)
	return b.String()
}

func writeUint(b *strings.Builder, n uint32) {
	if n == 0 {
		b.WriteByte('0')
		return
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	b.Write(buf[i:])
}
