// Package policy defines which window owners are attributed to the monitored software.
package policy

import (
	"strings"
	"unicode/utf8"
)

// DefaultIdentifier is the known name of the monitored software.
const DefaultIdentifier = "cluely"

// Signature identifies the monitored software by window owner name.
//
// Matching is case-insensitive substring against a single identifier, so
// "Cluely", "Cluely Helper" and "com.cluely.agent" all match. Owners that
// contain any exclusion never match; the exclusions cover this detector.
type Signature struct {
	ID         string
	Name       string
	Identifier string
	Exclusions []string
}

// NewCluelySignature returns the default signature.
func NewCluelySignature() Signature {
	return Signature{
		ID:         "cluely",
		Name:       "Cluely",
		Identifier: DefaultIdentifier,
		Exclusions: []string{"no-cluely", "nocluely"},
	}
}

// WithIdentifier returns a copy of s matching identifier instead.
// An empty identifier leaves s unchanged.
func (s Signature) WithIdentifier(identifier string) Signature {
	if strings.TrimSpace(identifier) == "" {
		return s
	}
	s.Identifier = strings.TrimSpace(identifier)
	return s
}

// WithExclusions returns a copy of s with extra exclusions appended.
func (s Signature) WithExclusions(extra ...string) Signature {
	merged := make([]string, 0, len(s.Exclusions)+len(extra))
	merged = append(merged, s.Exclusions...)
	for _, e := range extra {
		if strings.TrimSpace(e) != "" {
			merged = append(merged, strings.TrimSpace(e))
		}
	}
	s.Exclusions = merged
	return s
}

// Valid reports whether an owner name can be classified at all.
// Empty names and names that are not valid UTF-8 are malformed.
func Valid(owner string) bool {
	return owner != "" && utf8.ValidString(owner)
}

// Matches reports whether owner belongs to the monitored software.
func (s Signature) Matches(owner string) bool {
	if !Valid(owner) || s.Identifier == "" {
		return false
	}

	ownerLower := strings.ToLower(owner)
	for _, ex := range s.Exclusions {
		if strings.Contains(ownerLower, strings.ToLower(ex)) {
			return false
		}
	}

	return strings.Contains(ownerLower, strings.ToLower(s.Identifier))
}
