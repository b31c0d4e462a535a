// Package fingerprint classifies web technologies from response headers and
// page bodies using fixed signature tables.
//
// Every function in this package is pure: the same input always yields the
// same de-duplicated, sorted output regardless of table iteration order.
package fingerprint

import (
	"sort"
)

// Category groups fingerprints.
type Category string

const (
	CategoryCMS          Category = "cms"
	CategoryJSFramework  Category = "js-framework"
	CategoryCSSFramework Category = "css-framework"
	CategoryBackend      Category = "backend"
	CategoryDatabase     Category = "database"
	CategoryCDN          Category = "cdn"
	CategoryWAF          Category = "waf"
)

// ConfidenceDetected is the only confidence level; presence of a token is
// taken as sufficient evidence.
const ConfidenceDetected = "detected"

// UnidentifiedWAF labels a WAF seen only through a blocked request.
const UnidentifiedWAF = "Unidentified WAF"

// Fingerprint is one detected technology signal.
type Fingerprint struct {
	Category   Category `json:"category"`
	Label      string   `json:"label"`
	Confidence string   `json:"confidence"`
}

// New returns a detected fingerprint.
func New(category Category, label string) Fingerprint {
	return Fingerprint{Category: category, Label: label, Confidence: ConfidenceDetected}
}

type key struct {
	category Category
	label    string
}

// Set is an unordered collection de-duplicated by (category, label).
// The zero value is ready to use.
type Set struct {
	items map[key]Fingerprint
}

// Add inserts fingerprints, ignoring duplicates.
func (s *Set) Add(fps ...Fingerprint) {
	if s.items == nil {
		s.items = make(map[key]Fingerprint, len(fps))
	}
	for _, fp := range fps {
		if fp.Label == "" {
			continue
		}
		if fp.Confidence == "" {
			fp.Confidence = ConfidenceDetected
		}
		s.items[key{fp.Category, fp.Label}] = fp
	}
}

// Len returns the number of distinct fingerprints.
func (s *Set) Len() int {
	return len(s.items)
}

// Contains reports whether (category, label) is in the set.
func (s *Set) Contains(category Category, label string) bool {
	_, ok := s.items[key{category, label}]
	return ok
}

// Slice returns the fingerprints sorted by category then label.
func (s *Set) Slice() []Fingerprint {
	out := make([]Fingerprint, 0, len(s.items))
	for _, fp := range s.items {
		out = append(out, fp)
	}
	Sort(out)
	return out
}

// Sort orders fingerprints by category then label.
func Sort(fps []Fingerprint) {
	sort.Slice(fps, func(i, j int) bool {
		if fps[i].Category != fps[j].Category {
			return fps[i].Category < fps[j].Category
		}
		return fps[i].Label < fps[j].Label
	})
}

// Dedup returns fps de-duplicated and sorted.
func Dedup(fps []Fingerprint) []Fingerprint {
	var s Set
	s.Add(fps...)
	return s.Slice()
}
