package scan

import (
	"encoding/json"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

// Headers is a case-insensitive, read-only view of response headers.
// Keys are stored in canonical MIME form so lookups never depend on
// the casing a server chose.
type Headers struct {
	h http.Header
}

// NewHeaders copies h into a Headers value.
func NewHeaders(h http.Header) Headers {
	out := make(http.Header, len(h))
	for k, v := range h {
		key := textproto.CanonicalMIMEHeaderKey(k)
		out[key] = append(out[key], v...)
	}
	return Headers{h: out}
}

// HeadersFromMap builds Headers from single-valued pairs.
func HeadersFromMap(m map[string]string) Headers {
	out := make(http.Header, len(m))
	for k, v := range m {
		out.Add(k, v)
	}
	return Headers{h: out}
}

// Get returns the first value for name, or "".
func (h Headers) Get(name string) string {
	return h.h.Get(name)
}

// Has reports whether name is present, even with an empty value.
func (h Headers) Has(name string) bool {
	_, ok := h.h[textproto.CanonicalMIMEHeaderKey(name)]
	return ok
}

// Values returns all values for name.
func (h Headers) Values(name string) []string {
	return append([]string(nil), h.h.Values(name)...)
}

// Names returns the canonical header names in sorted order.
func (h Headers) Names() []string {
	names := make([]string, 0, len(h.h))
	for k := range h.h {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of distinct header names.
func (h Headers) Len() int {
	return len(h.h)
}

// HTTP returns a copy as http.Header.
func (h Headers) HTTP() http.Header {
	return h.h.Clone()
}

// MarshalJSON renders headers as a name -> joined value object.
func (h Headers) MarshalJSON() ([]byte, error) {
	flat := make(map[string]string, len(h.h))
	for k, v := range h.h {
		flat[k] = strings.Join(v, ", ")
	}
	return json.Marshal(flat)
}
