package scan

import (
	"fmt"
	"sort"
	"strings"

	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Kind identifies a probe capability.
type Kind string

const (
	KindHeaders         Kind = "headers"
	KindSecurityHeaders Kind = "security-headers"
	KindHTTPSRedirect   Kind = "https-redirect"
	KindTLS             Kind = "tls"
	KindWAF             Kind = "waf"
	KindCDN             Kind = "cdn"
	KindFingerprint     Kind = "fingerprint"
	KindPerformance     Kind = "performance"
	KindSEO             Kind = "seo"
	KindPortScan        Kind = "port-scan"
)

// AllKinds lists every known kind in report order.
var AllKinds = []Kind{
	KindHeaders,
	KindSecurityHeaders,
	KindHTTPSRedirect,
	KindTLS,
	KindWAF,
	KindCDN,
	KindFingerprint,
	KindPerformance,
	KindSEO,
	KindPortScan,
}

var kindOrder = func() map[Kind]int {
	m := make(map[Kind]int, len(AllKinds))
	for i, k := range AllKinds {
		m[k] = i
	}
	return m
}()

// Known reports whether k is one of AllKinds.
func (k Kind) Known() bool {
	_, ok := kindOrder[k]
	return ok
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	if !k.Known() {
		return "", fmt.Errorf("%w: %q", secaerrors.ErrUnknownProbeKind, name)
	}
	return k, nil
}

// ParseKinds parses a list of kind names. "all" expands to AllKinds.
func ParseKinds(names []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		if strings.EqualFold(strings.TrimSpace(name), "all") {
			return append([]Kind(nil), AllKinds...), nil
		}
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// SortKinds returns a de-duplicated copy of kinds in report order.
// Unknown kinds sort last, alphabetically.
func SortKinds(kinds []Kind) []Kind {
	seen := make(map[Kind]struct{}, len(kinds))
	out := make([]Kind, 0, len(kinds))
	for _, k := range kinds {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := kindOrder[out[i]]
		oj, jok := kindOrder[out[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}
