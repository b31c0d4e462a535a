package scan

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Target is a validated host or IP that a scan session runs against.
type Target struct {
	original string
	scheme   string // "" when the caller gave a bare host
	host     string
	port     string
}

// ParseTarget parses a target string into a Target.
// This handles various input formats:
//   - example.com
//   - 203.0.113.7
//   - https://example.com
//   - http://example.com:8080/path (path is dropped)
//   - example.com:8443
//   - [2001:db8::1]:443
func ParseTarget(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, secaerrors.ErrEmptyTarget
	}

	t := Target{original: trimmed}

	// Bare IPv6 literals are ambiguous to url.Parse.
	if ip := net.ParseIP(trimmed); ip != nil {
		t.host = ip.String()
		return t, nil
	}

	candidate := trimmed
	if i := strings.Index(candidate, "://"); i >= 0 {
		t.scheme = strings.ToLower(candidate[:i])
		if t.scheme != "http" && t.scheme != "https" {
			return Target{}, fmt.Errorf("%w: unsupported scheme %q", secaerrors.ErrInvalidTarget, t.scheme)
		}
	} else {
		candidate = "placeholder://" + candidate
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", secaerrors.ErrInvalidTarget, err)
	}

	t.host = strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	t.port = parsed.Port()
	if t.host == "" {
		return Target{}, fmt.Errorf("%w: no host in %q", secaerrors.ErrInvalidTarget, raw)
	}
	if strings.ContainsAny(t.host, " /\\@") {
		return Target{}, fmt.Errorf("%w: malformed host %q", secaerrors.ErrInvalidTarget, t.host)
	}

	return t, nil
}

// MustParseTarget is ParseTarget for literals known to be valid.
func MustParseTarget(raw string) Target {
	t, err := ParseTarget(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Original returns the string the target was parsed from.
func (t Target) Original() string { return t.original }

// Host returns the bare hostname or IP literal.
func (t Target) Host() string { return t.host }

// Port returns the explicit port, or "".
func (t Target) Port() string { return t.port }

// Scheme returns the explicit scheme, or "".
func (t Target) Scheme() string { return t.scheme }

// IsIP reports whether the host is an IP literal.
func (t Target) IsIP() bool { return net.ParseIP(t.host) != nil }

// IsZero reports whether t is the zero Target.
func (t Target) IsZero() bool { return t.host == "" }

func (t Target) String() string {
	if t.port != "" {
		return net.JoinHostPort(t.host, t.port)
	}
	return t.host
}

// BaseURL is the page URL probes fetch. Bare targets default to https.
func (t Target) BaseURL() string {
	scheme := t.scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + t.hostPort(t.port) + "/"
}

// URL resolves path against BaseURL.
func (t Target) URL(path string) string {
	return strings.TrimSuffix(t.BaseURL(), "/") + "/" + strings.TrimPrefix(path, "/")
}

// PlainHTTPURL is the http:// variant used to check for an HTTPS redirect.
// An explicit port is kept unless it is the https port.
func (t Target) PlainHTTPURL() string {
	port := t.port
	if port == "443" || (t.scheme == "https" && port != "") {
		port = ""
	}
	return "http://" + t.hostPort(port) + "/"
}

// TLSAddress is host:port for a raw TLS handshake. Defaults to 443.
func (t Target) TLSAddress() string {
	port := "443"
	if t.port != "" && t.scheme != "http" {
		port = t.port
	}
	return net.JoinHostPort(t.host, port)
}

func (t Target) hostPort(port string) string {
	if port != "" {
		return net.JoinHostPort(t.host, port)
	}
	if strings.Contains(t.host, ":") {
		return "[" + t.host + "]"
	}
	return t.host
}
