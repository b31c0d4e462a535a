package scan

import (
	"time"

	"github.com/khanhnv2901/seca-recon/internal/fingerprint"
)

// HeadersPayload is the raw response of the Header Probe.
type HeadersPayload struct {
	URL        string  `json:"url"`
	StatusCode int     `json:"status_code"`
	Headers    Headers `json:"headers"`
}

func (HeadersPayload) ProbeKind() Kind { return KindHeaders }

// HeaderCheck records whether one checklist header was present.
type HeaderCheck struct {
	Name    string `json:"name"`
	Present bool   `json:"present"`
	Value   string `json:"value,omitempty"`
}

// SecurityHeadersPayload covers the fixed security header checklist.
type SecurityHeadersPayload struct {
	Checks  []HeaderCheck `json:"checks"`
	Missing []string      `json:"missing"`
}

func (SecurityHeadersPayload) ProbeKind() Kind { return KindSecurityHeaders }

// RedirectPayload classifies the plain-HTTP response.
type RedirectPayload struct {
	URL              string `json:"url"`
	StatusCode       int    `json:"status_code"`
	RedirectsToHTTPS bool   `json:"redirects_to_https"`
	Location         string `json:"location,omitempty"`
	LocationIsHTTPS  bool   `json:"location_is_https,omitempty"`
}

func (RedirectPayload) ProbeKind() Kind { return KindHTTPSRedirect }

// TLSPayload describes the leaf certificate and negotiated session.
type TLSPayload struct {
	Address     string    `json:"address"`
	Issuer      string    `json:"issuer"`
	Subject     string    `json:"subject,omitempty"`
	DNSNames    []string  `json:"dns_names,omitempty"`
	NotBefore   time.Time `json:"not_before"`
	Expires     time.Time `json:"expires"`
	Version     string    `json:"tls_version"`
	CipherSuite string    `json:"cipher_suite,omitempty"`
	SelfSigned  bool      `json:"self_signed"`
	Valid       bool      `json:"valid"`
	ExpiresSoon bool      `json:"expires_soon"`
	Trusted     bool      `json:"trusted"`
	VerifyError string    `json:"verify_error,omitempty"`
}

func (TLSPayload) ProbeKind() Kind { return KindTLS }

// WAF evidence values.
const (
	WAFEvidenceSignature      = "header-signature"
	WAFEvidenceBlockedRequest = "blocked-request"
	WAFEvidenceNone           = "none"
)

// WAFPayload is the WAF verdict. Detected=false is an explicit "no WAF
// detected" answer, not a failure.
type WAFPayload struct {
	Detected      bool   `json:"detected"`
	Name          string `json:"name,omitempty"`
	Evidence      string `json:"evidence"`
	Header        string `json:"header,omitempty"`
	BlockedStatus int    `json:"blocked_status,omitempty"`
}

func (WAFPayload) ProbeKind() Kind { return KindWAF }

// Label is the human-readable verdict.
func (p WAFPayload) Label() string {
	switch {
	case p.Detected && p.Name != "":
		return p.Name
	case p.Detected:
		return "WAF detected (blocked SQL injection probe)"
	default:
		return "No WAF detected"
	}
}

// Fingerprints returns the WAF fingerprint, if any.
func (p WAFPayload) Fingerprints() []fingerprint.Fingerprint {
	if !p.Detected {
		return nil
	}
	label := p.Name
	if label == "" {
		label = fingerprint.UnidentifiedWAF
	}
	return []fingerprint.Fingerprint{fingerprint.New(fingerprint.CategoryWAF, label)}
}

// CDNPayload lists CDN evidence headers and recognised providers.
type CDNPayload struct {
	Evidence  map[string]string         `json:"evidence"`
	Providers []fingerprint.Fingerprint `json:"providers"`
}

func (CDNPayload) ProbeKind() Kind { return KindCDN }

// Detected reports whether any CDN evidence was seen.
func (p CDNPayload) Detected() bool {
	return len(p.Evidence) > 0 || len(p.Providers) > 0
}

// FingerprintPayload is the technology fingerprint of the page.
type FingerprintPayload struct {
	Fingerprints []fingerprint.Fingerprint `json:"fingerprints"`
	Server       string                    `json:"server,omitempty"`
	PoweredBy    string                    `json:"powered_by,omitempty"`
	FaviconHash  *int32                    `json:"favicon_hash,omitempty"`
}

func (FingerprintPayload) ProbeKind() Kind { return KindFingerprint }

// PerformancePayload is one timed GET round-trip.
type PerformancePayload struct {
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

func (PerformancePayload) ProbeKind() Kind { return KindPerformance }

// SEOPayload is the page metadata audit.
type SEOPayload struct {
	Title          string        `json:"title,omitempty"`
	Description    string        `json:"description,omitempty"`
	Keywords       string        `json:"keywords,omitempty"`
	OpenGraphTitle string        `json:"og_title,omitempty"`
	CanonicalURL   string        `json:"canonical_url,omitempty"`
	HSTS           bool          `json:"hsts"`
	RobotsTxtFound bool          `json:"robots_txt_found"`
	RobotsSitemaps []string      `json:"robots_sitemaps,omitempty"`
	SitemapURL     string        `json:"sitemap_url,omitempty"`
	LoadTime       time.Duration `json:"load_time_ns"`
}

func (SEOPayload) ProbeKind() Kind { return KindSEO }

// Port is one open port found by the port scanner.
type Port struct {
	Number   int    `json:"port"`
	Protocol string `json:"protocol"`
	Service  string `json:"service"`
	Product  string `json:"product,omitempty"`
	Version  string `json:"version,omitempty"`
	Banner   string `json:"banner,omitempty"`
}

// PortScanPayload lists open ports for the scanned address.
type PortScanPayload struct {
	Mode    string `json:"mode"`
	Address string `json:"address"`
	Backend string `json:"backend"`
	Ports   []Port `json:"ports"`
}

func (PortScanPayload) ProbeKind() Kind { return KindPortScan }
