package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/domain/report"
	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/fingerprint"
)

var sectionTitles = map[scan.Kind]string{
	scan.KindHeaders:         "response headers",
	scan.KindSecurityHeaders: "security headers",
	scan.KindHTTPSRedirect:   "HTTPS redirect",
	scan.KindTLS:             "TLS certificate",
	scan.KindWAF:             "WAF",
	scan.KindCDN:             "CDN",
	scan.KindFingerprint:     "technology fingerprint",
	scan.KindPerformance:     "response time",
	scan.KindSEO:             "SEO metadata",
	scan.KindPortScan:        "open ports",
}

func sectionTitle(k scan.Kind) string {
	if t, ok := sectionTitles[k]; ok {
		return t
	}
	return string(k)
}

// renderReport prints a human-readable report. A failed probe is shown as
// "could not determine <section>" with its failure reason.
func renderReport(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "\n%s %s\n", colorTitle("Target:"), rep.Target())
	fmt.Fprintf(w, "%s %s\n", colorTitle("Session:"), rep.SessionID())
	fmt.Fprintf(w, "%s %s\n", colorTitle("Posture:"), formatPostureWithColor(rep.Posture()))

	for _, res := range rep.Results() {
		title := sectionTitle(res.Kind)
		fmt.Fprintf(w, "\n%s\n", colorTitle(strings.ToUpper(title[:1])+title[1:]))
		if !res.OK() {
			renderFailure(w, title, res)
			continue
		}
		renderPayload(w, res.Payload)
	}

	if fps := rep.Fingerprints(); len(fps) > 0 {
		fmt.Fprintf(w, "\n%s\n", colorTitle("Detected technologies"))
		renderFingerprints(w, fps)
	}

	fmt.Fprintf(w, "\n%s %d succeeded, %d failed in %s\n",
		colorInfo("✓"), rep.Succeeded(), rep.Failed(),
		rep.FinishedAt().Sub(rep.StartedAt()).Round(time.Millisecond))
}

func renderFailure(w io.Writer, title string, res scan.Result) {
	line := colorWarn("could not determine " + title)
	if res.Failure != nil {
		line += fmt.Sprintf(" (%s)", res.Failure.Reason)
	}
	fmt.Fprintf(w, "  %s\n", line)
}

func renderPayload(w io.Writer, payload scan.Payload) {
	switch p := payload.(type) {
	case scan.HeadersPayload:
		fmt.Fprintf(w, "  %s → %d\n", p.URL, p.StatusCode)
		for _, name := range p.Headers.Names() {
			fmt.Fprintf(w, "  %s: %s\n", name, p.Headers.Get(name))
		}
	case scan.SecurityHeadersPayload:
		for _, c := range p.Checks {
			status := "missing"
			if c.Present {
				status = "present"
			}
			fmt.Fprintf(w, "  %-28s %s\n", c.Name, formatStatusWithColor(status))
		}
	case scan.RedirectPayload:
		switch {
		case p.RedirectsToHTTPS && p.LocationIsHTTPS:
			fmt.Fprintf(w, "  %s %d → %s\n", colorSuccess("redirects to HTTPS"), p.StatusCode, p.Location)
		case p.RedirectsToHTTPS:
			fmt.Fprintf(w, "  %s %d → %s\n", colorWarn("redirects (not to HTTPS)"), p.StatusCode, p.Location)
		default:
			fmt.Fprintf(w, "  %s (status %d)\n", colorError("no redirection"), p.StatusCode)
		}
	case scan.TLSPayload:
		validity := colorSuccess("valid")
		if !p.Valid {
			validity = colorError("expired")
		} else if p.ExpiresSoon {
			validity = colorWarn("expires soon")
		}
		fmt.Fprintf(w, "  Issuer:  %s\n", p.Issuer)
		fmt.Fprintf(w, "  Expires: %s (%s)\n", p.Expires.Format(time.RFC3339), validity)
		fmt.Fprintf(w, "  Version: %s %s\n", p.Version, p.CipherSuite)
		if !p.Trusted {
			fmt.Fprintf(w, "  %s %s\n", colorWarn("untrusted:"), p.VerifyError)
		}
	case scan.WAFPayload:
		label := p.Label()
		if p.Detected {
			label = colorSuccess(label)
		}
		fmt.Fprintf(w, "  %s\n", label)
	case scan.CDNPayload:
		if !p.Detected() {
			fmt.Fprintln(w, "  No CDN detected")
			return
		}
		renderFingerprints(w, p.Providers)
		keys := make([]string, 0, len(p.Evidence))
		for k := range p.Evidence {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, p.Evidence[k])
		}
	case scan.FingerprintPayload:
		if len(p.Fingerprints) == 0 && p.Server == "" && p.PoweredBy == "" {
			fmt.Fprintln(w, "  No technologies detected")
		}
		renderFingerprints(w, p.Fingerprints)
		if p.Server != "" {
			fmt.Fprintf(w, "  Server: %s\n", p.Server)
		}
		if p.PoweredBy != "" {
			fmt.Fprintf(w, "  X-Powered-By: %s\n", p.PoweredBy)
		}
		if p.FaviconHash != nil {
			fmt.Fprintf(w, "  Favicon hash: %d\n", *p.FaviconHash)
		}
	case scan.PerformancePayload:
		fmt.Fprintf(w, "  %s (status %d)\n", p.Elapsed.Round(time.Millisecond), p.StatusCode)
	case scan.SEOPayload:
		fmt.Fprintf(w, "  Title:       %s\n", orDash(p.Title))
		fmt.Fprintf(w, "  Description: %s\n", orDash(p.Description))
		fmt.Fprintf(w, "  Canonical:   %s\n", orDash(p.CanonicalURL))
		fmt.Fprintf(w, "  robots.txt:  %s\n", formatStatusWithColor(yesNo(p.RobotsTxtFound)))
		fmt.Fprintf(w, "  sitemap.xml: %s\n", formatStatusWithColor(yesNo(p.SitemapURL != "")))
		fmt.Fprintf(w, "  HSTS:        %s\n", formatStatusWithColor(yesNo(p.HSTS)))
	case scan.PortScanPayload:
		fmt.Fprintf(w, "  %s (%s, %s)\n", p.Address, p.Mode, p.Backend)
		if len(p.Ports) == 0 {
			fmt.Fprintln(w, "  No open ports found")
			return
		}
		for _, port := range p.Ports {
			line := fmt.Sprintf("  %5d/%s  %s", port.Number, port.Protocol, port.Service)
			if detail := strings.TrimSpace(port.Product + " " + port.Version); detail != "" {
				line += "  " + detail
			}
			fmt.Fprintln(w, line)
		}
	default:
		fmt.Fprintf(w, "  %v\n", p)
	}
}

func renderFingerprints(w io.Writer, fps []fingerprint.Fingerprint) {
	for _, fp := range fps {
		fmt.Fprintf(w, "  [%s] %s\n", fp.Category, fp.Label)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
