package checker

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/fingerprint"
	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

// FingerprintProbe runs the fingerprint matchers over the page body and
// headers. With Favicon set it also hashes the site icon.
type FingerprintProbe struct {
	HTTP    HTTPOptions
	Favicon bool
}

// Kind returns the probe kind.
func (p *FingerprintProbe) Kind() scan.Kind {
	return scan.KindFingerprint
}

// Execute fetches the page body. An empty fingerprint set is a success.
func (p *FingerprintProbe) Execute(ctx context.Context, req scan.Request) scan.Result {
	pg, err := fetchPage(ctx, p.HTTP, req.Target.BaseURL(), true)
	if err != nil {
		return scan.FailFromError(p.Kind(), err)
	}
	if !pg.is2xx() {
		return scan.Fail(p.Kind(), scan.ReasonUnexpectedStatus, errUnexpectedStatus(pg))
	}

	payload := scan.FingerprintPayload{
		Fingerprints: fingerprint.Match(string(pg.Body), pg.Header),
		Server:       pg.Header.Get("Server"),
		PoweredBy:    pg.Header.Get("X-Powered-By"),
	}

	if p.Favicon {
		// A missing icon leaves the hash unset; it never fails the probe.
		if hash, ok := p.faviconHash(ctx, pg); ok {
			payload.FaviconHash = &hash
		}
	}

	return scan.Succeed(p.Kind(), payload)
}

func (p *FingerprintProbe) faviconHash(ctx context.Context, pg *page) (int32, bool) {
	iconURL := faviconURL(pg.URL, pg.Body)
	if iconURL == "" {
		return 0, false
	}

	opts := p.HTTP
	opts.MaxBodyBytes = consts.MaxFaviconBytes
	icon, err := fetchPage(ctx, opts, iconURL, true)
	if err != nil || !icon.is2xx() || !isImage(icon) {
		return 0, false
	}
	return fingerprint.FaviconHash(icon.Body), true
}

// isImage rejects soft-404 and catch-all pages answered for the icon URL.
// A declared image type wins; otherwise the body is sniffed.
func isImage(icon *page) bool {
	if len(icon.Body) == 0 {
		return false
	}
	if mediaType, _, err := mime.ParseMediaType(icon.Header.Get("Content-Type")); err == nil {
		if strings.HasPrefix(mediaType, "image/") {
			return true
		}
		if mediaType != "application/octet-stream" && mediaType != "text/plain" {
			return false
		}
	}
	return strings.HasPrefix(http.DetectContentType(icon.Body), "image/")
}

// faviconURL returns the icon declared by a <link rel="...icon"> element,
// resolved against pageURL, or /favicon.ico when none is declared.
func faviconURL(pageURL string, body []byte) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	href := "/favicon.ico"
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		doc.Find("link[rel]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			rel := strings.ToLower(sel.AttrOr("rel", ""))
			v, ok := sel.Attr("href")
			if !strings.Contains(rel, "icon") || !ok || strings.TrimSpace(v) == "" {
				return true
			}
			href = strings.TrimSpace(v)
			return false
		})
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
