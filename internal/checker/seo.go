package checker

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/temoto/robotstxt"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
)

// SEOProbe audits page metadata plus robots.txt and sitemap.xml presence.
type SEOProbe struct {
	HTTP HTTPOptions
}

// Kind returns the probe kind.
func (p *SEOProbe) Kind() scan.Kind {
	return scan.KindSEO
}

// Execute fetches the page (2xx required), then robots.txt and sitemap.xml.
// Errors on the two side documents only mean "not found".
func (p *SEOProbe) Execute(ctx context.Context, req scan.Request) scan.Result {
	s := newHTTPSession(p.HTTP, true)
	defer s.Close()

	start := time.Now()
	pg, err := s.get(ctx, req.Target.BaseURL(), true)
	if err != nil {
		return scan.FailFromError(p.Kind(), err)
	}
	loadTime := time.Since(start)
	if !pg.is2xx() {
		return scan.Fail(p.Kind(), scan.ReasonUnexpectedStatus, errUnexpectedStatus(pg))
	}

	payload := ExtractSEO(pg.Body)
	payload.LoadTime = loadTime
	payload.HSTS = pg.Header.Get("Strict-Transport-Security") != ""

	if robots, err := s.get(ctx, req.Target.URL("/robots.txt"), true); err == nil && robots.StatusCode == http.StatusOK {
		payload.RobotsTxtFound = true
		if data, err := robotstxt.FromStatusAndBytes(robots.StatusCode, robots.Body); err == nil {
			payload.RobotsSitemaps = data.Sitemaps
		}
	}

	sitemapURL := req.Target.URL("/sitemap.xml")
	if sitemap, err := s.get(ctx, sitemapURL, false); err == nil && sitemap.StatusCode == http.StatusOK {
		payload.SitemapURL = sitemapURL
	}

	return scan.Succeed(p.Kind(), payload)
}

// ExtractSEO reads title, meta tags and the canonical link from an HTML page.
// Unparseable markup yields an empty payload.
func ExtractSEO(body []byte) scan.SEOPayload {
	var payload scan.SEOPayload

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return payload
	}

	payload.Title = strings.TrimSpace(doc.Find("title").First().Text())
	payload.Description = metaContent(doc, "name", "description")
	payload.Keywords = metaContent(doc, "name", "keywords")
	payload.OpenGraphTitle = metaContent(doc, "property", "og:title")

	doc.Find("link[rel]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(sel.AttrOr("rel", "")), "canonical") {
			payload.CanonicalURL = strings.TrimSpace(sel.AttrOr("href", ""))
			return false
		}
		return true
	})

	return payload
}

// metaContent returns the content of the first <meta> whose attr equals
// value, ignoring case.
func metaContent(doc *goquery.Document, attr, value string) string {
	var content string
	doc.Find("meta[" + attr + "]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(sel.AttrOr(attr, "")), value) {
			content = strings.TrimSpace(sel.AttrOr("content", ""))
			return false
		}
		return true
	})
	return content
}
