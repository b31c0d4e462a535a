package checker

import (
	"context"
	"net/http"
	"strings"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
)

// HTTPSRedirectProbe requests the plain-HTTP variant of the target with
// redirects disabled and checks whether it sends the client elsewhere.
type HTTPSRedirectProbe struct {
	HTTP HTTPOptions
}

// Kind returns the probe kind.
func (p *HTTPSRedirectProbe) Kind() scan.Kind {
	return scan.KindHTTPSRedirect
}

// Execute issues the plain-HTTP GET.
func (p *HTTPSRedirectProbe) Execute(ctx context.Context, req scan.Request) scan.Result {
	s := newHTTPSession(p.HTTP, false)
	defer s.Close()

	target := req.Target.PlainHTTPURL()
	pg, err := s.get(ctx, target, false)
	if err != nil {
		return scan.FailFromError(p.Kind(), err)
	}

	return scan.Succeed(p.Kind(), ClassifyRedirect(target, pg.StatusCode, pg.Header.Get("Location")))
}

// ClassifyRedirect decides whether a plain-HTTP response redirects.
// Only 301 and 302 with a Location header count; 303, 307 and 308 are
// reported as "no redirection".
func ClassifyRedirect(url string, status int, location string) scan.RedirectPayload {
	payload := scan.RedirectPayload{
		URL:        url,
		StatusCode: status,
		Location:   location,
	}
	if (status == http.StatusMovedPermanently || status == http.StatusFound) && location != "" {
		payload.RedirectsToHTTPS = true
		payload.LocationIsHTTPS = strings.HasPrefix(strings.ToLower(location), "https://")
	}
	return payload
}
