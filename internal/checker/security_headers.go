package checker

import (
	"context"
	"net/http"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
)

// SecurityHeaderChecklist is the fixed list of headers the security header
// probe reports on, in report order.
var SecurityHeaderChecklist = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
	"Permissions-Policy",
	"Access-Control-Allow-Origin",
}

// SecurityHeadersProbe checks the response for each checklist header.
// Each header is either present or missing; there is no partial credit.
type SecurityHeadersProbe struct {
	HTTP HTTPOptions
}

// Kind returns the probe kind.
func (p *SecurityHeadersProbe) Kind() scan.Kind {
	return scan.KindSecurityHeaders
}

// Execute fetches the page like the header probe and analyzes its headers.
func (p *SecurityHeadersProbe) Execute(ctx context.Context, req scan.Request) scan.Result {
	pg, err := fetchPage(ctx, p.HTTP, req.Target.BaseURL(), false)
	if err != nil {
		return scan.FailFromError(p.Kind(), err)
	}
	if !pg.is2xx() {
		return scan.Fail(p.Kind(), scan.ReasonUnexpectedStatus, errUnexpectedStatus(pg))
	}

	return scan.Succeed(p.Kind(), AnalyzeSecurityHeaders(pg.Header))
}

// AnalyzeSecurityHeaders evaluates headers against SecurityHeaderChecklist.
func AnalyzeSecurityHeaders(headers http.Header) scan.SecurityHeadersPayload {
	h := scan.NewHeaders(headers)
	payload := scan.SecurityHeadersPayload{
		Checks:  make([]scan.HeaderCheck, 0, len(SecurityHeaderChecklist)),
		Missing: []string{},
	}

	for _, name := range SecurityHeaderChecklist {
		check := scan.HeaderCheck{Name: name, Present: h.Has(name)}
		if check.Present {
			check.Value = h.Get(name)
		} else {
			payload.Missing = append(payload.Missing, name)
		}
		payload.Checks = append(payload.Checks, check)
	}

	return payload
}
