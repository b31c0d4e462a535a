package checker

import (
	"context"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/fingerprint"
)

// CDNProbe reports CDN evidence headers and the providers they point to.
type CDNProbe struct {
	HTTP HTTPOptions
}

// Kind returns the probe kind.
func (p *CDNProbe) Kind() scan.Kind {
	return scan.KindCDN
}

// Execute fetches the page. Any response status is accepted because edge
// networks often answer bots with a challenge page.
func (p *CDNProbe) Execute(ctx context.Context, req scan.Request) scan.Result {
	pg, err := fetchPage(ctx, p.HTTP, req.Target.BaseURL(), false)
	if err != nil {
		return scan.FailFromError(p.Kind(), err)
	}

	return scan.Succeed(p.Kind(), scan.CDNPayload{
		Evidence:  fingerprint.CDNEvidence(pg.Header),
		Providers: fingerprint.MatchCDN(pg.Header),
	})
}
