package checker

import (
	"context"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/fingerprint"
)

// WAFProbe looks for a web application firewall in two stages: a header
// signature match on the normal page and, failing that, one adversarial
// request whose 403/406 answer is taken as a block.
type WAFProbe struct {
	HTTP HTTPOptions
}

// Kind returns the probe kind.
func (p *WAFProbe) Kind() scan.Kind {
	return scan.KindWAF
}

// Execute runs the detection. Any response status is accepted.
func (p *WAFProbe) Execute(ctx context.Context, req scan.Request) scan.Result {
	s := newHTTPSession(p.HTTP, true)
	defer s.Close()

	pg, err := s.get(ctx, req.Target.BaseURL(), false)
	if err != nil {
		return scan.FailFromError(p.Kind(), err)
	}

	if match, ok := fingerprint.MatchWAF(pg.Header); ok {
		return scan.Succeed(p.Kind(), scan.WAFPayload{
			Detected: true,
			Name:     match.Name,
			Evidence: scan.WAFEvidenceSignature,
			Header:   match.Header,
		})
	}

	blocked, err := s.get(ctx, req.Target.URL(fingerprint.WAFProbePath()), false)
	if err != nil {
		return scan.FailFromError(p.Kind(), err)
	}
	if fingerprint.IsWAFBlockStatus(blocked.StatusCode) {
		return scan.Succeed(p.Kind(), scan.WAFPayload{
			Detected:      true,
			Evidence:      scan.WAFEvidenceBlockedRequest,
			BlockedStatus: blocked.StatusCode,
		})
	}

	return scan.Succeed(p.Kind(), scan.WAFPayload{Evidence: scan.WAFEvidenceNone})
}
