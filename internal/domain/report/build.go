package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/fingerprint"
)

// Option adjusts how Build stamps a report.
type Option func(*Report)

// WithFinishedAt records when the session finished.
func WithFinishedAt(t time.Time) Option {
	return func(r *Report) {
		r.finishedAt = t
	}
}

var errNoResult = errors.New("probe produced no result")

// Build assembles a report from probe results. It does no I/O and never
// fails: requested kinds without a result, and results that break the
// success/failure invariant, become unknown failures. Results for kinds
// that were not requested are dropped. With a nil session the kinds are
// taken from results.
func Build(session *scan.Session, results map[scan.Kind]scan.Result, opts ...Option) *Report {
	r := &Report{
		results: make(map[scan.Kind]scan.Result),
	}

	if session != nil {
		r.sessionID = session.ID
		r.target = session.Target.String()
		r.scanMode = session.ScanMode
		r.startedAt = session.StartedAt
		r.kinds = scan.SortKinds(session.Kinds)
	} else {
		kinds := make([]scan.Kind, 0, len(results))
		for k := range results {
			kinds = append(kinds, k)
		}
		r.kinds = scan.SortKinds(kinds)
	}
	r.finishedAt = r.startedAt

	for _, k := range r.kinds {
		res, ok := results[k]
		switch {
		case !ok:
			res = scan.Fail(k, scan.ReasonUnknown, errNoResult)
		case res.Kind != k:
			res = scan.Fail(k, scan.ReasonUnknown, fmt.Errorf("result kind %q filed under %q", res.Kind, k))
		default:
			if err := res.Validate(); err != nil {
				res = scan.Fail(k, scan.ReasonUnknown, err).WithDuration(res.Duration)
			}
		}
		r.results[k] = res
	}

	r.missingHeaders, r.missingHeadersKnown = missingHeaders(r)
	r.posture = posture(r)
	r.fingerprints = mergeFingerprints(r)

	for _, opt := range opts {
		opt(r)
	}
	return r
}

func missingHeaders(r *Report) ([]string, bool) {
	p, ok := Payload[scan.SecurityHeadersPayload](r, scan.KindSecurityHeaders)
	if !ok {
		return nil, false
	}
	return append([]string{}, p.Missing...), true
}

// posture is good only on positive evidence from both the security header
// and TLS probes, poor on any negative evidence from either, and unknown
// when the evidence is incomplete.
func posture(r *Report) Posture {
	missing, headersKnown := r.missingHeaders, r.missingHeadersKnown
	tls, tlsKnown := Payload[scan.TLSPayload](r, scan.KindTLS)

	if (headersKnown && len(missing) > 0) || (tlsKnown && !tls.Valid) {
		return PosturePoor
	}
	if headersKnown && tlsKnown && r.Succeeded() > 0 {
		return PostureGood
	}
	return PostureUnknown
}

func mergeFingerprints(r *Report) []fingerprint.Fingerprint {
	var set fingerprint.Set

	if p, ok := Payload[scan.FingerprintPayload](r, scan.KindFingerprint); ok {
		set.Add(p.Fingerprints...)
	}
	if p, ok := Payload[scan.WAFPayload](r, scan.KindWAF); ok {
		set.Add(p.Fingerprints()...)
	}
	if p, ok := Payload[scan.CDNPayload](r, scan.KindCDN); ok {
		set.Add(p.Providers...)
	}

	return set.Slice()
}
