package checker

import (
	"context"
	"net/http/httptrace"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
)

// HeaderProbe fetches the target page once and returns its response headers.
type HeaderProbe struct {
	HTTP HTTPOptions
}

// Kind returns the probe kind.
func (p *HeaderProbe) Kind() scan.Kind {
	return scan.KindHeaders
}

// Execute performs a single GET. Non-2xx answers are failures.
func (p *HeaderProbe) Execute(ctx context.Context, req scan.Request) scan.Result {
	pg, err := fetchPage(ctx, p.HTTP, req.Target.BaseURL(), false)
	if err != nil {
		return scan.FailFromError(p.Kind(), err)
	}
	if !pg.is2xx() {
		return scan.Fail(p.Kind(), scan.ReasonUnexpectedStatus, errUnexpectedStatus(pg))
	}

	return scan.Succeed(p.Kind(), scan.HeadersPayload{
		URL:        pg.URL,
		StatusCode: pg.StatusCode,
		Headers:    scan.NewHeaders(pg.Header),
	})
}

// PerformanceProbe times one GET round-trip up to the response headers.
// Slow answers are still successes; only connection errors fail. The request
// has no dial or handshake timeout of its own, only the scan deadline.
type PerformanceProbe struct {
	HTTP HTTPOptions
}

// Kind returns the probe kind.
func (p *PerformanceProbe) Kind() scan.Kind {
	return scan.KindPerformance
}

// Execute measures the response time.
func (p *PerformanceProbe) Execute(ctx context.Context, req scan.Request) scan.Result {
	var (
		start       time.Time
		firstByteAt time.Time
	)
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() { firstByteAt = time.Now() },
	}
	ctx = httptrace.WithClientTrace(ctx, trace)

	opts := p.HTTP
	opts.deadlineOnly = true

	start = time.Now()
	pg, err := fetchPage(ctx, opts, req.Target.BaseURL(), false)
	if err != nil {
		return scan.FailFromError(p.Kind(), err)
	}

	elapsed := time.Since(start)
	if !firstByteAt.IsZero() {
		elapsed = firstByteAt.Sub(start)
	}

	return scan.Succeed(p.Kind(), scan.PerformancePayload{
		URL:        pg.URL,
		StatusCode: pg.StatusCode,
		Elapsed:    elapsed,
	})
}
