package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

func okProbe(kind scan.Kind) scan.Probe {
	var payload scan.Payload = scan.PerformancePayload{StatusCode: 200}
	if kind == scan.KindHeaders {
		payload = scan.HeadersPayload{StatusCode: 200}
	}
	return scan.ProbeFunc{ProbeKind: kind, Fn: func(ctx context.Context, req scan.Request) scan.Result {
		return scan.Succeed(kind, payload)
	}}
}

func perfProbe() scan.Probe {
	return okProbe(scan.KindPerformance)
}

func newTestOrchestrator(t *testing.T, probes []scan.Probe, opts ...OrchestratorOption) *Orchestrator {
	t.Helper()
	registry, err := scan.NewRegistry(probes...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	opts = append([]OrchestratorOption{WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewOrchestrator(registry, opts...)
}

func newTestSession(t *testing.T, timeout time.Duration, kinds ...scan.Kind) *scan.Session {
	t.Helper()
	s, err := scan.NewSession(scan.MustParseTarget("example.com"), kinds, timeout, "quick")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestOrchestratorAbandonsHangingProbe(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	hanging := scan.ProbeFunc{ProbeKind: scan.KindTLS, Fn: func(ctx context.Context, req scan.Request) scan.Result {
		<-release
		return scan.Succeed(scan.KindTLS, scan.TLSPayload{Valid: true})
	}}
	o := newTestOrchestrator(t, []scan.Probe{hanging, perfProbe()})

	start := time.Now()
	rep, err := o.Run(context.Background(), newTestSession(t, 200*time.Millisecond, scan.KindTLS, scan.KindPerformance))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("hanging probe held the session for %s", elapsed)
	}

	tlsRes, _ := rep.Result(scan.KindTLS)
	if tlsRes.Reason() != scan.ReasonTimeout {
		t.Fatalf("expected timeout for hanging probe, got %+v", tlsRes)
	}
	perf, _ := rep.Result(scan.KindPerformance)
	if !perf.OK() {
		t.Fatalf("quick probe should succeed, got %+v", perf)
	}
}

func TestOrchestratorDeadlineFailureIsTimeout(t *testing.T) {
	probe := scan.ProbeFunc{ProbeKind: scan.KindHeaders, Fn: func(ctx context.Context, req scan.Request) scan.Result {
		if req.Deadline.IsZero() {
			return scan.Fail(scan.KindHeaders, scan.ReasonUnknown, errors.New("no deadline"))
		}
		<-ctx.Done()
		return scan.Fail(scan.KindHeaders, scan.ReasonConnectionError, ctx.Err())
	}}
	o := newTestOrchestrator(t, []scan.Probe{probe})

	rep, err := o.Run(context.Background(), newTestSession(t, 50*time.Millisecond, scan.KindHeaders))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	res, _ := rep.Result(scan.KindHeaders)
	if res.Reason() != scan.ReasonTimeout {
		t.Fatalf("expected timeout, got %+v", res)
	}
	if res.Duration <= 0 {
		t.Fatal("duration should be recorded")
	}
}

func TestOrchestratorResultsMatchRequestedKinds(t *testing.T) {
	o := newTestOrchestrator(t, []scan.Probe{
		okProbe(scan.KindPerformance),
		scan.ProbeFunc{ProbeKind: scan.KindSEO, Fn: func(ctx context.Context, req scan.Request) scan.Result {
			return scan.Succeed(scan.KindSEO, scan.SEOPayload{Title: "Home"})
		}},
		scan.ProbeFunc{ProbeKind: scan.KindWAF, Fn: func(ctx context.Context, req scan.Request) scan.Result {
			t.Error("unrequested probe executed")
			return scan.Fail(scan.KindWAF, scan.ReasonUnknown, nil)
		}},
	})

	rep, err := o.Run(context.Background(), newTestSession(t, time.Second, scan.KindSEO, scan.KindPerformance))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	kinds := rep.Kinds()
	if len(kinds) != 2 || kinds[0] != scan.KindPerformance || kinds[1] != scan.KindSEO {
		t.Fatalf("unexpected kinds %v", kinds)
	}
	if rep.Succeeded() != 2 {
		t.Fatalf("expected both probes to succeed, got %d", rep.Succeeded())
	}
}

func TestOrchestratorContainsMisbehavingProbes(t *testing.T) {
	o := newTestOrchestrator(t, []scan.Probe{
		scan.ProbeFunc{ProbeKind: scan.KindSEO, Fn: func(ctx context.Context, req scan.Request) scan.Result {
			panic("boom")
		}},
		scan.ProbeFunc{ProbeKind: scan.KindCDN, Fn: func(ctx context.Context, req scan.Request) scan.Result {
			return scan.Succeed(scan.KindWAF, scan.WAFPayload{})
		}},
		scan.ProbeFunc{ProbeKind: scan.KindWAF, Fn: func(ctx context.Context, req scan.Request) scan.Result {
			return scan.Result{Kind: scan.KindWAF, Status: scan.StatusSuccess}
		}},
	})

	rep, err := o.Run(context.Background(), newTestSession(t, time.Second, scan.KindSEO, scan.KindCDN, scan.KindWAF))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for _, res := range rep.Results() {
		if res.Reason() != scan.ReasonUnknown {
			t.Fatalf("%s: expected unknown failure, got %+v", res.Kind, res)
		}
	}
}

func TestOrchestratorConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	slow := func(kind scan.Kind) scan.Probe {
		return scan.ProbeFunc{ProbeKind: kind, Fn: func(ctx context.Context, req scan.Request) scan.Result {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			return scan.Succeed(kind, scan.HeadersPayload{})
		}}
	}

	kinds := []scan.Kind{scan.KindHeaders, scan.KindSecurityHeaders, scan.KindTLS, scan.KindWAF, scan.KindSEO}
	probes := make([]scan.Probe, 0, len(kinds))
	for _, k := range kinds {
		probes = append(probes, slow(k))
	}
	o := newTestOrchestrator(t, probes, WithMaxConcurrency(2))

	if _, err := o.Run(context.Background(), newTestSession(t, time.Second, kinds...)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := peak.Load(); got > 2 {
		t.Fatalf("expected at most 2 probes in flight, saw %d", got)
	}
}

func TestOrchestratorRejectsInvalidSessions(t *testing.T) {
	o := newTestOrchestrator(t, []scan.Probe{perfProbe()})
	target := scan.MustParseTarget("example.com")

	tests := []struct {
		name    string
		session *scan.Session
		want    error
	}{
		{"nil session", nil, secaerrors.ErrInvalidInput},
		{"zero target", &scan.Session{Kinds: []scan.Kind{scan.KindPerformance}, Timeout: time.Second}, secaerrors.ErrEmptyTarget},
		{"no kinds", &scan.Session{Target: target, Timeout: time.Second}, secaerrors.ErrEmptyProbeSet},
		{"no timeout", &scan.Session{Target: target, Kinds: []scan.Kind{scan.KindPerformance}}, secaerrors.ErrInvalidTimeout},
		{"unregistered kind", &scan.Session{Target: target, Kinds: []scan.Kind{scan.KindTLS}, Timeout: time.Second}, secaerrors.ErrUnknownProbeKind},
	}

	for _, tt := range tests {
		if _, err := o.Run(context.Background(), tt.session); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestOrchestratorLogsSessionLifecycle(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	registry, err := scan.NewRegistry(perfProbe())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	o := NewOrchestrator(registry, WithLogger(zap.New(core)))

	session := newTestSession(t, time.Second, scan.KindPerformance)
	if _, err := o.Run(context.Background(), session); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	finished := logs.FilterMessage("scan finished").All()
	if len(finished) != 1 {
		t.Fatalf("expected one scan finished entry, got %d", len(finished))
	}
	fields := finished[0].ContextMap()
	if fields["session_id"] != session.ID || fields["succeeded"] != int64(1) {
		t.Fatalf("unexpected fields %v", fields)
	}
	if logs.FilterMessage("probe finished").Len() != 1 {
		t.Fatal("expected a debug entry per probe")
	}
}

func TestOrchestratorRateLimitHonorsCancellation(t *testing.T) {
	o := newTestOrchestrator(t, []scan.Probe{okProbe(scan.KindPerformance), okProbe(scan.KindHeaders)}, WithRateLimit(0.001))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	rep, err := o.Run(ctx, newTestSession(t, time.Second, scan.KindPerformance, scan.KindHeaders))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if rep.Succeeded() != 1 || rep.Failed() != 1 {
		t.Fatalf("expected one dispatched and one starved probe, got %d/%d", rep.Succeeded(), rep.Failed())
	}
}

func TestOrchestratorRateLimitCancelMatchesUnitClassification(t *testing.T) {
	o := newTestOrchestrator(t, []scan.Probe{okProbe(scan.KindPerformance), okProbe(scan.KindHeaders)}, WithRateLimit(0.001))

	ctx, cancel := context.WithCancel(context.Background())
	timer := time.AfterFunc(50*time.Millisecond, cancel)
	defer timer.Stop()
	defer cancel()

	rep, err := o.Run(ctx, newTestSession(t, time.Second, scan.KindPerformance, scan.KindHeaders))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	var starved []scan.Result
	for _, res := range rep.Results() {
		if !res.OK() {
			starved = append(starved, res)
		}
	}
	if len(starved) != 1 {
		t.Fatalf("expected one starved probe, got %d", len(starved))
	}
	want := scan.ClassifyError(context.Canceled)
	if got := starved[0].Reason(); got != want || got == scan.ReasonTimeout {
		t.Fatalf("cancelled dispatch reason = %s, want %s", got, want)
	}
}

func TestWaitWrapsContextErrors(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := wait(ctx, limiter); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	if err := wait(cancelled, limiter); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}

	if err := wait(context.Background(), nil); err != nil {
		t.Fatalf("nil limiter must not block: %v", err)
	}
}

func TestOrchestratorResultHook(t *testing.T) {
	var calls atomic.Int32
	hook := func(res scan.Result) {
		if res.Kind == "" {
			t.Error("hook received a result without kind")
		}
		calls.Add(1)
	}
	o := newTestOrchestrator(t, []scan.Probe{perfProbe(), okProbe(scan.KindHeaders)}, WithResultHook(hook))

	if _, err := o.Run(context.Background(), newTestSession(t, time.Second, scan.KindPerformance, scan.KindHeaders)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected hook per probe, got %d calls", got)
	}
}
