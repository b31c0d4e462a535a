package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/seca-recon/internal/domain/report"
	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Orchestrator fans a session out to its probes and joins every result
// into a report. It holds no per-session state and is safe for concurrent
// use.
type Orchestrator struct {
	registry       *scan.Registry
	maxConcurrency int
	rateLimit      float64
	logger         *zap.Logger
	onResult       func(scan.Result)
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithMaxConcurrency bounds in-flight probes. Zero runs every requested
// probe at once.
func WithMaxConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.maxConcurrency = n
	}
}

// WithRateLimit caps probe dispatches per second. Zero is unlimited.
func WithRateLimit(perSecond float64) OrchestratorOption {
	return func(o *Orchestrator) {
		o.rateLimit = perSecond
	}
}

// WithLogger sets the logger. nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithResultHook registers fn to be called as each probe finishes. fn may be
// called from several goroutines at once.
func WithResultHook(fn func(scan.Result)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.onResult = fn
	}
}

// NewOrchestrator creates an orchestrator over registry.
func NewOrchestrator(registry *scan.Registry, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every requested probe under its own timeout and returns the
// aggregated report. Probe failures are part of the report; the only errors
// are contract violations on the session itself.
func (o *Orchestrator) Run(ctx context.Context, session *scan.Session) (*report.Report, error) {
	if err := o.validate(session); err != nil {
		return nil, err
	}

	kinds := scan.SortKinds(session.Kinds)
	log := o.logger.With(
		zap.String("session_id", session.ID),
		zap.String("target", session.Target.String()),
	)
	log.Info("scan started",
		zap.Strings("probes", kindNames(kinds)),
		zap.Duration("probe_timeout", session.Timeout),
	)

	limit := o.maxConcurrency
	if limit <= 0 {
		limit = len(kinds)
	}

	var limiter *rate.Limiter
	if o.rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.rateLimit), 1)
	}

	// Each unit writes only its own slot.
	results := make([]scan.Result, len(kinds))

	// A plain Group: one unit's outcome never cancels another.
	var g errgroup.Group
	g.SetLimit(limit)

	for i, kind := range kinds {
		probe, _ := o.registry.Lookup(kind)
		g.Go(func() error {
			var res scan.Result
			if err := wait(ctx, limiter); err != nil {
				res = scan.FailFromError(kind, err)
			} else {
				res = o.runUnit(ctx, session, probe, kind)
			}
			results[i] = res
			if o.onResult != nil {
				o.onResult(res)
			}
			return nil
		})
	}
	_ = g.Wait()

	byKind := make(map[scan.Kind]scan.Result, len(results))
	for _, res := range results {
		byKind[res.Kind] = res
		fields := []zap.Field{
			zap.String("probe", string(res.Kind)),
			zap.String("status", string(res.Status)),
			zap.Duration("duration", res.Duration),
		}
		if !res.OK() {
			fields = append(fields, zap.String("reason", string(res.Reason())))
		}
		log.Debug("probe finished", fields...)
	}

	rep := report.Build(session, byKind, report.WithFinishedAt(time.Now().UTC()))
	log.Info("scan finished",
		zap.String("posture", string(rep.Posture())),
		zap.Int("succeeded", rep.Succeeded()),
		zap.Int("failed", rep.Failed()),
		zap.Duration("elapsed", rep.FinishedAt().Sub(rep.StartedAt())),
	)
	return rep, nil
}

func (o *Orchestrator) validate(session *scan.Session) error {
	if session == nil {
		return fmt.Errorf("%w: nil session", secaerrors.ErrInvalidInput)
	}
	if session.Target.IsZero() {
		return secaerrors.ErrEmptyTarget
	}
	if len(session.Kinds) == 0 {
		return secaerrors.ErrEmptyProbeSet
	}
	if session.Timeout <= 0 {
		return fmt.Errorf("%w: got %s", secaerrors.ErrInvalidTimeout, session.Timeout)
	}
	if o.registry == nil {
		return fmt.Errorf("%w: no probes registered", secaerrors.ErrUnknownProbeKind)
	}
	for _, k := range session.Kinds {
		if _, ok := o.registry.Lookup(k); !ok {
			return fmt.Errorf("%w: %q", secaerrors.ErrUnknownProbeKind, k)
		}
	}
	return nil
}

// runUnit runs one probe under its own deadline. It returns when the probe
// does or when the deadline passes, whichever is first; a probe that ignores
// its context is abandoned and its late result discarded.
func (o *Orchestrator) runUnit(parent context.Context, session *scan.Session, probe scan.Probe, kind scan.Kind) scan.Result {
	start := time.Now()

	ctx, cancel := context.WithTimeout(parent, session.Timeout)
	defer cancel()

	deadline, _ := ctx.Deadline()
	req := scan.Request{
		Target:   session.Target,
		Kind:     kind,
		Deadline: deadline,
		ScanMode: session.ScanMode,
	}

	done := make(chan scan.Result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- scan.Fail(kind, scan.ReasonUnknown, fmt.Errorf("probe panicked: %v", rec))
			}
		}()
		done <- probe.Execute(ctx, req)
	}()

	var res scan.Result
	select {
	case res = <-done:
		// A probe that gave up because its deadline passed reports whatever
		// its transport saw; the unit outcome is still a timeout.
		if !res.OK() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res = scan.Fail(kind, scan.ReasonTimeout, timeoutError(kind, session.Timeout))
		}
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			res = scan.Fail(kind, scan.ReasonTimeout, timeoutError(kind, session.Timeout))
		} else {
			res = scan.FailFromError(kind, ctx.Err())
		}
	}

	res = normalize(kind, res)
	return res.WithDuration(time.Since(start))
}

// wait blocks until the limiter admits one dispatch. The returned error
// wraps the context error so it classifies like a cancelled unit.
func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	err := limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("waiting for dispatch: %w", ctxErr)
	}
	if _, ok := ctx.Deadline(); ok {
		// The limiter refuses early when the wait would outlast the deadline.
		return fmt.Errorf("waiting for dispatch: %w (%v)", context.DeadlineExceeded, err)
	}
	return fmt.Errorf("waiting for dispatch: %w", err)
}

func timeoutError(kind scan.Kind, timeout time.Duration) error {
	return fmt.Errorf("%s probe did not finish within %s: %w", kind, timeout, context.DeadlineExceeded)
}

// normalize enforces the result invariants at the probe boundary.
func normalize(kind scan.Kind, res scan.Result) scan.Result {
	if res.Kind != kind {
		return scan.Fail(kind, scan.ReasonUnknown, fmt.Errorf("probe returned result for %q", res.Kind))
	}
	if err := res.Validate(); err != nil {
		return scan.Fail(kind, scan.ReasonUnknown, err)
	}
	return res
}

func kindNames(kinds []scan.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
