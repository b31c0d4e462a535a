package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Probe is an independent unit of reconnaissance work against a target.
// Implementations must be safe for concurrent use and must release every
// connection they open before Execute returns.
type Probe interface {
	// Kind returns the capability this probe implements.
	Kind() Kind

	// Execute runs the probe. It never panics on transport errors; failures
	// are reported through the returned Result.
	Execute(ctx context.Context, req Request) Result
}

// ProbeFunc adapts a function to the Probe interface.
type ProbeFunc struct {
	ProbeKind Kind
	Fn        func(ctx context.Context, req Request) Result
}

func (f ProbeFunc) Kind() Kind { return f.ProbeKind }

func (f ProbeFunc) Execute(ctx context.Context, req Request) Result {
	return f.Fn(ctx, req)
}

// Request is one probe invocation.
type Request struct {
	Target   Target
	Kind     Kind
	Deadline time.Time
	ScanMode string
}

// Session correlates a target with the requested probes for one
// orchestration call.
type Session struct {
	ID        string
	Target    Target
	Kinds     []Kind
	Timeout   time.Duration
	ScanMode  string
	StartedAt time.Time
}

// NewSession validates the session contract and orders the kinds.
func NewSession(target Target, kinds []Kind, timeout time.Duration, scanMode string) (*Session, error) {
	if target.IsZero() {
		return nil, secaerrors.ErrEmptyTarget
	}
	if len(kinds) == 0 {
		return nil, secaerrors.ErrEmptyProbeSet
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: got %s", secaerrors.ErrInvalidTimeout, timeout)
	}
	for _, k := range kinds {
		if !k.Known() {
			return nil, fmt.Errorf("%w: %q", secaerrors.ErrUnknownProbeKind, k)
		}
	}

	return &Session{
		ID:        uuid.NewString(),
		Target:    target,
		Kinds:     SortKinds(kinds),
		Timeout:   timeout,
		ScanMode:  scanMode,
		StartedAt: time.Now().UTC(),
	}, nil
}

// Registry maps kinds to probe implementations. It is built once and is
// read-only afterwards.
type Registry struct {
	probes map[Kind]Probe
}

// NewRegistry registers probes by their Kind.
func NewRegistry(probes ...Probe) (*Registry, error) {
	r := &Registry{probes: make(map[Kind]Probe, len(probes))}
	for _, p := range probes {
		if p == nil {
			return nil, secaerrors.ErrNilProbe
		}
		k := p.Kind()
		if _, dup := r.probes[k]; dup {
			return nil, fmt.Errorf("%w: %s", secaerrors.ErrDuplicateProbe, k)
		}
		r.probes[k] = p
	}
	return r, nil
}

// Lookup returns the probe for k.
func (r *Registry) Lookup(k Kind) (Probe, bool) {
	p, ok := r.probes[k]
	return p, ok
}

// Kinds lists registered kinds in report order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.probes))
	for k := range r.probes {
		kinds = append(kinds, k)
	}
	return SortKinds(kinds)
}
