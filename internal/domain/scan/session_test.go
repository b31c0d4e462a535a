package scan

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

func TestNewSession(t *testing.T) {
	target := MustParseTarget("example.com")
	s, err := NewSession(target, []Kind{KindTLS, KindHeaders, KindTLS}, 5*time.Second, "quick")
	if err != nil {
		t.Fatalf("NewSession returned error: %v", err)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Fatalf("session ID should be a UUID: %v", err)
	}
	if !reflect.DeepEqual(s.Kinds, []Kind{KindHeaders, KindTLS}) {
		t.Fatalf("kinds should be de-duplicated and ordered, got %v", s.Kinds)
	}
	if s.StartedAt.Location() != time.UTC {
		t.Fatal("StartedAt should be UTC")
	}

	other, _ := NewSession(target, []Kind{KindTLS}, time.Second, "")
	if other.ID == s.ID {
		t.Fatal("session IDs must be unique")
	}
}

func TestNewSessionErrors(t *testing.T) {
	target := MustParseTarget("example.com")
	tests := []struct {
		name    string
		target  Target
		kinds   []Kind
		timeout time.Duration
		want    error
	}{
		{"zero target", Target{}, []Kind{KindTLS}, time.Second, secaerrors.ErrEmptyTarget},
		{"no kinds", target, nil, time.Second, secaerrors.ErrEmptyProbeSet},
		{"zero timeout", target, []Kind{KindTLS}, 0, secaerrors.ErrInvalidTimeout},
		{"negative timeout", target, []Kind{KindTLS}, -time.Second, secaerrors.ErrInvalidTimeout},
		{"unknown kind", target, []Kind{KindTLS, "dns"}, time.Second, secaerrors.ErrUnknownProbeKind},
	}

	for _, tt := range tests {
		if _, err := NewSession(tt.target, tt.kinds, tt.timeout, ""); !errors.Is(err, tt.want) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func stubProbe(kind Kind) Probe {
	return ProbeFunc{ProbeKind: kind, Fn: func(ctx context.Context, req Request) Result {
		return Fail(kind, ReasonUnknown, nil)
	}}
}

func TestRegistry(t *testing.T) {
	r, err := NewRegistry(stubProbe(KindTLS), stubProbe(KindHeaders))
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}
	if !reflect.DeepEqual(r.Kinds(), []Kind{KindHeaders, KindTLS}) {
		t.Fatalf("unexpected kinds %v", r.Kinds())
	}
	p, ok := r.Lookup(KindTLS)
	if !ok || p.Kind() != KindTLS {
		t.Fatal("expected TLS probe to be registered")
	}
	if _, ok := r.Lookup(KindSEO); ok {
		t.Fatal("SEO was never registered")
	}
}

func TestRegistryErrors(t *testing.T) {
	if _, err := NewRegistry(stubProbe(KindTLS), nil); !errors.Is(err, secaerrors.ErrNilProbe) {
		t.Fatalf("expected ErrNilProbe, got %v", err)
	}
	if _, err := NewRegistry(stubProbe(KindTLS), stubProbe(KindTLS)); !errors.Is(err, secaerrors.ErrDuplicateProbe) {
		t.Fatalf("expected ErrDuplicateProbe, got %v", err)
	}
}
