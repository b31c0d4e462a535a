package checker

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
)

func requestFor(t *testing.T, rawURL string) scan.Request {
	t.Helper()
	target, err := scan.ParseTarget(rawURL)
	if err != nil {
		t.Fatalf("ParseTarget(%q): %v", rawURL, err)
	}
	return scan.Request{Target: target}
}

func execute(t *testing.T, p scan.Probe, srv *httptest.Server) scan.Result {
	t.Helper()
	res := p.Execute(context.Background(), requestFor(t, srv.URL))
	if err := res.Validate(); err != nil {
		t.Fatalf("result breaks invariant: %v", err)
	}
	if res.Kind != p.Kind() {
		t.Fatalf("result kind %q, want %q", res.Kind, p.Kind())
	}
	return res
}

func mustPayload[T scan.Payload](t *testing.T, res scan.Result) T {
	t.Helper()
	if !res.OK() {
		t.Fatalf("expected success, got failure %+v", res.Failure)
	}
	p, ok := res.Payload.(T)
	if !ok {
		t.Fatalf("unexpected payload type %T", res.Payload)
	}
	return p
}

func expectFailure(t *testing.T, res scan.Result, reason scan.Reason) {
	t.Helper()
	if res.OK() {
		t.Fatalf("expected %s failure, got success %+v", reason, res.Payload)
	}
	if res.Reason() != reason {
		t.Fatalf("expected reason %s, got %s (%s)", reason, res.Reason(), res.Failure.Message)
	}
}
