package checker

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/portscan"
	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

type fakeScanner struct {
	calls atomic.Int32
	ports []scan.Port
	err   error
	mode  portscan.Mode
}

func (f *fakeScanner) Name() string { return "fake" }

func (f *fakeScanner) Scan(ctx context.Context, address string, mode portscan.Mode) ([]scan.Port, error) {
	f.calls.Add(1)
	f.mode = mode
	return f.ports, f.err
}

type staticResolver map[string][]net.IP

func (r staticResolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	ips, ok := r[host]
	if !ok {
		return nil, errors.New("no such host")
	}
	return ips, nil
}

func TestPortScanProbe(t *testing.T) {
	resolver := staticResolver{
		"public.example":    {net.ParseIP("93.184.216.34")},
		"sneaky.example":    {net.ParseIP("10.0.0.5")},
		"dualstack.example": {net.ParseIP("2606:2800:220:1::1"), net.ParseIP("93.184.216.34")},
	}

	tests := []struct {
		name       string
		target     string
		mode       string
		wantReason scan.Reason
		wantCalls  int32
		wantAddr   string
	}{
		{name: "public ip", target: "93.184.216.34", mode: "quick", wantCalls: 1, wantAddr: "93.184.216.34"},
		{name: "public hostname", target: "public.example", mode: "Full Scan", wantCalls: 1, wantAddr: "93.184.216.34"},
		{name: "prefers ipv4", target: "dualstack.example", wantCalls: 1, wantAddr: "93.184.216.34"},
		{name: "loopback", target: "127.0.0.1", mode: "quick", wantReason: scan.ReasonInvalidTarget},
		{name: "private", target: "192.168.1.10", mode: "quick", wantReason: scan.ReasonInvalidTarget},
		{name: "localhost", target: "localhost", mode: "quick", wantReason: scan.ReasonInvalidTarget},
		{name: "resolves private", target: "sneaky.example", mode: "quick", wantReason: scan.ReasonInvalidTarget},
		{name: "unresolvable", target: "missing.example", mode: "quick", wantReason: scan.ReasonInvalidTarget},
		{name: "private with bad mode", target: "10.1.1.1", mode: "stealth", wantReason: scan.ReasonInvalidTarget},
		{name: "unsupported mode", target: "93.184.216.34", mode: "stealth", wantReason: scan.ReasonUnsupportedScanType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := &fakeScanner{ports: []scan.Port{{Number: 443, Protocol: "tcp", Service: "https"}}}
			probe := &PortScanProbe{Scanner: scanner, Resolver: resolver, DefaultMode: portscan.ModeQuick}

			req := requestFor(t, tt.target)
			req.ScanMode = tt.mode
			res := probe.Execute(context.Background(), req)
			if err := res.Validate(); err != nil {
				t.Fatalf("invalid result: %v", err)
			}

			if got := scanner.calls.Load(); got != tt.wantCalls {
				t.Fatalf("scanner called %d times, want %d", got, tt.wantCalls)
			}
			if tt.wantReason != "" {
				expectFailure(t, res, tt.wantReason)
				return
			}
			payload := mustPayload[scan.PortScanPayload](t, res)
			if payload.Address != tt.wantAddr || payload.Backend != "fake" || len(payload.Ports) != 1 {
				t.Fatalf("unexpected payload %+v", payload)
			}
		})
	}
}

func TestPortScanProbeScannerError(t *testing.T) {
	scanner := &fakeScanner{err: secaerrors.ErrScanToolFailed}
	probe := &PortScanProbe{Scanner: scanner, DefaultMode: portscan.ModeQuick}

	res := probe.Execute(context.Background(), requestFor(t, "93.184.216.34"))
	expectFailure(t, res, scan.ReasonUnknown)

	scanner.err = context.DeadlineExceeded
	res = probe.Execute(context.Background(), requestFor(t, "93.184.216.34"))
	expectFailure(t, res, scan.ReasonTimeout)
}

func TestPortScanProbeDefaultMode(t *testing.T) {
	scanner := &fakeScanner{}
	probe := &PortScanProbe{Scanner: scanner, DefaultMode: portscan.ModeServiceDetection}

	payload := mustPayload[scan.PortScanPayload](t, probe.Execute(context.Background(), requestFor(t, "93.184.216.34")))
	if scanner.mode != portscan.ModeServiceDetection || payload.Mode != "service-detection" {
		t.Fatalf("default mode not used: scanner=%q payload=%q", scanner.mode, payload.Mode)
	}
}

func TestNewRegistryRejectsUnknownBackend(t *testing.T) {
	_, err := NewRegistry(Options{PortScan: PortScanOptions{Backend: "nmapp"}})
	if !errors.Is(err, secaerrors.ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}

	registry, err := NewRegistry(Options{PortScan: PortScanOptions{Backend: "NMAP"}})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	probe, _ := registry.Lookup(scan.KindPortScan)
	if name := probe.(*PortScanProbe).Scanner.Name(); name != portscan.BackendNmap {
		t.Fatalf("expected nmap backend, got %q", name)
	}
}

func TestNewProbesCoversEveryKind(t *testing.T) {
	registry, err := NewRegistry(Options{})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	kinds := registry.Kinds()
	if len(kinds) != len(scan.AllKinds) {
		t.Fatalf("expected %d kinds, got %v", len(scan.AllKinds), kinds)
	}
	for i, k := range scan.AllKinds {
		if kinds[i] != k {
			t.Fatalf("kind %d = %q, want %q", i, kinds[i], k)
		}
	}

	probe, _ := registry.Lookup(scan.KindPortScan)
	ps := probe.(*PortScanProbe)
	if ps.Scanner.Name() != portscan.BackendConnect {
		t.Fatalf("expected connect backend by default, got %q", ps.Scanner.Name())
	}
}
