package scan

import (
	"context"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/domain/report"
	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

// Service is the entry point callers use to run a scan from raw input.
type Service struct {
	orchestrator   *Orchestrator
	defaultTimeout time.Duration
	defaultMode    string
}

// NewService creates a scan service. A non-positive defaultTimeout uses
// the built-in probe timeout.
func NewService(orchestrator *Orchestrator, defaultTimeout time.Duration, defaultMode string) *Service {
	if defaultTimeout <= 0 {
		defaultTimeout = consts.DefaultProbeTimeout
	}
	return &Service{
		orchestrator:   orchestrator,
		defaultTimeout: defaultTimeout,
		defaultMode:    defaultMode,
	}
}

// Options override the service defaults for one scan.
type Options struct {
	Timeout  time.Duration // per probe; zero uses the service default
	ScanMode string        // port-scan mode; empty uses the service default
}

// RunScan parses target and runs the requested probes with the defaults.
func (s *Service) RunScan(ctx context.Context, target string, probes []scan.Kind) (*report.Report, error) {
	return s.RunScanWithOptions(ctx, target, probes, Options{})
}

// RunScanWithOptions parses target and runs the requested probes.
func (s *Service) RunScanWithOptions(ctx context.Context, target string, probes []scan.Kind, opts Options) (*report.Report, error) {
	t, err := scan.ParseTarget(target)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = s.defaultTimeout
	}
	mode := opts.ScanMode
	if mode == "" {
		mode = s.defaultMode
	}

	session, err := scan.NewSession(t, probes, timeout, mode)
	if err != nil {
		return nil, err
	}
	return s.orchestrator.Run(ctx, session)
}

// Kinds lists the probe kinds the service can run.
func (s *Service) Kinds() []scan.Kind {
	if s.orchestrator.registry == nil {
		return nil
	}
	return s.orchestrator.registry.Kinds()
}
