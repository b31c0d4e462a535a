package cmd

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	appscan "github.com/khanhnv2901/seca-recon/internal/application/scan"
	"github.com/khanhnv2901/seca-recon/internal/checker"
	"github.com/khanhnv2901/seca-recon/internal/portscan"
)

// newScanService wires probes, orchestrator and service from cfg. extra
// options are applied after the configured ones.
func newScanService(cfg *CLIConfig, log *zap.Logger, extra ...appscan.OrchestratorOption) (*appscan.Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := portscan.ParseBackend(cfg.PortScan.Backend); err != nil {
		return nil, &FlagError{Flag: "port-backend", Value: cfg.PortScan.Backend, Reason: "must be one of " + strings.Join(portscan.Backends, ", ")}
	}
	registry, err := checker.NewRegistry(cfg.checkerOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to build probe registry: %w", err)
	}

	opts := []appscan.OrchestratorOption{
		appscan.WithMaxConcurrency(cfg.Scan.Concurrency),
		appscan.WithRateLimit(cfg.Scan.RateLimit),
		appscan.WithLogger(log),
	}
	orchestrator := appscan.NewOrchestrator(registry, append(opts, extra...)...)
	return appscan.NewService(orchestrator, seconds(cfg.Scan.TimeoutSecs), cfg.PortScan.Mode), nil
}
