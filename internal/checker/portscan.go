package checker

import (
	"context"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/portscan"
)

// PortScanProbe validates the target and hands it to a port scanner.
// Restricted targets are rejected before the scanner is ever called.
type PortScanProbe struct {
	Scanner     portscan.Scanner
	Resolver    portscan.Resolver
	DefaultMode portscan.Mode
}

// Kind returns the probe kind.
func (p *PortScanProbe) Kind() scan.Kind {
	return scan.KindPortScan
}

// Execute validates the target, then the mode, then runs the scan.
func (p *PortScanProbe) Execute(ctx context.Context, req scan.Request) scan.Result {
	address, err := portscan.ValidateTarget(ctx, req.Target.Host(), p.Resolver)
	if err != nil {
		return scan.Fail(p.Kind(), scan.ReasonInvalidTarget, err)
	}

	modeName := req.ScanMode
	if modeName == "" {
		modeName = string(p.DefaultMode)
	}
	mode, err := portscan.ParseMode(modeName)
	if err != nil {
		return scan.Fail(p.Kind(), scan.ReasonUnsupportedScanType, err)
	}

	scanner := p.Scanner
	if scanner == nil {
		scanner = &portscan.ConnectScanner{}
	}

	ports, err := scanner.Scan(ctx, address, mode)
	if err != nil {
		return scan.FailFromError(p.Kind(), err)
	}

	return scan.Succeed(p.Kind(), scan.PortScanPayload{
		Mode:    string(mode),
		Address: address,
		Backend: scanner.Name(),
		Ports:   ports,
	})
}
