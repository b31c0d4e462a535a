package portscan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Ullaakut/nmap/v3"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// NmapScanner runs the nmap binary.
type NmapScanner struct {
	BinaryPath string // empty means look nmap up in PATH
}

// Name returns the backend name.
func (s *NmapScanner) Name() string {
	return BackendNmap
}

// Scan runs nmap with the mode's arguments and returns open ports.
func (s *NmapScanner) Scan(ctx context.Context, address string, mode Mode) ([]scan.Port, error) {
	args := mode.NmapArgs()
	if args == nil {
		return nil, fmt.Errorf("%w: %q", secaerrors.ErrUnsupportedScanType, mode)
	}

	opts := []nmap.Option{
		nmap.WithTargets(address),
		nmap.WithCustomArguments(args...),
	}
	if s.BinaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(s.BinaryPath))
	}

	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", secaerrors.ErrScanToolFailed, err)
	}

	result, _, err := scanner.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, nmap.ErrScanTimeout) {
			return nil, context.DeadlineExceeded
		}
		return nil, fmt.Errorf("%w: %v", secaerrors.ErrScanToolFailed, err)
	}

	return openPorts(result), nil
}

// openPorts flattens an nmap run into the open ports of every host.
func openPorts(run *nmap.Run) []scan.Port {
	ports := []scan.Port{}
	if run == nil {
		return ports
	}

	for _, host := range run.Hosts {
		for _, p := range host.Ports {
			if !strings.EqualFold(p.State.State, "open") {
				continue
			}
			service := p.Service.Name
			if service == "" {
				service = ServiceName(int(p.ID))
			}
			ports = append(ports, scan.Port{
				Number:   int(p.ID),
				Protocol: p.Protocol,
				Service:  service,
				Product:  p.Service.Product,
				Version:  p.Service.Version,
			})
		}
	}

	sortPorts(ports)
	return ports
}
