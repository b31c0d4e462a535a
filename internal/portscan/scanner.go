package portscan

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Backend names.
const (
	BackendNmap    = "nmap"
	BackendConnect = "connect"
)

// Backends lists every supported backend; the first is the default.
var Backends = []string{BackendConnect, BackendNmap}

// ParseBackend normalizes a backend name. Empty selects the connect scanner.
func ParseBackend(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return BackendConnect, nil
	}
	for _, b := range Backends {
		if n == b {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %q", secaerrors.ErrUnknownBackend, name)
}

// Scanner discovers open ports on one already-validated address.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, address string, mode Mode) ([]scan.Port, error)
}

func sortPorts(ports []scan.Port) {
	sort.Slice(ports, func(i, j int) bool {
		if ports[i].Number != ports[j].Number {
			return ports[i].Number < ports[j].Number
		}
		return ports[i].Protocol < ports[j].Protocol
	})
}
