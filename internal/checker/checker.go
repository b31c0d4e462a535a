package checker

import (
	"crypto/x509"
	"strings"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/portscan"
)

// PortScanOptions configures the port-scan probe.
type PortScanOptions struct {
	Backend     string // portscan.BackendNmap or portscan.BackendConnect
	NmapPath    string
	Mode        portscan.Mode
	Ports       []int
	Workers     int
	DialTimeout time.Duration
	RateLimit   float64
	Nameservers []string
	DNSTimeout  time.Duration
}

// Options configures every built-in probe.
type Options struct {
	HTTP     HTTPOptions
	Favicon  bool
	TLSRoots *x509.CertPool
	PortScan PortScanOptions
}

// NewProbes builds one instance of every built-in probe, in report order.
func NewProbes(opts Options) []scan.Probe {
	return []scan.Probe{
		&HeaderProbe{HTTP: opts.HTTP},
		&SecurityHeadersProbe{HTTP: opts.HTTP},
		&HTTPSRedirectProbe{HTTP: opts.HTTP},
		&TLSProbe{DialTimeout: opts.HTTP.DialTimeout, Roots: opts.TLSRoots},
		&WAFProbe{HTTP: opts.HTTP},
		&CDNProbe{HTTP: opts.HTTP},
		&FingerprintProbe{HTTP: opts.HTTP, Favicon: opts.Favicon},
		&PerformanceProbe{HTTP: opts.HTTP},
		&SEOProbe{HTTP: opts.HTTP},
		newPortScanProbe(opts.PortScan),
	}
}

// NewRegistry returns a registry holding every built-in probe. An unknown
// port-scan backend is an error.
func NewRegistry(opts Options) (*scan.Registry, error) {
	backend, err := portscan.ParseBackend(opts.PortScan.Backend)
	if err != nil {
		return nil, err
	}
	opts.PortScan.Backend = backend
	return scan.NewRegistry(NewProbes(opts)...)
}

func newPortScanProbe(opts PortScanOptions) *PortScanProbe {
	var scanner portscan.Scanner
	switch strings.ToLower(opts.Backend) {
	case portscan.BackendNmap:
		scanner = &portscan.NmapScanner{BinaryPath: opts.NmapPath}
	default:
		scanner = &portscan.ConnectScanner{
			Ports:       opts.Ports,
			Workers:     opts.Workers,
			DialTimeout: opts.DialTimeout,
			RateLimit:   opts.RateLimit,
		}
	}

	mode := opts.Mode
	if mode == "" {
		mode = portscan.DefaultMode
	}

	return &PortScanProbe{
		Scanner:     scanner,
		Resolver:    portscan.NewResolver(opts.Nameservers, opts.DNSTimeout),
		DefaultMode: mode,
	}
}
