package portscan

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// ConnectScanner finds open TCP ports with plain connect() calls. It needs
// no external tool or privileges.
type ConnectScanner struct {
	Ports       []int         // overrides the mode's port list when set
	Workers     int           // concurrent dials
	DialTimeout time.Duration // per port
	RateLimit   float64       // dials per second, 0 = unlimited
}

// Name returns the backend name.
func (s *ConnectScanner) Name() string {
	return BackendConnect
}

// Scan dials every port of the mode with a worker pool. Service-detection
// mode also grabs a banner from each open port.
func (s *ConnectScanner) Scan(ctx context.Context, address string, mode Mode) ([]scan.Port, error) {
	if mode.NmapArgs() == nil {
		return nil, fmt.Errorf("%w: %q", secaerrors.ErrUnsupportedScanType, mode)
	}

	ports := s.Ports
	if len(ports) == 0 {
		ports = mode.Ports()
	}

	maxWorkers := s.Workers
	if maxWorkers <= 0 {
		maxWorkers = consts.DefaultPortScanWorkers
	}

	var limiter *rate.Limiter
	if s.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.RateLimit), 1)
	}
	grabBanner := mode == ModeServiceDetection

	portChan := make(chan int)
	resultChan := make(chan scan.Port, maxWorkers)
	var wg sync.WaitGroup

	for i := 0; i < maxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for port := range portChan {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						continue
					}
				}
				if info, ok := s.checkPort(ctx, address, port, grabBanner); ok {
					resultChan <- info
				}
			}
		}()
	}

	go func() {
		defer close(portChan)
		for _, port := range ports {
			select {
			case portChan <- port:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	open := []scan.Port{}
	for info := range resultChan {
		open = append(open, info)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sortPorts(open)
	return open, nil
}

// checkPort reports whether a port accepts connections.
func (s *ConnectScanner) checkPort(ctx context.Context, address string, port int, grabBanner bool) (scan.Port, bool) {
	timeout := s.DialTimeout
	if timeout <= 0 {
		timeout = consts.DefaultPortDialTimeout
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		// Closed or filtered.
		return scan.Port{}, false
	}
	defer conn.Close()

	info := scan.Port{
		Number:   port,
		Protocol: "tcp",
		Service:  ServiceName(port),
	}

	if grabBanner {
		_ = conn.SetReadDeadline(time.Now().Add(time.Second))
		banner := make([]byte, consts.BannerReadLimit)
		n, readErr := conn.Read(banner)
		if readErr == nil && n > 0 {
			info.Banner = strings.TrimSpace(string(banner[:n]))
		}
	}

	return info, true
}
