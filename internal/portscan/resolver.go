package portscan

import (
	"context"
	"fmt"
	"net"
	"time"

	mdns "github.com/miekg/dns"

	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

// Resolver turns a hostname into addresses.
type Resolver interface {
	LookupIP(ctx context.Context, host string) ([]net.IP, error)
}

// SystemResolver uses the Go resolver.
type SystemResolver struct{}

// LookupIP resolves host through net.DefaultResolver.
func (SystemResolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	return net.DefaultResolver.LookupIP(ctx, "ip", host)
}

// DNSResolver queries explicit nameservers for A and AAAA records.
type DNSResolver struct {
	Nameservers []string // host or host:port; port 53 is assumed
	Timeout     time.Duration
}

// NewResolver returns a DNSResolver when nameservers are configured and
// SystemResolver otherwise.
func NewResolver(nameservers []string, timeout time.Duration) Resolver {
	if len(nameservers) == 0 {
		return SystemResolver{}
	}
	return &DNSResolver{Nameservers: nameservers, Timeout: timeout}
}

// LookupIP asks each nameserver in turn until one answers with records.
func (r *DNSResolver) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = consts.DefaultDialTimeout
	}
	c := &mdns.Client{Timeout: timeout}

	var lastErr error
	for _, ns := range r.Nameservers {
		addr := ns
		if _, _, err := net.SplitHostPort(ns); err != nil {
			addr = net.JoinHostPort(ns, "53")
		}

		var ips []net.IP
		for _, qtype := range []uint16{mdns.TypeA, mdns.TypeAAAA} {
			msg := new(mdns.Msg)
			msg.SetQuestion(mdns.Fqdn(host), qtype)

			resp, _, err := c.ExchangeContext(ctx, msg, addr)
			if err != nil {
				lastErr = fmt.Errorf("query %s: %w", addr, err)
				continue
			}
			if resp.Rcode != mdns.RcodeSuccess {
				lastErr = fmt.Errorf("query %s: %s", addr, mdns.RcodeToString[resp.Rcode])
				continue
			}
			for _, ans := range resp.Answer {
				switch rr := ans.(type) {
				case *mdns.A:
					ips = append(ips, rr.A)
				case *mdns.AAAA:
					ips = append(ips, rr.AAAA)
				}
			}
		}
		if len(ips) > 0 {
			return ips, nil
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no address records for %s", host)
	}
	return nil, lastErr
}
