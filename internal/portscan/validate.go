package portscan

import (
	"context"
	"fmt"
	"net"
	"strings"

	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// IsRestricted reports whether ip must never be scanned: loopback, RFC1918
// and ULA private ranges, link-local, multicast and unspecified addresses.
func IsRestricted(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified()
}

// ValidateTarget checks that host is a public address and returns the
// address to scan. Hostnames are resolved and rejected if any of their
// addresses is restricted, so a public name pointing at a private address
// cannot slip through.
func ValidateTarget(ctx context.Context, host string, r Resolver) (string, error) {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" {
		return "", secaerrors.ErrEmptyTarget
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return "", fmt.Errorf("%w: %s", secaerrors.ErrPrivateTarget, host)
	}

	if ip := net.ParseIP(host); ip != nil {
		if IsRestricted(ip) {
			return "", fmt.Errorf("%w: %s", secaerrors.ErrPrivateTarget, host)
		}
		return ip.String(), nil
	}

	if r == nil {
		r = SystemResolver{}
	}
	ips, err := r.LookupIP(ctx, host)
	if err != nil {
		return "", fmt.Errorf("%w: resolve %s: %v", secaerrors.ErrInvalidTarget, host, err)
	}
	if len(ips) == 0 {
		return "", fmt.Errorf("%w: %s has no addresses", secaerrors.ErrInvalidTarget, host)
	}
	for _, ip := range ips {
		if IsRestricted(ip) {
			return "", fmt.Errorf("%w: %s resolves to %s", secaerrors.ErrPrivateTarget, host, ip)
		}
	}

	// Prefer IPv4, which every backend supports.
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return ips[0].String(), nil
}
