package portscan

import (
	"fmt"
	"strings"

	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// Mode selects how thoroughly a host is scanned.
type Mode string

const (
	ModeQuick            Mode = "quick"
	ModeFull             Mode = "full"
	ModeServiceDetection Mode = "service-detection"
)

// DefaultMode is used when the caller does not pick one.
const DefaultMode = ModeQuick

// Modes lists every supported mode.
var Modes = []Mode{ModeQuick, ModeFull, ModeServiceDetection}

// ParseMode accepts the mode names case-insensitively, with spaces or
// underscores in place of dashes and an optional " scan" suffix, so
// "Quick Scan" and "Service Detection" are accepted. An empty string is
// DefaultMode.
func ParseMode(s string) (Mode, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return DefaultMode, nil
	}
	norm = strings.NewReplacer(" ", "-", "_", "-").Replace(norm)
	norm = strings.TrimSuffix(norm, "-scan")

	for _, m := range Modes {
		if string(m) == norm {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", secaerrors.ErrUnsupportedScanType, s)
}

// NmapArgs returns the nmap flags for the mode.
func (m Mode) NmapArgs() []string {
	switch m {
	case ModeQuick:
		return []string{"-F"}
	case ModeFull:
		return []string{"-p-"}
	case ModeServiceDetection:
		return []string{"-sV"}
	default:
		return nil
	}
}

// commonPorts is the connect scanner's quick list.
var commonPorts = []int{
	21,    // FTP
	22,    // SSH
	23,    // Telnet
	25,    // SMTP
	53,    // DNS
	80,    // HTTP
	110,   // POP3
	143,   // IMAP
	443,   // HTTPS
	445,   // SMB
	3306,  // MySQL
	3389,  // RDP
	5432,  // PostgreSQL
	5900,  // VNC
	6379,  // Redis
	8080,  // HTTP Alt
	8443,  // HTTPS Alt
	27017, // MongoDB
}

// Ports returns the TCP ports the connect scanner probes for the mode.
// Full covers every port; the other modes use the common list.
func (m Mode) Ports() []int {
	if m == ModeFull {
		ports := make([]int, 0, 65535)
		for p := 1; p <= 65535; p++ {
			ports = append(ports, p)
		}
		return ports
	}
	out := make([]int, len(commonPorts))
	copy(out, commonPorts)
	return out
}

// ServiceName returns the well-known service for a port, or "unknown".
func ServiceName(port int) string {
	services := map[int]string{
		21:    "ftp",
		22:    "ssh",
		23:    "telnet",
		25:    "smtp",
		53:    "dns",
		80:    "http",
		110:   "pop3",
		143:   "imap",
		443:   "https",
		445:   "smb",
		3306:  "mysql",
		3389:  "rdp",
		5432:  "postgresql",
		5900:  "vnc",
		6379:  "redis",
		8080:  "http-alt",
		8443:  "https-alt",
		27017: "mongodb",
	}

	if service, ok := services[port]; ok {
		return service
	}
	return "unknown"
}
