package constants

import (
	"time"
)

const (
	// DefaultProbeTimeout bounds a single probe when the caller does not pick one.
	DefaultProbeTimeout = 10 * time.Second
	// DefaultDialTimeout is used for raw TCP/TLS dials inside a probe deadline.
	DefaultDialTimeout = 5 * time.Second
	// DefaultPortDialTimeout bounds one TCP connect attempt of the connect scanner.
	DefaultPortDialTimeout = 2 * time.Second
	// DefaultPortScanWorkers is the connect scanner's worker count.
	DefaultPortScanWorkers = 10
)

const (
	// MaxBodyBytes caps how many bytes of a page body a probe reads.
	MaxBodyBytes = 2 << 20
	// MaxFaviconBytes caps the favicon download used for hashing.
	MaxFaviconBytes = 256 << 10
	// BannerReadLimit caps the banner read of the connect scanner.
	BannerReadLimit = 512
)

// DefaultUserAgent identifies probe traffic.
const DefaultUserAgent = "seca-recon/1.0 (+https://github.com/khanhnv2901/seca-recon)"

// TLSSoonExpiryWindow flags certificates that expire inside this window.
const TLSSoonExpiryWindow = 14 * 24 * time.Hour

// DefaultFilePerm is used for report files written with --output.
const DefaultFilePerm = 0o600
