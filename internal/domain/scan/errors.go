package scan

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"syscall"

	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

// ClassifyError maps a transport or probe error to a failure Reason.
func ClassifyError(err error) Reason {
	if err == nil {
		return ReasonUnknown
	}

	switch {
	case errors.Is(err, secaerrors.ErrInvalidTarget), errors.Is(err, secaerrors.ErrPrivateTarget):
		return ReasonInvalidTarget
	case errors.Is(err, secaerrors.ErrUnsupportedScanType):
		return ReasonUnsupportedScanType
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return ReasonConnectionRefused
	}

	if isTLSError(err) {
		return ReasonTLSError
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr):
		return ReasonConnectionError
	case errors.As(err, &urlErr):
		return ReasonConnectionError
	case errors.Is(err, context.Canceled):
		return ReasonConnectionError
	}

	return ReasonUnknown
}

func isTLSError(err error) bool {
	var recordErr tls.RecordHeaderError
	var alertErr tls.AlertError
	var verifyErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	var certErr x509.CertificateInvalidError

	return errors.As(err, &recordErr) ||
		errors.As(err, &alertErr) ||
		errors.As(err, &verifyErr) ||
		errors.As(err, &unknownAuth) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &certErr)
}
