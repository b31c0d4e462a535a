package checker

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

// TLSProbe opens a raw TLS connection and extracts certificate metadata.
//
// The handshake does not verify the chain so that an expired or untrusted
// certificate is still reported as information; chain verification is done
// afterwards and recorded in TLSPayload.Trusted.
type TLSProbe struct {
	DialTimeout time.Duration
	Roots       *x509.CertPool   // nil means system roots
	Now         func() time.Time // nil means time.Now
}

// Kind returns the probe kind.
func (p *TLSProbe) Kind() scan.Kind {
	return scan.KindTLS
}

// Execute performs the handshake and inspects the leaf certificate.
func (p *TLSProbe) Execute(ctx context.Context, req scan.Request) scan.Result {
	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = consts.DefaultDialTimeout
	}

	host := req.Target.Host()
	addr := req.Target.TLSAddress()
	cfg := &tls.Config{
		InsecureSkipVerify: true, // #nosec G402 -- verified manually below
		MinVersion:         tls.VersionTLS10,
	}
	if net.ParseIP(host) == nil {
		cfg.ServerName = host
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    cfg,
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return p.fail(err)
	}
	defer conn.Close()

	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		return scan.Fail(p.Kind(), scan.ReasonTLSError, errors.New("not a TLS connection"))
	}

	state := tlsConn.ConnectionState()
	payload, err := p.inspect(addr, host, state)
	if err != nil {
		return scan.Fail(p.Kind(), scan.ReasonTLSError, err)
	}
	return scan.Succeed(p.Kind(), payload)
}

func (p *TLSProbe) fail(err error) scan.Result {
	if scan.ClassifyError(err) == scan.ReasonTimeout {
		return scan.Fail(p.Kind(), scan.ReasonTimeout, err)
	}
	// Refused connections and plain-text listeners are both "not HTTPS".
	return scan.Fail(p.Kind(), scan.ReasonTLSError, err)
}

func (p *TLSProbe) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *TLSProbe) inspect(addr, host string, state tls.ConnectionState) (scan.TLSPayload, error) {
	if len(state.PeerCertificates) == 0 {
		return scan.TLSPayload{}, errors.New("server presented no certificate")
	}

	now := p.now()
	leaf := state.PeerCertificates[0]

	payload := scan.TLSPayload{
		Address:     addr,
		Issuer:      issuerName(leaf),
		Subject:     leaf.Subject.CommonName,
		DNSNames:    leaf.DNSNames,
		NotBefore:   leaf.NotBefore.UTC(),
		Expires:     leaf.NotAfter.UTC(),
		Version:     tlsVersionString(state.Version),
		CipherSuite: tls.CipherSuiteName(state.CipherSuite),
		SelfSigned:  leaf.Subject.String() == leaf.Issuer.String(),
		Valid:       leaf.NotAfter.After(now),
	}
	payload.ExpiresSoon = payload.Valid && leaf.NotAfter.Sub(now) < consts.TLSSoonExpiryWindow

	intermediates := x509.NewCertPool()
	for _, c := range state.PeerCertificates[1:] {
		intermediates.AddCert(c)
	}
	_, verifyErr := leaf.Verify(x509.VerifyOptions{
		DNSName:       host,
		Roots:         p.Roots,
		Intermediates: intermediates,
		CurrentTime:   now,
	})
	payload.Trusted = verifyErr == nil
	if verifyErr != nil {
		payload.VerifyError = verifyErr.Error()
	}

	return payload, nil
}

// issuerName prefers the issuer organization and falls back to its CN.
func issuerName(cert *x509.Certificate) string {
	if len(cert.Issuer.Organization) > 0 && cert.Issuer.Organization[0] != "" {
		return cert.Issuer.Organization[0]
	}
	if cert.Issuer.CommonName != "" {
		return cert.Issuer.CommonName
	}
	return "Unknown"
}

// tlsVersionString converts TLS version constant to string
func tlsVersionString(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("Unknown (0x%04x)", version)
	}
}
