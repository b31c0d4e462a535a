package checker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
)

// HTTPOptions configures the short-lived HTTP client every probe builds.
type HTTPOptions struct {
	UserAgent          string
	MaxBodyBytes       int64
	InsecureSkipVerify bool
	DialTimeout        time.Duration

	// deadlineOnly drops the dial and handshake timeouts so the request is
	// bounded by its context alone.
	deadlineOnly bool
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.UserAgent == "" {
		o.UserAgent = consts.DefaultUserAgent
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = consts.MaxBodyBytes
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = consts.DefaultDialTimeout
	}
	return o
}

// httpSession owns one transport. Close must be called on every path;
// probes do it with defer right after creation.
type httpSession struct {
	opts      HTTPOptions
	client    *http.Client
	transport *http.Transport
}

func newHTTPSession(opts HTTPOptions, followRedirects bool) *httpSession {
	opts = opts.withDefaults()

	dialTimeout := opts.DialTimeout
	if opts.deadlineOnly {
		dialTimeout = 0
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: dialTimeout,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify, // #nosec G402 -- operator opt-in
		},
		TLSHandshakeTimeout: dialTimeout,
		DisableKeepAlives:   true,
	}

	client := &http.Client{Transport: transport}
	if !followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // Don't follow redirects
		}
	}

	return &httpSession{opts: opts, client: client, transport: transport}
}

// Close releases idle connections held by the session transport.
func (s *httpSession) Close() {
	s.transport.CloseIdleConnections()
}

// page is a fully read response.
type page struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (p *page) is2xx() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}

// get issues a GET and reads at most MaxBodyBytes of the body when readBody
// is set. The response body is always closed before returning.
func (s *httpSession) get(ctx context.Context, rawURL string, readBody bool) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	p := &page{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}

	if readBody {
		body, err := io.ReadAll(io.LimitReader(resp.Body, s.opts.MaxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		p.Body = body
	} else {
		// Discard response body - ignore errors as this is just cleanup
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, s.opts.MaxBodyBytes))
	}

	return p, nil
}

// fetchPage performs one GET on its own session.
func fetchPage(ctx context.Context, opts HTTPOptions, rawURL string, readBody bool) (*page, error) {
	s := newHTTPSession(opts, true)
	defer s.Close()
	return s.get(ctx, rawURL, readBody)
}

// errUnexpectedStatus reports a non-2xx page.
func errUnexpectedStatus(p *page) error {
	return fmt.Errorf("unexpected HTTP status %d from %s", p.StatusCode, p.URL)
}
