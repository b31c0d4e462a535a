package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	appscan "github.com/khanhnv2901/seca-recon/internal/application/scan"
	"github.com/khanhnv2901/seca-recon/internal/domain/report"
	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

type fakeScanner struct {
	mu      sync.Mutex
	calls   int
	target  string
	probes  []scan.Kind
	opts    appscan.Options
	err     error
	release chan struct{}
}

func (f *fakeScanner) RunScanWithOptions(ctx context.Context, target string, probes []scan.Kind, opts appscan.Options) (*report.Report, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	f.calls++
	f.target, f.probes, f.opts = target, probes, opts
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	t, err := scan.ParseTarget(target)
	if err != nil {
		return nil, err
	}
	session, err := scan.NewSession(t, probes, time.Second, opts.ScanMode)
	if err != nil {
		return nil, err
	}
	results := map[scan.Kind]scan.Result{}
	for _, k := range session.Kinds {
		results[k] = scan.Fail(k, scan.ReasonTimeout, nil)
	}
	return report.Build(session, results), nil
}

func (f *fakeScanner) Kinds() []scan.Kind {
	return []scan.Kind{scan.KindHeaders, scan.KindTLS}
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Scanner == nil {
		cfg.Scanner = &fakeScanner{}
	}
	cfg.Logger = zaptest.NewLogger(t)
	srv := NewServer(cfg)
	t.Cleanup(srv.Close)
	return srv
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"status": "ok"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected application/json content-type, got %s", got)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestWriteErrorInternal(t *testing.T) {
	s := &Server{cfg: Config{Logger: zaptest.NewLogger(t)}}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s.writeError(rr, req, http.StatusInternalServerError, errors.New("boom"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "internal server error") {
		t.Fatalf("expected sanitized message, got %s", rr.Body.String())
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Config{AuthToken: "secret"})

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 without token, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestProbes(t *testing.T) {
	srv := newTestServer(t, Config{})

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/probes", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string][]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := strings.Join(body["probes"], ","); got != "headers,tls" {
		t.Fatalf("unexpected probes %q", got)
	}
}

func TestScans_Success(t *testing.T) {
	fake := &fakeScanner{}
	srv := newTestServer(t, Config{Scanner: fake, MaxTimeout: 5 * time.Second})

	body := `{"target":"example.com","probes":["tls","headers"],"scan_mode":"full","timeout_seconds":30}`
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if fake.opts.Timeout != 5*time.Second {
		t.Errorf("expected timeout capped at 5s, got %s", fake.opts.Timeout)
	}
	if fake.opts.ScanMode != "full" {
		t.Errorf("expected scan mode full, got %q", fake.opts.ScanMode)
	}

	var decoded struct {
		Target  string `json:"target"`
		Posture string `json:"posture"`
		Results []struct {
			Kind   string `json:"kind"`
			Status string `json:"status"`
		} `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].Kind != "headers" || decoded.Results[1].Kind != "tls" {
		t.Fatalf("unexpected results %+v", decoded.Results)
	}
	if decoded.Posture != "unknown" {
		t.Errorf("expected unknown posture, got %q", decoded.Posture)
	}
}

func TestScans_DefaultsToAllProbes(t *testing.T) {
	fake := &fakeScanner{}
	srv := newTestServer(t, Config{Scanner: fake})

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(`{"target":"example.com"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(fake.probes) != 2 {
		t.Fatalf("expected every registered probe, got %v", fake.probes)
	}
}

func TestScans_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"target":`},
		{"empty target", `{"target":"  "}`},
		{"unknown probe", `{"target":"example.com","probes":["nope"]}`},
		{"negative timeout", `{"target":"example.com","timeout_seconds":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeScanner{}
			srv := newTestServer(t, Config{Scanner: fake})

			rr := httptest.NewRecorder()
			srv.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(tt.body)))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
			if fake.calls != 0 {
				t.Fatalf("scanner must not be called")
			}
		})
	}
}

func TestScans_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{secaerrors.ErrInvalidTarget, http.StatusBadRequest},
		{secaerrors.ErrInvalidTimeout, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		srv := newTestServer(t, Config{Scanner: &fakeScanner{err: tt.err}})
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/scans", strings.NewReader(`{"target":"example.com"}`)))
		if rr.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, rr.Code)
		}
	}
}

func TestScans_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Config{})
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/scans", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, Config{AuthToken: "secret"})

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/probes", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/probes", nil)
	req.Header.Set("X-Auth-Token", "secret")
	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, Config{RateLimit: 1, RateBurst: 1})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected [200 429], got %v", codes)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, Config{CORSOrigins: []string{"https://ui.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/scans", nil)
	req.Header.Set("Origin", "https://ui.example")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://ui.example" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote, forwarded, want string
	}{
		{"203.0.113.1:1234", "", "203.0.113.1"},
		{"[2001:db8::1]:443", "", "2001:db8::1"},
		{"203.0.113.1:1234", "198.51.100.7, 10.0.0.1", "198.51.100.7"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tt.forwarded)
		}
		if got := clientIP(req); got != tt.want {
			t.Errorf("clientIP(%q, %q) = %q, want %q", tt.remote, tt.forwarded, got, tt.want)
		}
	}
}

func TestJobs_Lifecycle(t *testing.T) {
	fake := &fakeScanner{release: make(chan struct{})}
	srv := newTestServer(t, Config{Scanner: fake})

	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{"target":"example.com","probes":["tls"]}`)))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	var job Job
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.Status != JobStatusQueued || !strings.Contains(rr.Body.String(), `"status":"queued"`) {
		t.Fatalf("expected queued job, got %q", job.Status)
	}

	close(fake.release)

	deadline := time.Now().Add(2 * time.Second)
	for {
		got := srv.cfg.Jobs.GetJob(job.ID)
		if got != nil && got.Status == JobStatusDone {
			if got.Report == nil {
				t.Fatal("expected report on finished job")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish, last state %+v", got)
		}
		time.Sleep(10 * time.Millisecond)
	}

	rr = httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"report"`) {
		t.Fatalf("expected report in body: %s", rr.Body.String())
	}
}

func TestJobs_RejectsMalformedTarget(t *testing.T) {
	srv := newTestServer(t, Config{})
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{"target":"ftp://example.com"}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if jobs := srv.cfg.Jobs.ListJobs(0); len(jobs) != 0 {
		t.Fatalf("expected no job, got %d", len(jobs))
	}
}

func TestJobByID_NotFound(t *testing.T) {
	srv := newTestServer(t, Config{})
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestWriteStreamChunk(t *testing.T) {
	s := &Server{}
	rr := httptest.NewRecorder()
	if !s.writeStreamChunk(rr, []byte("hello")) {
		t.Fatal("expected writeStreamChunk to succeed")
	}
	if rr.Body.String() != "hello" {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}

	if s.writeStreamChunk(&failingWriter{}, []byte("fail")) {
		t.Fatalf("expected writeStreamChunk to fail")
	}
}

type failingWriter struct{}

func (f *failingWriter) Header() http.Header { return http.Header{} }
func (f *failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}
func (f *failingWriter) WriteHeader(statusCode int) {}
