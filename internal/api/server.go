package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	appscan "github.com/khanhnv2901/seca-recon/internal/application/scan"
	"github.com/khanhnv2901/seca-recon/internal/api/middleware"
	"github.com/khanhnv2901/seca-recon/internal/domain/report"
	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	secaerrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
)

const maxRequestBody = 1 << 20

// Scanner runs scans on behalf of the API.
type Scanner interface {
	RunScanWithOptions(ctx context.Context, target string, probes []scan.Kind, opts appscan.Options) (*report.Report, error)
	Kinds() []scan.Kind
}

// ScanRequest is the body of POST /api/v1/scans and POST /api/v1/jobs.
type ScanRequest struct {
	Target         string   `json:"target"`
	Probes         []string `json:"probes"`
	ScanMode       string   `json:"scan_mode"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

type Config struct {
	Scanner     Scanner
	Jobs        *JobManager
	AuthToken   string
	Logger      *zap.Logger
	CORSOrigins []string      // Allowed CORS origins (empty = allow all)
	RateLimit   int           // Requests per second per IP (0 = disabled)
	RateBurst   int           // Burst size for rate limiter
	MaxTimeout  time.Duration // Upper bound for timeout_seconds (0 = no bound)
}

type Server struct {
	cfg      Config
	mux      *http.ServeMux
	limiters *rateLimiterMap

	// jobCtx outlives individual requests so background scans survive the
	// POST that started them.
	jobCtx    context.Context
	cancelJob context.CancelFunc
}

func NewServer(cfg Config) *Server {
	if cfg.Jobs == nil {
		cfg.Jobs = NewJobManager()
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		limiters:  newRateLimiterMap(),
		jobCtx:    ctx,
		cancelJob: cancel,
	}
	srv.routes()
	return srv
}

// Close cancels scans still running in the background.
func (s *Server) Close() {
	if s.cancelJob != nil {
		s.cancelJob()
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Apply middleware chain: RequestID -> Logging -> RateLimit -> CORS -> Auth -> Handler
	handler := middleware.RequestID(s.withLogging(s.withRateLimit(s.withCORS(s.mux))))
	handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.Handle("/api/v1/health", http.HandlerFunc(s.handleHealth))
	s.mux.Handle("/api/v1/probes", s.withAuth(http.HandlerFunc(s.handleProbes)))
	s.mux.Handle("/api/v1/scans", s.withAuth(http.HandlerFunc(s.handleScans)))
	s.mux.Handle("/api/v1/jobs", s.withAuth(http.HandlerFunc(s.handleJobs)))
	s.mux.Handle("/api/v1/jobs/", s.withAuth(http.HandlerFunc(s.handleJobByID)))
	s.mux.Handle("/api/v1/jobs-stream", s.withAuth(http.HandlerFunc(s.handleJobStream)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProbes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]scan.Kind{"probes": s.cfg.Scanner.Kinds()})
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r)
		return
	}

	req, kinds, opts, err := s.decodeScanRequest(w, r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	rep, err := s.cfg.Scanner.RunScanWithOptions(r.Context(), req.Target, kinds, opts)
	if err != nil {
		s.writeError(w, r, statusForScanError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 25
		if q := r.URL.Query().Get("limit"); q != "" {
			if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		writeJSON(w, http.StatusOK, s.cfg.Jobs.ListJobs(limit))
	case http.MethodPost:
		req, kinds, opts, err := s.decodeScanRequest(w, r)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}
		// Reject malformed targets now rather than in a failed job.
		if _, err := scan.ParseTarget(req.Target); err != nil {
			s.writeError(w, r, http.StatusBadRequest, err)
			return
		}

		job := s.cfg.Jobs.CreateJob(req.Target, kinds)
		go s.runJob(job.ID, req.Target, kinds, opts)
		writeJSON(w, http.StatusAccepted, job)
	default:
		s.methodNotAllowed(w, r)
	}
}

func (s *Server) runJob(id, target string, kinds []scan.Kind, opts appscan.Options) {
	s.cfg.Jobs.UpdateJob(id, func(j *Job) {
		now := time.Now().UTC()
		j.Status = JobStatusRunning
		j.StartedAt = &now
	})

	rep, err := s.cfg.Scanner.RunScanWithOptions(s.jobCtx, target, kinds, opts)

	s.cfg.Jobs.UpdateJob(id, func(j *Job) {
		now := time.Now().UTC()
		j.FinishedAt = &now
		if err != nil {
			j.Status = JobStatusError
			j.Error = err.Error()
			return
		}
		j.Status = JobStatusDone
		j.Report = rep
	})
	if err != nil && s.cfg.Logger != nil {
		s.cfg.Logger.Warn("scan job failed", zap.String("job_id", id), zap.Error(err))
	}
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	if id == "" {
		s.writeError(w, r, http.StatusNotFound, errors.New("job ID required"))
		return
	}
	job := s.cfg.Jobs.GetJob(id)
	if job == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("job not found"))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	updates, unsubscribe := s.cfg.Jobs.Subscribe()
	defer unsubscribe()
	ctx := r.Context()
	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(job)
			if err != nil {
				if s.cfg.Logger != nil {
					s.cfg.Logger.Error("failed to marshal job", zap.Error(err))
				}
				continue
			}
			if !s.writeStreamChunk(w, []byte("event: job\ndata: ")) {
				return
			}
			if !s.writeStreamChunk(w, payload) {
				return
			}
			if !s.writeStreamChunk(w, []byte("\n\n")) {
				return
			}
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// decodeScanRequest reads and checks a scan request body. Empty probes
// means every registered probe.
func (s *Server) decodeScanRequest(w http.ResponseWriter, r *http.Request) (ScanRequest, []scan.Kind, appscan.Options, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, nil, appscan.Options{}, fmt.Errorf("%w: %v", secaerrors.ErrInvalidInput, err)
	}
	if strings.TrimSpace(req.Target) == "" {
		return req, nil, appscan.Options{}, secaerrors.ErrEmptyTarget
	}
	if req.TimeoutSeconds < 0 {
		return req, nil, appscan.Options{}, fmt.Errorf("%w: timeout_seconds must not be negative", secaerrors.ErrInvalidTimeout)
	}

	kinds := s.cfg.Scanner.Kinds()
	if len(req.Probes) > 0 {
		parsed, err := scan.ParseKinds(req.Probes)
		if err != nil {
			return req, nil, appscan.Options{}, err
		}
		kinds = parsed
	}

	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	if s.cfg.MaxTimeout > 0 && timeout > s.cfg.MaxTimeout {
		timeout = s.cfg.MaxTimeout
	}

	return req, kinds, appscan.Options{Timeout: timeout, ScanMode: req.ScanMode}, nil
}

// statusForScanError maps contract violations to 400 and anything else to 500.
func statusForScanError(err error) int {
	for _, target := range []error{
		secaerrors.ErrEmptyTarget,
		secaerrors.ErrInvalidTarget,
		secaerrors.ErrEmptyProbeSet,
		secaerrors.ErrUnknownProbeKind,
		secaerrors.ErrInvalidTimeout,
		secaerrors.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	// Sanitize error messages to prevent information disclosure
	msg := err.Error()

	// For 5xx errors, return generic message and log details server-side
	if status >= 500 {
		if s.cfg.Logger != nil {
			logger := s.requestLogger(r)
			logger.Error("internal_server_error",
				zap.Error(err),
				zap.Int("status", status),
			)
		}
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}

	requestID := middleware.GetRequestID(r.Context())
	return s.cfg.Logger.With(
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func (s *Server) writeStreamChunk(w http.ResponseWriter, data []byte) bool {
	if _, err := w.Write(data); err != nil {
		if s.cfg.Logger != nil {
			s.cfg.Logger.Error("failed to write stream chunk", zap.Error(err))
		}
		return false
	}
	return true
}
