// Package report aggregates probe results into an immutable scan report.
package report

import (
	"encoding/json"
	"time"

	"github.com/khanhnv2901/seca-recon/internal/domain/scan"
	"github.com/khanhnv2901/seca-recon/internal/fingerprint"
)

// Posture is the overall security verdict of a report.
type Posture string

const (
	PostureGood    Posture = "good"
	PosturePoor    Posture = "poor"
	PostureUnknown Posture = "unknown"
)

// Report is the immutable outcome of one scan session. It holds exactly
// one result per requested kind, ordered by kind.
type Report struct {
	sessionID  string
	target     string
	scanMode   string
	startedAt  time.Time
	finishedAt time.Time

	kinds   []scan.Kind
	results map[scan.Kind]scan.Result

	missingHeaders      []string
	missingHeadersKnown bool
	posture             Posture
	fingerprints        []fingerprint.Fingerprint
}

// Getters

func (r *Report) SessionID() string {
	return r.sessionID
}

func (r *Report) Target() string {
	return r.target
}

func (r *Report) ScanMode() string {
	return r.scanMode
}

func (r *Report) StartedAt() time.Time {
	return r.startedAt
}

func (r *Report) FinishedAt() time.Time {
	return r.finishedAt
}

// Kinds returns the requested kinds in report order.
func (r *Report) Kinds() []scan.Kind {
	return append([]scan.Kind(nil), r.kinds...)
}

// Results returns one result per requested kind in report order.
func (r *Report) Results() []scan.Result {
	out := make([]scan.Result, 0, len(r.kinds))
	for _, k := range r.kinds {
		out = append(out, r.results[k])
	}
	return out
}

// Result returns the result for kind, if it was requested.
func (r *Report) Result(kind scan.Kind) (scan.Result, bool) {
	res, ok := r.results[kind]
	return res, ok
}

// MissingHeaders returns the missing security headers. ok is false when the
// security header probe was not requested or failed.
func (r *Report) MissingHeaders() (missing []string, ok bool) {
	if !r.missingHeadersKnown {
		return nil, false
	}
	return append([]string{}, r.missingHeaders...), true
}

func (r *Report) Posture() Posture {
	return r.posture
}

// Fingerprints returns the merged, de-duplicated fingerprint set.
func (r *Report) Fingerprints() []fingerprint.Fingerprint {
	return append([]fingerprint.Fingerprint{}, r.fingerprints...)
}

// Succeeded counts successful probes.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.results {
		if res.OK() {
			n++
		}
	}
	return n
}

// Failed counts failed probes.
func (r *Report) Failed() int {
	return len(r.results) - r.Succeeded()
}

// Payload returns the typed payload of kind when that probe succeeded.
func Payload[T scan.Payload](r *Report, kind scan.Kind) (T, bool) {
	var zero T
	res, ok := r.results[kind]
	if !ok || !res.OK() {
		return zero, false
	}
	p, ok := res.Payload.(T)
	if !ok {
		return zero, false
	}
	return p, true
}

type reportJSON struct {
	SessionID      string                    `json:"session_id"`
	Target         string                    `json:"target"`
	ScanMode       string                    `json:"scan_mode,omitempty"`
	StartedAt      time.Time                 `json:"started_at"`
	FinishedAt     time.Time                 `json:"finished_at"`
	Posture        Posture                   `json:"posture"`
	MissingHeaders []string                  `json:"missing_headers"`
	Fingerprints   []fingerprint.Fingerprint `json:"fingerprints"`
	Results        []scan.Result             `json:"results"`
	Summary        summaryJSON               `json:"summary"`
}

type summaryJSON struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// MarshalJSON renders the report. missing_headers is null when unknown.
func (r *Report) MarshalJSON() ([]byte, error) {
	missing, _ := r.MissingHeaders()
	return json.Marshal(reportJSON{
		SessionID:      r.sessionID,
		Target:         r.target,
		ScanMode:       r.scanMode,
		StartedAt:      r.startedAt,
		FinishedAt:     r.finishedAt,
		Posture:        r.posture,
		MissingHeaders: missing,
		Fingerprints:   r.Fingerprints(),
		Results:        r.Results(),
		Summary: summaryJSON{
			Total:     len(r.kinds),
			Succeeded: r.Succeeded(),
			Failed:    r.Failed(),
		},
	})
}
