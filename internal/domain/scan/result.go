package scan

import (
	"errors"
	"time"
)

// Reason classifies why a probe failed.
type Reason string

const (
	ReasonTimeout             Reason = "timeout"
	ReasonConnectionRefused   Reason = "connection-refused"
	ReasonConnectionError     Reason = "connection-error"
	ReasonTLSError            Reason = "tls-error"
	ReasonInvalidTarget       Reason = "invalid-target"
	ReasonUnsupportedScanType Reason = "unsupported-scan-type"
	ReasonUnexpectedStatus    Reason = "unexpected-status"
	ReasonUnknown             Reason = "unknown"
)

// Status tags which half of a Result is populated.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Payload is the probe-specific data carried by a successful Result.
type Payload interface {
	// ProbeKind reports which probe produced the payload.
	ProbeKind() Kind
}

// Failure describes a failed probe.
type Failure struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message,omitempty"`
}

// Result is the outcome of one probe: exactly one of Payload and Failure is set.
type Result struct {
	Kind     Kind          `json:"kind"`
	Status   Status        `json:"status"`
	Payload  Payload       `json:"payload,omitempty"`
	Failure  *Failure      `json:"failure,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Succeed builds a successful result.
func Succeed(kind Kind, payload Payload) Result {
	if payload == nil {
		return Fail(kind, ReasonUnknown, errors.New("probe returned no payload"))
	}
	return Result{Kind: kind, Status: StatusSuccess, Payload: payload}
}

// Fail builds a failed result. err may be nil.
func Fail(kind Kind, reason Reason, err error) Result {
	f := &Failure{Reason: reason}
	if err != nil {
		f.Message = err.Error()
	}
	return Result{Kind: kind, Status: StatusFailure, Failure: f}
}

// FailFromError classifies err and builds a failed result.
func FailFromError(kind Kind, err error) Result {
	return Fail(kind, ClassifyError(err), err)
}

// OK reports whether the probe succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess && r.Payload != nil
}

// Reason returns the failure reason, or "" for a success.
func (r Result) Reason() Reason {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Reason
}

// WithDuration returns a copy of r carrying the elapsed probe time.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// Validate checks the tagged-union invariant.
func (r Result) Validate() error {
	switch r.Status {
	case StatusSuccess:
		if r.Payload == nil || r.Failure != nil {
			return errors.New("success result must carry a payload and no failure")
		}
		if r.Payload.ProbeKind() != r.Kind {
			return errors.New("payload kind does not match result kind")
		}
	case StatusFailure:
		if r.Failure == nil || r.Payload != nil {
			return errors.New("failure result must carry a failure and no payload")
		}
	default:
		return errors.New("result has no status")
	}
	return nil
}
