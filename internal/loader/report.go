package loader

import (
	"fmt"
	"time"
)

// Result is the outcome of one run.
type Result string

// Run results.
const (
	// ResultSuccess means the tool ran and reported no failed customers.
	ResultSuccess Result = "success"
	// ResultFailed means the tool ran and rejected at least one customer.
	ResultFailed Result = "failed"
	// ResultEmpty means there was nothing to load.
	ResultEmpty Result = "empty"
	// ResultDeferred means another run holds the lock.
	ResultDeferred Result = "deferred"
	// ResultNotUploaded means records were combined and cleaned without running the tool.
	ResultNotUploaded Result = "not_uploaded"
	// ResultAborted means the run stopped early and left staged records in place.
	ResultAborted Result = "aborted"
)

// Report describes one run.
type Report struct {
	RunID    string        `json:"run_id"`
	Result   Result        `json:"result"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Path     []State       `json:"states"`

	Staged       int      `json:"staged"`
	Skipped      []string `json:"skipped,omitempty"`
	Failed       []string `json:"failed,omitempty"`
	CombinedFile string   `json:"combined_file,omitempty"`
	ExitCode     int      `json:"exit_code"`

	// LockAge is set on a deferred run.
	LockAge   time.Duration `json:"lock_age_ns,omitempty"`
	StaleLock bool          `json:"stale_lock,omitempty"`

	// LockRetained means the tool could not be confirmed dead, so the lock was left in place.
	LockRetained bool `json:"lock_retained,omitempty"`

	Err    error  `json:"-"`
	Reason string `json:"error,omitempty"`
}

// Successful reports whether the run loaded everything it was asked to.
// Deferred and aborted runs are not successful; an empty run is.
func (r Report) Successful() bool {
	switch r.Result {
	case ResultSuccess, ResultEmpty, ResultNotUploaded:
		return true
	}
	return false
}

// Summary renders the run for logs and the CLI.
func (r Report) Summary() string {
	switch r.Result {
	case ResultDeferred:
		return fmt.Sprintf("deferred: lock held for %s", r.LockAge.Round(time.Second))
	case ResultEmpty:
		return "nothing to load"
	case ResultAborted:
		return "aborted: " + r.Reason
	case ResultNotUploaded:
		return fmt.Sprintf("%d records combined into %s, not uploaded", r.Staged, r.CombinedFile)
	}
	return fmt.Sprintf("%d failure(s) out of %d", len(r.Failed), r.Staged)
}
