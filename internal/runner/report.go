package runner

import (
	stderrors "errors"
	"sync"
	"time"

	"github.com/AndreyAkinshin/mbexec/internal/target"
)

// Outcome is the result of running work on one target.
type Outcome struct {
	Seq      int // Completion order, starting at 1
	Target   target.Target
	Err      error // nil on success; tagged "[host] execution failed: ..."
	Duration time.Duration
}

// OK reports whether the target succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Report collects one Outcome per target in completion order.
// It is safe for concurrent use.
type Report struct {
	mu       sync.Mutex
	outcomes []Outcome
	started  time.Time
	finished time.Time
}

func newReport() *Report {
	return &Report{started: time.Now()}
}

func (r *Report) record(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.Seq = len(r.outcomes) + 1
	r.outcomes = append(r.outcomes, o)
}

func (r *Report) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = time.Now()
}

// Outcomes returns every outcome in completion order.
func (r *Report) Outcomes() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Outcome, len(r.outcomes))
	copy(result, r.outcomes)
	return result
}

// Failures returns the errors of failed outcomes in completion order.
func (r *Report) Failures() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, o := range r.outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}

// Len returns the number of recorded outcomes.
func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outcomes)
}

// Succeeded returns the number of successful outcomes.
func (r *Report) Succeeded() int {
	return r.Len() - len(r.Failures())
}

// Failed returns the number of failed outcomes.
func (r *Report) Failed() int {
	return len(r.Failures())
}

// Err returns the first captured failure, or nil if every target succeeded.
func (r *Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	return failures[0]
}

// Combined joins every failure into one error.
func (r *Report) Combined() error {
	return combineErrors(r.Failures())
}

// Started returns when the run began.
func (r *Report) Started() time.Time {
	return r.started
}

// Duration returns the wall-clock time of the run.
func (r *Report) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished.IsZero() {
		return time.Since(r.started)
	}
	return r.finished.Sub(r.started)
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return stderrors.Join(errs...)
}
