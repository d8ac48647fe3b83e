package jobs

import (
	"context"
	"errors"

	"github.com/vulntor/stackscan/pkg/techdetect"
)

// ErrNotStarted is returned by Submit before Start or after Stop.
var ErrNotStarted = errors.New("job manager not started")

// Detector is the subset of techdetect.Detector the workers need.
type Detector interface {
	Detect(ctx context.Context, req techdetect.Request) (*techdetect.Report, error)
}

// Manager runs detection jobs on a bounded set of workers.
type Manager interface {
	// Start spawns the workers. They exit when ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully shuts down job processing.
	// Waits for in-flight jobs to complete or context timeout.
	Stop(ctx context.Context) error

	// Submit queues job and returns a channel that receives exactly one Result.
	Submit(ctx context.Context, job Job) (<-chan Result, error)

	// Status reports worker and queue counters.
	Status() Status
}

// Job is one detection request.
type Job struct {
	ID      string
	Request techdetect.Request
}

// Result is the outcome of a Job.
type Result struct {
	Job    Job
	Report *techdetect.Report
	Err    error
}

// Status holds job manager statistics, reported on GET /status.
type Status struct {
	Workers    int   `json:"workers"`
	QueueDepth int   `json:"queue_depth"`
	ActiveJobs int64 `json:"active_jobs"`
	Processed  int64 `json:"processed"`
}

// RunAll submits every job and returns the results in submission order.
// A job that cannot be queued gets a Result carrying the submit error.
func RunAll(ctx context.Context, m Manager, jobs []Job) []Result {
	chans := make([]<-chan Result, len(jobs))
	results := make([]Result, len(jobs))
	for i, job := range jobs {
		ch, err := m.Submit(ctx, job)
		if err != nil {
			results[i] = Result{Job: job, Err: err}
			continue
		}
		chans[i] = ch
	}
	for i, ch := range chans {
		if ch == nil {
			continue
		}
		select {
		case res := <-ch:
			results[i] = res
		case <-ctx.Done():
			results[i] = Result{Job: jobs[i], Err: ctx.Err()}
		}
	}
	return results
}
