// pkg/server/jobs/memory.go
package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// DefaultConcurrency is used when NewMemoryManager gets a non-positive value.
const DefaultConcurrency = 4

type envelope struct {
	ctx context.Context
	job Job
	out chan Result
}

// MemoryManager is an in-memory implementation of Manager.
// It processes jobs using a worker pool with configurable concurrency.
type MemoryManager struct {
	detector    Detector
	concurrency int
	queue       chan envelope
	wg          sync.WaitGroup
	cancelFunc  context.CancelFunc
	done        <-chan struct{}
	mu          sync.RWMutex
	started     bool

	active    atomic.Int64
	processed atomic.Int64
}

// NewMemoryManager creates a new in-memory job manager.
// concurrency controls the number of worker goroutines.
// If concurrency <= 0, defaults to 4.
func NewMemoryManager(detector Detector, concurrency int) *MemoryManager {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &MemoryManager{
		detector:    detector,
		concurrency: concurrency,
		queue:       make(chan envelope, concurrency*8),
	}
}

// Start begins processing jobs in the background.
func (m *MemoryManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("job manager already started")
	}

	workerCtx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	m.done = workerCtx.Done()

	for i := 0; i < m.concurrency; i++ {
		m.wg.Add(1)
		go m.worker(workerCtx, i)
	}

	m.started = true
	log.Info().
		Str("component", "jobs").
		Int("workers", m.concurrency).
		Msg("Job manager started")

	return nil
}

// Stop gracefully stops all workers and waits for in-flight jobs to complete.
// It respects the context deadline for shutdown timeout.
func (m *MemoryManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.started = false
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.drain()
		log.Info().
			Str("component", "jobs").
			Int64("processed", m.processed.Load()).
			Msg("Job manager stopped gracefully")
		return nil
	case <-ctx.Done():
		log.Warn().
			Str("component", "jobs").
			Msg("Job manager shutdown timed out")
		return ctx.Err()
	}
}

// Submit queues job. It blocks while the queue is full.
func (m *MemoryManager) Submit(ctx context.Context, job Job) (<-chan Result, error) {
	m.mu.RLock()
	started, done := m.started, m.done
	m.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	out := make(chan Result, 1)
	select {
	case m.queue <- envelope{ctx: ctx, job: job, out: out}:
		return out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
		return nil, ErrNotStarted
	}
}

// Status reports current queue statistics.
func (m *MemoryManager) Status() Status {
	return Status{
		Workers:    m.concurrency,
		QueueDepth: len(m.queue),
		ActiveJobs: m.active.Load(),
		Processed:  m.processed.Load(),
	}
}

// drain answers jobs still queued after the workers exited.
func (m *MemoryManager) drain() {
	for {
		select {
		case env := <-m.queue:
			env.out <- Result{Job: env.job, Err: ErrNotStarted}
		default:
			return
		}
	}
}

// worker processes jobs from the queue until the context is canceled.
func (m *MemoryManager) worker(ctx context.Context, id int) {
	defer m.wg.Done()

	log.Debug().
		Str("component", "jobs").
		Int("worker_id", id).
		Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().
				Str("component", "jobs").
				Int("worker_id", id).
				Msg("Worker stopping")
			return
		case env := <-m.queue:
			m.run(env, id)
		}
	}
}

// run executes one job. Counters settle before the result is delivered so a
// caller that has its result sees them updated.
func (m *MemoryManager) run(env envelope, id int) {
	m.active.Add(1)

	log.Debug().
		Str("component", "jobs").
		Int("worker_id", id).
		Str("job_id", env.job.ID).
		Str("url", env.job.Request.URL).
		Msg("Processing job")

	res := Result{Job: env.job}
	if err := env.ctx.Err(); err != nil {
		res.Err = err
	} else {
		res.Report, res.Err = m.detector.Detect(env.ctx, env.job.Request)
	}

	m.processed.Add(1)
	m.active.Add(-1)
	env.out <- res
}
