// Package sync runs cross-collection link propagation in the background.
// Jobs are at-most-once: a full queue drops the job, and failures are
// logged but never reported to the caller that enqueued them.
package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// jobTimeout is the maximum time allowed for a single job.
const jobTimeout = 30 * time.Second

// flushPollInterval is how often Flush checks for an idle queue.
const flushPollInterval = 5 * time.Millisecond

// Job is one unit of background work.
type Job struct {
	// Name identifies the job in logs, e.g. "propagate taskmaster/123".
	Name string

	// Ctx carries request values such as the authenticated user. Its
	// cancellation is ignored; the job runs with its own timeout.
	Ctx context.Context

	Run func(ctx context.Context) error
}

// ResultMsg is a tea.Msg sent when a job finishes.
type ResultMsg struct {
	Job string
	Err error
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Enqueued  uint64
	Dropped   uint64
	Succeeded uint64
	Failed    uint64
	Pending   int
	LastError error
	LastRun   time.Time
}

// Dispatcher drains a bounded job queue on a single worker goroutine.
type Dispatcher struct {
	log      zerolog.Logger
	queue    chan Job
	resultCh chan ResultMsg
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu      gosync.Mutex
	running bool
	stopped bool
	stats   Stats
}

// New creates a Dispatcher with room for queueSize pending jobs.
func New(log zerolog.Logger, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		log:      log.With().Str("component", "sync").Logger(),
		queue:    make(chan Job, queueSize),
		resultCh: make(chan ResultMsg, 16),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the worker goroutine. Calling it twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running || d.stopped {
		return
	}
	d.running = true
	go d.work()
}

// Stop stops accepting jobs, runs whatever is already queued and waits
// for the worker to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	running := d.running
	d.mu.Unlock()

	if !running {
		return
	}
	close(d.stopCh)
	<-d.doneCh
}

// Enqueue schedules job without blocking. It reports false when the job
// was dropped because the queue is full or the dispatcher is stopped.
func (d *Dispatcher) Enqueue(job Job) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		d.stats.Dropped++
		d.log.Warn().Str("job", job.Name).Msg("dispatcher stopped, dropping job")
		return false
	}

	select {
	case d.queue <- job:
		d.stats.Enqueued++
		d.stats.Pending++
		return true
	default:
		d.stats.Dropped++
		d.log.Warn().Str("job", job.Name).Msg("sync queue full, dropping job")
		return false
	}
}

// Flush waits until every queued job has run or ctx is done.
func (d *Dispatcher) Flush(ctx context.Context) error {
	ticker := time.NewTicker(flushPollInterval)
	defer ticker.Stop()

	for {
		if d.Stats().Pending == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// WaitForResult returns a tea.Cmd that waits for the next finished job.
// Call it again after each ResultMsg to keep listening.
func (d *Dispatcher) WaitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-d.resultCh:
			return result
		case <-d.doneCh:
			return nil
		}
	}
}

func (d *Dispatcher) work() {
	defer close(d.doneCh)

	for {
		select {
		case job := <-d.queue:
			d.run(job)
		case <-d.stopCh:
			for {
				select {
				case job := <-d.queue:
					d.run(job)
				default:
					return
				}
			}
		}
	}
}

// run executes a single job. Panics are recovered so one bad job cannot
// take the worker down.
func (d *Dispatcher) run(job Job) {
	base := job.Ctx
	if base == nil {
		base = context.Background()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(base), jobTimeout)
	defer cancel()

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = panicError{value: r}
			}
		}()
		err = job.Run(ctx)
	}()

	d.mu.Lock()
	d.stats.Pending--
	d.stats.LastRun = time.Now()
	if err != nil {
		d.stats.Failed++
		d.stats.LastError = err
	} else {
		d.stats.Succeeded++
	}
	d.mu.Unlock()

	if err != nil {
		d.log.Error().Err(err).Str("job", job.Name).Msg("link sync failed")
	} else {
		d.log.Debug().Str("job", job.Name).Msg("link sync done")
	}

	d.sendResult(ResultMsg{Job: job.Name, Err: err})
}

// sendResult sends a ResultMsg on the result channel without blocking.
func (d *Dispatcher) sendResult(msg ResultMsg) {
	select {
	case d.resultCh <- msg:
	default:
		// Drop if nobody is listening.
	}
}

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("job panicked: %v", p.value)
}
