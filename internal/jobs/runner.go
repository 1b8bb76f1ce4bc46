package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of scheduled work. Jobs decide internally whether the
// current tick is inside their firing window, so re-runs must be safe.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type registration struct {
	job      Job
	interval time.Duration
}

// Runner drives registered jobs on fixed tickers. Delay-based scheduling has
// no exactly-once guarantee; every job is written to tolerate repeats.
type Runner struct {
	mu     sync.Mutex
	regs   []registration
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Register adds a job to be run at the given interval once Start is called.
func (r *Runner) Register(job Job, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs = append(r.regs, registration{job: job, interval: interval})
}

// Start launches one goroutine per registered job.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, r.cancel = context.WithCancel(ctx)
	for _, reg := range r.regs {
		r.wg.Add(1)
		go r.loop(ctx, reg)
	}
}

// Stop cancels all job loops and waits for them to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, reg registration) {
	defer r.wg.Done()

	t := time.NewTicker(reg.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.runOnce(ctx, reg.job)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, job Job) {
	start := time.Now()
	if err := job.Run(ctx); err != nil {
		jobErrors.WithLabelValues(job.Name()).Inc()
		r.logger.Error("job failed", "job", job.Name(), "error", err)
	}
	jobRuns.WithLabelValues(job.Name()).Inc()
	jobDuration.WithLabelValues(job.Name()).Observe(time.Since(start).Seconds())
}
