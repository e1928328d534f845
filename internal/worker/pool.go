// Package worker implements a fixed pool of evaluation goroutines for batch
// requests. Concurrent batches share the pool, so a burst of large uploads
// queues up instead of spawning unbounded work.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/openmohaa/fourthdown-api/internal/logic"
	"github.com/openmohaa/fourthdown-api/internal/models"
)

// ErrPoolStopped is returned by Evaluate once Stop has been called.
var ErrPoolStopped = errors.New("worker pool stopped")

// Prometheus metrics
var (
	rowsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fourthdown_batch_rows_evaluated_total",
		Help: "Total number of batch rows evaluated by workers",
	})

	batchesCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fourthdown_batches_cancelled_total",
		Help: "Total number of batches abandoned before all rows were queued",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fourthdown_worker_queue_depth",
		Help: "Current depth of the worker queue",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fourthdown_batch_duration_seconds",
		Help:    "Duration of batch evaluations",
		Buckets: prometheus.DefBuckets,
	})
)

// Job is one row of a batch.
type Job struct {
	YardLine  int
	YardsToGo float64
	Overrides models.Overrides
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount int
	QueueSize   int
	Logger      *zap.Logger
}

type task struct {
	svc     logic.DecisionService
	job     Job
	index   int
	results []*models.Decision
	done    *sync.WaitGroup
}

// Pool manages a pool of workers for batch evaluation
type Pool struct {
	config   PoolConfig
	jobQueue chan task
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger

	// mu guards stopped; submitters hold the read lock so Stop never closes
	// the queue under them.
	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan task, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines. The pool stops itself when ctx ends.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	go func() {
		<-p.ctx.Done()
		p.Stop()
	}()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
	)
}

// Stop drains queued rows and waits for the workers to exit. It is safe to
// call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	queueDepth.Set(0)
	p.logger.Info("Worker pool stopped")
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// Evaluate runs every job through svc and returns the decisions in job order.
// If ctx ends before all jobs are queued, the rows already queued still finish
// and ctx's error is returned.
func (p *Pool) Evaluate(ctx context.Context, svc logic.DecisionService, jobs []Job) ([]*models.Decision, error) {
	start := time.Now()
	results := make([]*models.Decision, len(jobs))
	var done sync.WaitGroup

	err := p.submit(ctx, svc, jobs, results, &done)
	done.Wait()
	if err != nil {
		batchesCancelled.Inc()
		return nil, err
	}
	for i, d := range results {
		if d == nil {
			return nil, fmt.Errorf("row %d: evaluation failed", i+1)
		}
	}

	batchDuration.Observe(time.Since(start).Seconds())
	return results, nil
}

func (p *Pool) submit(ctx context.Context, svc logic.DecisionService, jobs []Job, results []*models.Decision, done *sync.WaitGroup) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	for i, job := range jobs {
		done.Add(1)
		select {
		case p.jobQueue <- task{svc: svc, job: job, index: i, results: results, done: done}:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-ctx.Done():
			done.Done()
			return ctx.Err()
		}
	}
	return nil
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for t := range p.jobQueue {
		p.run(t)
		queueDepth.Set(float64(len(p.jobQueue)))
	}
}

func (p *Pool) run(t task) {
	defer t.done.Done()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorw("Evaluation panic", "error", r, "yard_line", t.job.YardLine, "yards_to_go", t.job.YardsToGo)
		}
	}()

	t.results[t.index] = t.svc.Evaluate(t.job.YardLine, t.job.YardsToGo, t.job.Overrides)
	rowsEvaluated.Inc()
}
