package extractor

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"fbvideodl/internal/metrics"
)

var (
	ErrPoolStopped = errors.New("extraction pool is stopped")
)

// Result is the outcome of one pooled extraction
type Result struct {
	Info *RawInfo
	Err  error
}

type job struct {
	ctx      context.Context
	url      string
	selector string
	result   chan Result
}

// Pool runs engine extractions on a fixed number of workers fed by a bounded
// queue
type Pool struct {
	mu         sync.RWMutex
	engine     Engine
	jobs       chan job
	ctx        context.Context
	cancel     context.CancelFunc
	workerWg   sync.WaitGroup
	running    bool
	maxWorkers int
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewPool creates a new pool
func NewPool(engine Engine, maxWorkers, queueSize int, m *metrics.Metrics, logger *zap.Logger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		engine:     engine,
		jobs:       make(chan job, queueSize),
		maxWorkers: maxWorkers,
		metrics:    m,
		logger:     logger.Named("pool"),
	}
}

// Start starts the pool workers
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.running = true

	for i := 0; i < p.maxWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker(p.ctx)
	}

	p.logger.Info("extraction pool started", zap.Int("workers", p.maxWorkers), zap.Int("queue_size", cap(p.jobs)))
	return nil
}

// Stop stops the pool workers. Jobs still queued fail with ErrPoolStopped.
func (p *Pool) Stop() error {
	p.mu.RLock()
	running, cancel := p.running, p.cancel
	p.mu.RUnlock()

	if !running {
		return nil
	}

	// wake submitters blocked on a full queue, then wait for every in-flight
	// Submit to leave before marking the pool stopped
	cancel()

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.workerWg.Wait()

	for {
		select {
		case j := <-p.jobs:
			j.result <- Result{Err: ErrPoolStopped}
		default:
			p.metrics.SetQueueDepth(0)
			return nil
		}
	}
}

// IsRunning returns whether the pool is accepting jobs
func (p *Pool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// QueueLength returns the number of jobs waiting for a worker
func (p *Pool) QueueLength() int {
	return len(p.jobs)
}

// Submit queues an extraction and returns a channel that receives exactly one
// result. It blocks while the queue is full until ctx is done.
func (p *Pool) Submit(ctx context.Context, url, selector string) (<-chan Result, error) {
	// held across the send so Stop cannot drain the queue underneath us
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running || p.ctx.Err() != nil {
		return nil, ErrPoolStopped
	}

	j := job{
		ctx:      ctx,
		url:      url,
		selector: selector,
		result:   make(chan Result, 1),
	}

	select {
	case p.jobs <- j:
		p.metrics.SetQueueDepth(len(p.jobs))
		return j.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.ctx.Done():
		return nil, ErrPoolStopped
	}
}

// Do submits an extraction and waits for its result
func (p *Pool) Do(ctx context.Context, url, selector string) (*RawInfo, error) {
	ch, err := p.Submit(ctx, url, selector)
	if err != nil {
		return nil, err
	}

	select {
	case res := <-ch:
		return res.Info, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// worker processes extraction jobs from the queue
func (p *Pool) worker(ctx context.Context) {
	defer p.workerWg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.jobs:
			p.metrics.SetQueueDepth(len(p.jobs))
			if ctx.Err() != nil {
				j.result <- Result{Err: ErrPoolStopped}
				continue
			}
			j.result <- p.run(j)
		}
	}
}

func (p *Pool) run(j job) Result {
	if err := j.ctx.Err(); err != nil {
		// caller gave up while the job was queued
		return Result{Err: err}
	}

	info, err := p.engine.Extract(j.ctx, j.url, j.selector)
	return Result{Info: info, Err: err}
}
