package worker

import (
	"context"
	"sort"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// indexed pairs a job or result with its submission order
type indexed[T any] struct {
	index int
	item  T
}

// Pool manages a pool of workers that execute jobs concurrently.
// Wait returns results in submission order, regardless of completion order.
type Pool struct {
	workers    int
	jobQueue   chan indexed[Job]
	results    chan indexed[Result]
	collected  []indexed[Result]
	collectWG  sync.WaitGroup
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
	submitted  int
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	return NewPoolWithContext(context.Background(), workers)
}

// NewPoolWithContext creates a pool whose jobs are cancelled with ctx
func NewPoolWithContext(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexed[Job], workers*2), // Buffered to prevent blocking
		results:    make(chan indexed[Result], workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool and its result collector
func (p *Pool) Start() {
	p.collectWG.Add(1)
	go func() {
		defer p.collectWG.Done()
		for r := range p.results {
			p.collected = append(p.collected, r)
		}
	}()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker is the worker goroutine that processes jobs
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.item.Execute(p.ctx)
			select {
			case p.results <- indexed[Result]{index: job.index, item: result}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit submits a job to the pool for execution.
// Submit is not safe for concurrent use; the submission order is the result order.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- indexed[Job]{index: p.submitted, item: job}:
		p.submitted++
	}
}

// Wait waits for all jobs to complete and returns the results in submission order
func (p *Pool) Wait() []Result {
	// Close job queue to signal workers to exit when done
	close(p.jobQueue)

	p.wg.Wait()
	p.closeResults()
	p.collectWG.Wait()
	p.cancelFunc()

	sort.Slice(p.collected, func(i, j int) bool {
		return p.collected[i].index < p.collected[j].index
	})

	results := make([]Result, len(p.collected))
	for i, r := range p.collected {
		results[i] = r.item
	}
	return results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	p.collectWG.Wait()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// Run executes jobs and returns their results in order.
// With one worker the jobs run inline on the calling goroutine.
func Run(ctx context.Context, workers int, jobs []Job) []Result {
	if workers <= 1 || len(jobs) <= 1 {
		results := make([]Result, len(jobs))
		for i, job := range jobs {
			results[i] = job.Execute(ctx)
		}
		return results
	}

	if workers > len(jobs) {
		workers = len(jobs)
	}

	pool := NewPoolWithContext(ctx, workers)
	pool.Start()
	for _, job := range jobs {
		pool.Submit(job)
	}
	return pool.Wait()
}
