// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrNilJob    = errors.New("nil job")
	ErrPoolFull  = errors.New("worker queue full")
	ErrPoolClose = errors.New("worker pool stopped")
)

// Job is a unit of work run by the pool. Account loops are long-lived jobs
// that return only when ctx is done.
type Job func(ctx context.Context) error

type Pool struct {
	wg     sync.WaitGroup
	jobs   chan Job
	quit   chan struct{}
	once   sync.Once
	n      int
	log    *zerolog.Logger
	closed bool
	mu     sync.Mutex
}

func NewPool(workers int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	lg := logger.With().Str("component", "worker_pool").Logger()
	return &Pool{jobs: make(chan Job, workers*4), quit: make(chan struct{}), n: workers, log: &lg}
}

func (p *Pool) Size() int { return p.n }

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case job := <-p.jobs:
					if err := p.run(ctx, job); err != nil {
						p.log.Error().Err(err).Int("worker", id).Msg("job failed")
					}
				}
			}
		}(i)
	}
}

func (p *Pool) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panic: %v", r)
		}
	}()
	return job(ctx)
}

// Stop signals workers to exit and waits for running jobs to return. Jobs
// should watch the ctx passed to Start; Stop does not cancel it.
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.quit)
	})
	p.wg.Wait()
}

func (p *Pool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClose
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrPoolFull
	}
}
