// Package workerpool is a fixed-size pool of goroutines draining a FIFO
// task queue, used by the fleet rebuild (Component H's ProcessAllUsers) to
// fan work for one user at a time across N threads.
package workerpool

import (
	"context"
	"sync"

	"github.com/ppy/osu-performance/pkg/logger"
)

// Task is one unit of work submitted to the pool.
type Task func(ctx context.Context) error

// Pool runs a fixed number of worker goroutines pulling Tasks off a shared
// channel. Inflight is tracked so callers can wait for quiescence (every
// submitted task has finished) without needing a separate WaitGroup.
type Pool struct {
	tasks   chan Task
	workers int

	wg sync.WaitGroup

	inflight sync.WaitGroup
	mu       sync.Mutex
	count    int64

	log logger.Logger

	shutdown chan struct{}
	once     sync.Once
}

// New starts a pool of n workers (n<1 is treated as 1) pulling from an
// unbuffered task channel.
func New(n int, log logger.Logger) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		tasks:    make(chan Task),
		workers:  n,
		log:      log,
		shutdown: make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	return p
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.shutdown:
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.execute(task)
		}
	}
}

func (p *Pool) execute(task Task) {
	defer p.inflight.Done()
	ctx := context.Background()
	if err := task(ctx); err != nil && p.log != nil {
		p.log.Error(ctx, "workerpool task failed", logger.Error(err))
	}

	p.mu.Lock()
	p.count++
	p.mu.Unlock()
}

// Submit enqueues task. It blocks if every worker is busy and no one is
// draining the queue; callers that need backpressure-free submission should
// size the pool generously.
func (p *Pool) Submit(task Task) {
	p.inflight.Add(1)
	p.tasks <- task
}

// Wait blocks until every submitted task has completed. Safe to call
// repeatedly; does not prevent further Submit calls.
func (p *Pool) Wait() {
	p.inflight.Wait()
}

// Processed reports how many tasks have completed so far.
func (p *Pool) Processed() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Close stops accepting new tasks and waits for in-flight workers to drain.
// Safe to call more than once.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.shutdown)
		close(p.tasks)
	})
	p.wg.Wait()
}
