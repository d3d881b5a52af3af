// Package pool runs submitted jobs on a fixed number of goroutines.
package pool

import (
	"context"
	"sync"
)

type Pool struct {
	jobs      chan func()
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts n workers; n below 1 is treated as 1.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		jobs: make(chan func(), n*2),
	}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer p.wg.Done()
			for f := range p.jobs {
				if f != nil {
					f()
				}
			}
		}()
	}
	return p
}

// Submit queues f, blocking while the queue is full. It gives up when ctx
// is done. Submit must not be called after Close.
func (p *Pool) Submit(ctx context.Context, f func()) error {
	select {
	case p.jobs <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs; queued ones still run. It is safe to call twice.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.jobs) })
}

func (p *Pool) Wait() {
	p.wg.Wait()
}
