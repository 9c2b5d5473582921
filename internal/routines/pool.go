// Package routines provides a fixed-size pool of go-routines.
package routines

import "sync"

// Pool runs queued functions concurrently on a fixed number of go-routines.
type Pool struct {
	queue     chan func()
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewPool starts a pool with the given number of workers.
// If workers is smaller than 1, 1 worker is started.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := Pool{
		queue: make(chan func()),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return &p
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for fn := range p.queue {
		fn()
	}
}

// Queue schedules fn for execution.
// It blocks until a worker is available.
// Calling Queue after Wait panics.
func (p *Pool) Queue(fn func()) {
	p.queue <- fn
}

// Wait waits until all queued functions finished and terminates the workers.
func (p *Pool) Wait() {
	p.closeOnce.Do(func() { close(p.queue) })
	p.wg.Wait()
}
