package dispatch

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// chunksPerWorker controls how finely an index range is split. More chunks
// than workers lets idle workers steal from slow ones.
const chunksPerWorker = 4

// Parallel spreads an index range over a fixed set of worker goroutines and
// blocks until every index has run.
//
// Each worker owns a queue and steals from the others when its own queue is
// empty. Parallel is safe for concurrent use; Close stops the workers.
type Parallel struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewParallel starts a pool. If workers is 0 or negative, GOMAXPROCS is used.
func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := workers * chunksPerWorker
	if queueSize < 8 {
		queueSize = 8
	}

	p := &Parallel{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Parallel) worker(id int) {
	defer p.wg.Done()

	myQueue := p.workQueues[id]
	for {
		select {
		case <-p.done:
			p.drainQueue(myQueue)
			return
		case work := <-myQueue:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drainQueue(myQueue)
				return
			case work := <-myQueue:
				work()
			}
		}
	}
}

func (p *Parallel) drainQueue(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *Parallel) steal(myID int) func() {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// Dispatch splits [0, count) into contiguous chunks, queues them round-robin
// and waits for all of them. After Close it falls back to running the range
// on the calling goroutine so every index still executes exactly once.
func (p *Parallel) Dispatch(count int, task func(index int)) {
	if count <= 0 {
		return
	}
	if p == nil || !p.running.Load() {
		Sequential{}.Dispatch(count, task)
		return
	}

	chunks := p.workers * chunksPerWorker
	if chunks > count {
		chunks = count
	}
	size := (count + chunks - 1) / chunks

	var completion sync.WaitGroup
	for c, start := 0, 0; start < count; c, start = c+1, start+size {
		end := min(start+size, count)
		run := func() {
			defer completion.Done()
			for i := start; i < end; i++ {
				task(i)
			}
		}
		completion.Add(1)
		select {
		case p.workQueues[c%p.workers] <- run:
		case <-p.done:
			run()
		}
	}
	completion.Wait()
}

// Workers returns the number of worker goroutines.
func (p *Parallel) Workers() int {
	return p.workers
}

// Close stops the workers after queued work finishes. It is safe to call
// more than once but must not race with an in-flight Dispatch.
func (p *Parallel) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}
