// Package dispatch runs an indexed task over [0, count) either on the calling
// goroutine or across a worker pool.
//
// Tasks get no ordering guarantee. Each index runs exactly once before
// Dispatch returns, so a task that only writes memory owned by its own index
// needs no locking.
package dispatch

// Dispatcher executes task(i) for every i in [0, count).
type Dispatcher interface {
	Dispatch(count int, task func(index int))
}

// Sequential runs every index in order on the calling goroutine.
type Sequential struct{}

// Dispatch implements Dispatcher.
func (Sequential) Dispatch(count int, task func(index int)) {
	for i := 0; i < count; i++ {
		task(i)
	}
}

// Func adapts a plain function to Dispatcher.
type Func func(count int, task func(index int))

// Dispatch implements Dispatcher.
func (f Func) Dispatch(count int, task func(index int)) {
	f(count, task)
}
