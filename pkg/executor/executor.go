// Package executor provides a minimal serialized execution context.
//
// A Serial runs posted functions one at a time on a dedicated goroutine,
// in posting order. It is the delivery context handed to status callback
// subscribers and the substrate for the single-threaded event consumers
// in pkg/supervisor: asynchronous notifications are posted here instead
// of being handled inline on the producer's goroutine.
package executor

import "sync"

// Serial executes posted functions sequentially on one goroutine.
type Serial struct {
	mu     sync.Mutex
	tasks  chan func()
	done   chan struct{}
	closed bool
}

// NewSerial creates a Serial and starts its goroutine.
func NewSerial() *Serial {
	e := &Serial{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	go e.loop()
	return e
}

func (e *Serial) loop() {
	defer close(e.done)
	for fn := range e.tasks {
		fn()
	}
}

// Post schedules fn for execution after all previously posted functions.
// Returns false if the executor has been stopped. Post may block briefly
// when the queue is saturated.
func (e *Serial) Post(fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.tasks <- fn
	return true
}

// Stop drains pending functions and stops the goroutine. Stop blocks
// until the queue is empty. It is safe to call Stop more than once.
func (e *Serial) Stop() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.closed = true
	close(e.tasks)
	e.mu.Unlock()
	<-e.done
}
