package flow

import (
	"sync"
	"sync/atomic"
)

// Closure is the per-execution completion handle. It finishes exactly once,
// either with 0 when every requested output has become ready, or with the
// first nonzero code reported by a failing vertex or a fatal activation
// error. Later Finish calls lose the race and are dropped.
type Closure struct {
	waiting atomic.Int64
	code    atomic.Int32
	settled atomic.Bool
	once    sync.Once
	done    chan struct{}
}

func newClosure(waitingData int64) *Closure {
	c := &Closure{done: make(chan struct{})}
	c.waiting.Store(waitingData)
	return c
}

// Finish settles the closure with code. The first caller wins.
func (c *Closure) Finish(code int32) {
	c.once.Do(func() {
		c.code.Store(code)
		c.settled.Store(true)
		close(c.done)
	})
}

// dataReady accounts one requested output becoming ready; the last one
// finishes the closure successfully.
func (c *Closure) dataReady() {
	if c.waiting.Add(-1) == 0 {
		c.Finish(0)
	}
}

// Finished reports whether the closure has settled.
func (c *Closure) Finished() bool {
	return c.settled.Load()
}

// Code returns the completion code. Only meaningful once Finished is true.
func (c *Closure) Code() int32 {
	return c.code.Load()
}

// Done returns a channel closed when the closure settles.
func (c *Closure) Done() <-chan struct{} {
	return c.done
}
