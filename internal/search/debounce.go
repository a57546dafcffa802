// Package search debounces type-ahead queries.
package search

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a query is sent.
const DefaultDelay = 300 * time.Millisecond

// Func runs one query. It must return promptly once ctx is canceled.
type Func[T any] func(ctx context.Context, query string) (T, error)

// Result is the outcome of the query submitted with sequence number Seq.
type Result[T any] struct {
	Seq   uint64
	Query string
	Value T
	Err   error
}

// Debouncer runs a query once input has been quiet for the delay.
// Every Submit supersedes earlier ones: a pending query is dropped, an
// in-flight query has its context canceled, and its result is discarded.
type Debouncer[T any] struct {
	delay time.Duration
	fn    Func[T]

	results chan Result[T]
	done    chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool
}

// New creates a Debouncer. A non-positive delay uses DefaultDelay.
func New[T any](delay time.Duration, fn Func[T]) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{
		delay:   delay,
		fn:      fn,
		results: make(chan Result[T]),
		done:    make(chan struct{}),
	}
}

// Results delivers the outcome of queries that were not superseded.
// It is closed by Close.
func (d *Debouncer[T]) Results() <-chan Result[T] {
	return d.results
}

// Submit schedules query and returns its sequence number. A blank query
// only cancels outstanding work.
func (d *Debouncer[T]) Submit(query string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return d.seq
	}
	d.seq++
	seq := d.seq
	d.stopLocked()

	if strings.TrimSpace(query) == "" {
		return seq
	}
	d.timer = time.AfterFunc(d.delay, func() { d.run(seq, query) })
	return seq
}

// Latest returns the sequence number of the most recent Submit.
func (d *Debouncer[T]) Latest() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// Close cancels outstanding work, waits for running queries to return and
// closes Results.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.stopLocked()
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()
	close(d.results)
}

func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer[T]) run(seq uint64, query string) {
	d.mu.Lock()
	if d.closed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.timer = nil
	d.cancel = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	defer cancel()

	value, err := d.fn(ctx, query)

	d.mu.Lock()
	current := !d.closed && seq == d.seq
	d.mu.Unlock()
	if !current {
		return
	}

	// d.cancel stays set until the send completes so a newer Submit can
	// still drop a result the consumer has not read yet.
	select {
	case d.results <- Result[T]{Seq: seq, Query: query, Value: value, Err: err}:
	case <-ctx.Done():
		return
	case <-d.done:
		return
	}

	d.mu.Lock()
	if seq == d.seq {
		d.cancel = nil
	}
	d.mu.Unlock()
}
