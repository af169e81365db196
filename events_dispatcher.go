package guauth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// eventDispatcher decouples emitters from sink latency. Emitters hand events
// to a buffered queue; one background goroutine ranges over the queue and
// delivers in emission order. Closing the queue is the shutdown signal, so a
// drain needs no extra bookkeeping: the range loop simply runs dry. The
// RWMutex keeps Close's channel close from racing in-flight sends. With
// DropIfFull set, a full queue drops the event and counts it instead of
// blocking the flow.
type eventDispatcher struct {
	cfg   EventConfig
	sink  EventSink
	queue chan Event
	done  chan struct{}

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

func newEventDispatcher(cfg EventConfig, sink EventSink) *eventDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &eventDispatcher{
		cfg:   cfg,
		sink:  sink,
		queue: make(chan Event, cfg.BufferSize),
		done:  make(chan struct{}),
	}
	go d.deliver()
	return d
}

func (d *eventDispatcher) deliver() {
	for event := range d.queue {
		d.sink.Emit(context.Background(), event)
	}
	close(d.done)
}

func (d *eventDispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.queue <- event:
	case <-ctx.Done():
	}
}

func (d *eventDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Close stops intake, lets the delivery goroutine drain the queue, and
// returns once the last queued event reached the sink.
func (d *eventDispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}
