// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package audit

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrBackpressure is returned by AsyncWriter.Submit when the writer's
// bounded channel is full: the caller must not block the hot path
// waiting for disk, so the record is rejected rather than queued.
var ErrBackpressure = errors.New("audit: writer backpressure, record rejected")

// AsyncWriter serialises Append calls behind a single background
// goroutine draining a bounded channel, so append latency (and disk
// jitter) never shows up on the caller's hot path. A full channel
// rejects immediately instead of blocking the submitter.
type AsyncWriter struct {
	log *Log

	queue chan Record
	acks  chan<- Record

	backpressureCount atomic.Uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewAsyncWriter starts a writer with the given channel depth. acks,
// if non-nil, receives each record after it is durably appended; the
// caller must drain it or pass nil to discard acknowledgements.
func NewAsyncWriter(log *Log, depth int, acks chan<- Record) *AsyncWriter {
	ctx, cancel := context.WithCancel(context.Background())
	w := &AsyncWriter{
		log:    log,
		queue:  make(chan Record, depth),
		acks:   acks,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

func (w *AsyncWriter) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case rec := <-w.queue:
			sealed, err := w.log.Append(rec)
			if err == nil && w.acks != nil {
				select {
				case w.acks <- sealed:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues rec for appending without blocking. It returns
// ErrBackpressure if the queue is full, in which case the caller
// should fold this into a Defer/Backpressure decision rather than
// retry synchronously.
func (w *AsyncWriter) Submit(rec Record) error {
	select {
	case w.queue <- rec:
		return nil
	default:
		w.backpressureCount.Add(1)
		return ErrBackpressure
	}
}

// BackpressureCount reports how many Submit calls have been rejected
// since the writer started.
func (w *AsyncWriter) BackpressureCount() uint64 {
	return w.backpressureCount.Load()
}

// Close stops the background writer. Records already pulled off the
// queue are allowed to finish appending; anything still queued is
// dropped, matching the cooperative-cancellation rule that in-flight
// work completes rather than being abandoned mid-write.
func (w *AsyncWriter) Close() {
	w.cancel()
	<-w.done
}
