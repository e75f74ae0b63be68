// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/database/memdb"
)

func TestAsyncWriterAppendsInBackground(t *testing.T) {
	log := New(memdb.New())
	acks := make(chan Record, 4)
	w := NewAsyncWriter(log, 4, acks)
	defer w.Close()

	require.NoError(t, w.Submit(Record{Reason: "ok"}))

	select {
	case rec := <-acks:
		require.Equal(t, uint64(0), rec.Sequence)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for async append")
	}
}

func TestAsyncWriterRejectsWhenFull(t *testing.T) {
	log := New(memdb.New())
	// No drain of acks and no background consumption: fill the queue
	// directly by never letting the writer's goroutine get scheduled
	// ahead of our submissions is not guaranteed, so instead exercise
	// backpressure with a zero-depth queue, which is always full until
	// the single in-flight receive completes.
	w := NewAsyncWriter(log, 0, nil)
	defer w.Close()

	accepted, rejected := 0, 0
	for i := 0; i < 50; i++ {
		if err := w.Submit(Record{Reason: "ok"}); err != nil {
			rejected++
		} else {
			accepted++
		}
	}
	require.Greater(t, rejected, 0, "a zero-depth queue should reject at least one burst submission")
	require.Greater(t, int(w.BackpressureCount()), 0)
}
