// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
)

// ErrDraining is returned by SubmitWait once Drain has begun.
var ErrDraining = errors.New("executor draining")

// Executor serializes work per partition. Keys hash to a fixed partition,
// and each partition runs its tasks on a single goroutine, so two tasks
// for the same key never run concurrently and run in submission order.
type Executor struct {
	queues  []chan func()
	workers sync.WaitGroup
	pending sync.WaitGroup

	mu       sync.Mutex
	draining bool
}

// NewExecutor starts an executor with the given partition count.
func NewExecutor(partitions int) *Executor {
	if partitions < 1 {
		partitions = 1
	}
	e := &Executor{
		queues: make([]chan func(), partitions),
	}
	for i := range e.queues {
		queue := make(chan func(), 256)
		e.queues[i] = queue
		e.workers.Add(1)
		go func() {
			defer e.workers.Done()
			for task := range queue {
				task()
			}
		}()
	}
	return e
}

// Partition returns the partition index for a key.
func (e *Executor) Partition(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(e.queues)))
}

// SubmitWait runs the task on the key's partition goroutine and waits
// for it to finish. Returns the task's error, ErrDraining once shutdown
// has begun, or the context error if ctx expires first; in the latter
// case the task still runs to completion on its partition.
func (e *Executor) SubmitWait(ctx context.Context, key string, task func() error) error {
	e.mu.Lock()
	if e.draining {
		e.mu.Unlock()
		return ErrDraining
	}
	e.pending.Add(1)
	e.mu.Unlock()

	done := make(chan error, 1)
	e.queues[e.Partition(key)] <- func() {
		defer e.pending.Done()
		done <- task()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for partition task: %w", ctx.Err())
	}
}

// Drain stops intake and waits until every queued task has finished.
// After Drain returns no task for any key is running or queued, so state
// ownership can move without write races.
func (e *Executor) Drain(ctx context.Context) error {
	e.mu.Lock()
	alreadyDraining := e.draining
	e.draining = true
	e.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		e.pending.Wait()
		close(idle)
	}()

	select {
	case <-idle:
	case <-ctx.Done():
		return fmt.Errorf("draining partitions: %w", ctx.Err())
	}

	if !alreadyDraining {
		for _, queue := range e.queues {
			close(queue)
		}
		e.workers.Wait()
	}
	return nil
}

// Partitions returns the partition count.
func (e *Executor) Partitions() int {
	return len(e.queues)
}
