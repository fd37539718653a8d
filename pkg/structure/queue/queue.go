/*
 *     Copyright 2024 The Nocsentry Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package queue

import (
	"sync"
	"time"

	"github.com/gammazero/deque"
)

// Queue is an unbounded FIFO queue shared by any number of consumers.
// Consumers poll with a timeout and every polled item must be marked
// with Done so that Join can return once the queue is drained.
type Queue[T any] struct {
	mu      sync.Mutex
	items   *deque.Deque[T]
	notify  chan struct{}
	pending sync.WaitGroup
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items:  deque.New[T](),
		notify: make(chan struct{}, 1),
	}
}

// Put appends item to the tail of the queue.
func (q *Queue[T]) Put(item T) {
	q.pending.Add(1)

	q.mu.Lock()
	q.items.PushBack(item)
	q.mu.Unlock()

	q.signal()
}

// Poll removes the head of the queue without waiting.
func (q *Queue[T]) Poll() (T, bool) {
	q.mu.Lock()
	if q.items.Len() == 0 {
		q.mu.Unlock()
		var zero T
		return zero, false
	}

	item := q.items.PopFront()
	remaining := q.items.Len()
	q.mu.Unlock()

	// Wake up another waiting consumer.
	if remaining > 0 {
		q.signal()
	}

	return item, true
}

// PollTimeout removes the head of the queue, waiting up to timeout for
// an item to arrive. It returns false when the queue stayed empty.
func (q *Queue[T]) PollTimeout(timeout time.Duration) (T, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if item, ok := q.Poll(); ok {
			return item, true
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			var zero T
			return zero, false
		}

		timer := time.NewTimer(wait)
		select {
		case <-q.notify:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Done marks one polled item as processed.
func (q *Queue[T]) Done() {
	q.pending.Done()
}

// Join blocks until every item put into the queue has been marked done.
func (q *Queue[T]) Join() {
	q.pending.Wait()
}

// Len returns the number of items waiting in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *Queue[T]) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
