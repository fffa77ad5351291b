// Copyright (c) 2023 Alexander Khudich
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chop

// queue is a FIFO backed by a single slice. Elements are read at buf[off] and written at
// buf[len(buf)]; consumed space is reclaimed by sliding instead of reallocating when
// possible.
type queue[T any] struct {
	buf []T
	off int
}

func newQueue[T any](capacity int) *queue[T] {
	return &queue[T]{buf: make([]T, 0, capacity)}
}

// Len returns the number of unread elements.
func (q *queue[T]) Len() int {
	return len(q.buf) - q.off
}

// Push appends v, growing the queue as needed.
func (q *queue[T]) Push(v T) {
	if len(q.buf) == cap(q.buf) && q.off > 0 {
		m := copy(q.buf, q.buf[q.off:])
		var zero T
		for i := m; i < len(q.buf); i++ {
			q.buf[i] = zero
		}
		q.buf = q.buf[:m]
		q.off = 0
	}
	q.buf = append(q.buf, v)
}

// Peek returns the next element without consuming it.
func (q *queue[T]) Peek() (T, bool) {
	if q.Len() == 0 {
		var zero T
		return zero, false
	}
	return q.buf[q.off], true
}

// Pop consumes the next element.
func (q *queue[T]) Pop() (T, bool) {
	v, ok := q.Peek()
	if !ok {
		return v, false
	}
	q.off++
	if q.off == len(q.buf) {
		q.Reset()
	}
	return v, true
}

// Reset empties the queue and keeps its storage.
func (q *queue[T]) Reset() {
	q.buf = q.buf[:0]
	q.off = 0
}
