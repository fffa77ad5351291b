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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue_PushPop(t *testing.T) {
	q := newQueue[int](2)
	values := []int{1, 2, 3, 4, 5}

	for _, v := range values {
		q.Push(v)
	}
	assert.Equal(t, len(values), q.Len())

	for _, expected := range values {
		v, ok := q.Peek()
		assert.True(t, ok)
		assert.Equal(t, expected, v)

		v, ok = q.Pop()
		assert.True(t, ok)
		assert.Equal(t, expected, v)
	}

	// Popping beyond the available values reports an empty queue
	_, ok := q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_ReusesStorage(t *testing.T) {
	q := newQueue[int](4)
	for i := 0; i < 4; i++ {
		q.Push(i)
	}
	q.Pop()
	q.Pop()

	q.Push(4)
	assert.Equal(t, 4, cap(q.buf), "consumed space is reclaimed before growing")
	assert.Equal(t, 3, q.Len())

	v, _ := q.Pop()
	assert.Equal(t, 2, v)
}

func TestQueue_Reset(t *testing.T) {
	q := newQueue[string](1)
	q.Push("a")
	q.Push("b")
	q.Reset()

	assert.Equal(t, 0, q.Len())
	_, ok := q.Peek()
	assert.False(t, ok)
}
