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

func TestNoteToSlice(t *testing.T) {
	tests := []struct {
		note, start uint8
		want        int
		ok          bool
	}{
		{36, 36, 0, true},
		{51, 36, 15, true},
		{52, 36, 0, false},
		{35, 36, 0, false},
		{63, 60, 3, true},
		{0, 0, 0, true},
		{127, 120, 7, true},
	}
	for _, tt := range tests {
		got, ok := NoteToSlice(tt.note, tt.start)
		assert.Equal(t, tt.ok, ok, "note %d start %d", tt.note, tt.start)
		assert.Equal(t, tt.want, got, "note %d start %d", tt.note, tt.start)
	}
}

func TestSliceNoteInverse(t *testing.T) {
	for i := 0; i < MaxPads; i++ {
		n, ok := SliceNote(i, 36)
		assert.True(t, ok)
		idx, ok := NoteToSlice(n, 36)
		assert.True(t, ok)
		assert.Equal(t, i, idx)
	}

	_, ok := SliceNote(8, 120)
	assert.False(t, ok)
	_, ok = SliceNote(MaxPads, 0)
	assert.False(t, ok)
}

func TestPadPosition(t *testing.T) {
	row, col := PadPosition(0)
	assert.Equal(t, [2]int{0, 0}, [2]int{row, col})
	row, col = PadPosition(5)
	assert.Equal(t, [2]int{1, 1}, [2]int{row, col})
	row, col = PadPosition(15)
	assert.Equal(t, [2]int{3, 3}, [2]int{row, col})
}
