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

// NoteToSlice maps a MIDI note to a pad (and slice) index relative to startingNote.
// Notes below startingNote or more than MaxPads-1 above it are not mapped.
func NoteToSlice(note, startingNote uint8) (int, bool) {
	idx := int(note) - int(startingNote)
	if idx < 0 || idx >= MaxPads {
		return 0, false
	}
	return idx, true
}

// SliceNote is the inverse of NoteToSlice.
func SliceNote(index int, startingNote uint8) (uint8, bool) {
	note := int(startingNote) + index
	if index < 0 || index >= MaxPads || note > 127 {
		return 0, false
	}
	return uint8(note), true
}

// PadPosition returns the row-major grid cell of a pad.
func PadPosition(index int) (row, col int) {
	return index / GridColumns, index % GridColumns
}
