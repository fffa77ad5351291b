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

// PitchReferenceTracker turns notes received on a dedicated MIDI channel into a pitch
// offset relative to the starting note. It never triggers playback.
type PitchReferenceTracker struct {
	semitones int
	set       bool
}

// OnNote handles a note-on. It reports the new pitch offset when channel matches the
// configured reference channel, which must not be NoChannel.
func (t *PitchReferenceTracker) OnNote(note uint8, channel Channel, p *Params) (int, bool) {
	if !t.Listens(channel, p) {
		return 0, false
	}
	t.semitones = clampInt(int(note)-int(p.StartingNote), MinPitchSemitones, MaxPitchSemitones)
	t.set = true
	return t.semitones, true
}

// Listens reports whether events on channel belong to the tracker.
func (t *PitchReferenceTracker) Listens(channel Channel, p *Params) bool {
	return p.PitchReferenceChannel != NoChannel && channel == p.PitchReferenceChannel
}

// Pitch returns the pitch to play with: the last reference offset while the tracker is
// enabled and has heard a note, the configured pitch otherwise.
func (t *PitchReferenceTracker) Pitch(p *Params) int {
	if t.set && p.PitchReferenceChannel != NoChannel {
		return t.semitones
	}
	return p.PitchSemitones
}

// Reset forgets the last reference note.
func (t *PitchReferenceTracker) Reset() {
	t.semitones = 0
	t.set = false
}
