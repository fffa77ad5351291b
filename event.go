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
	"gitlab.com/gomidi/midi/v2"
)

// EventKind is the type of a host event.
type EventKind uint8

const (
	NoteOn EventKind = iota + 1
	NoteOff
)

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	}
	return "unknown"
}

// Event is a note event delivered with a processing block. Offset is the frame within
// the block at which the event takes effect.
type Event struct {
	Kind     EventKind
	Note     uint8
	Velocity uint8
	Channel  Channel // 1..16
	Offset   int
}

// EventFromMessage converts a MIDI channel message to an Event. Messages other than
// note-on and note-off are rejected. A note-on with zero velocity becomes a note-off.
func EventFromMessage(msg midi.Message, offset int) (Event, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return Event{Kind: NoteOn, Note: key, Velocity: vel, Channel: Channel(ch + 1), Offset: offset}, true
	case msg.GetNoteEnd(&ch, &key):
		return Event{Kind: NoteOff, Note: key, Channel: Channel(ch + 1), Offset: offset}, true
	}
	return Event{}, false
}
