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
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const defaultFileTempo = 120.0

type tickedMessage struct {
	tick  uint64
	track int
	msg   smf.Message
}

// ReadMIDI reads a standard MIDI file and returns its note events scheduled at output
// frames for hostRate. Tracks are merged and tempo changes honoured. Only metric time
// formats are supported.
func ReadMIDI(r io.Reader, hostRate float64) ([]ScheduledEvent, error) {
	if !(hostRate > 0) {
		return nil, ErrHostRate
	}
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading midi file")
	}
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok || mt == 0 {
		return nil, errors.Errorf("unsupported midi time format %v", s.TimeFormat)
	}
	ppq := float64(mt)

	var msgs []tickedMessage
	for ti, tr := range s.Tracks {
		var tick uint64
		for _, ev := range tr {
			tick += uint64(ev.Delta)
			msgs = append(msgs, tickedMessage{tick: tick, track: ti, msg: ev.Message})
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].tick < msgs[j].tick
	})

	var (
		out      []ScheduledEvent
		bpm      = defaultFileTempo
		lastTick uint64
		seconds  float64
	)
	for _, m := range msgs {
		seconds += float64(m.tick-lastTick) / ppq * 60 / bpm
		lastTick = m.tick

		var tempo float64
		if m.msg.GetMetaTempo(&tempo) {
			if tempo > 0 {
				bpm = tempo
			}
			continue
		}
		if ev, ok := EventFromMessage(midi.Message(m.msg), 0); ok {
			out = append(out, ScheduledEvent{Frame: int64(seconds*hostRate + 0.5), Event: ev})
		}
	}
	return out, nil
}

// ReadMIDIFile is ReadMIDI for a file path.
func ReadMIDIFile(path string, hostRate float64) ([]ScheduledEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening midi file")
	}
	defer f.Close()
	return ReadMIDI(f, hostRate)
}
