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

// VoiceState is the playback state of a pad voice.
type VoiceState uint8

const (
	Idle VoiceState = iota
	Playing
	// Releasing fades a gated voice out before it goes Idle. It is only entered when
	// Params.ReleaseMillis is positive.
	Releasing
)

func (s VoiceState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	case Releasing:
		return "releasing"
	}
	return "unknown"
}

// Voice plays one slice. Voices live in a fixed pool indexed by pad and are only ever
// reset, never allocated on the audio path.
type Voice struct {
	state   VoiceState
	slice   Slice
	pos     float64 // native frames
	note    uint8
	channel Channel
	gain    float32
	held    bool

	fade     float32
	fadeStep float32
}

// State returns the current state.
func (v *Voice) State() VoiceState { return v.state }

// SliceIndex returns the slice the voice was last triggered with.
func (v *Voice) SliceIndex() int { return v.slice.Index }

// Position returns the playhead in native frames.
func (v *Voice) Position() float64 { return v.pos }

// Note returns the note and channel that triggered the voice.
func (v *Voice) Note() (uint8, Channel) { return v.note, v.channel }

// Held reports whether the triggering note is still down.
func (v *Voice) Held() bool { return v.held }

func (v *Voice) trigger(sl Slice, note uint8, ch Channel, velocity uint8) {
	v.state = Playing
	v.slice = sl
	v.pos = float64(sl.Start)
	v.note = note
	v.channel = ch
	v.gain = float32(velocity) / 127
	v.held = true
	v.fade = 1
	v.fadeStep = 0
}

// release handles a note-off that matched the voice. Without gate the voice keeps
// playing; with gate it stops, or starts fading when fadeFrames is positive.
func (v *Voice) release(gate bool, fadeFrames int) {
	v.held = false
	if !gate || v.state != Playing {
		return
	}
	if fadeFrames <= 0 {
		v.reset()
		return
	}
	v.state = Releasing
	v.fadeStep = v.fade / float32(fadeFrames)
}

func (v *Voice) reset() {
	v.state = Idle
	v.held = false
	v.fade = 1
	v.fadeStep = 0
}

// end returns the exclusive playhead limit. With hold enabled the voice may run to the
// end of the sample; a release never shortens that range, gating is what stops it.
func (v *Voice) end(s *Sample, hold bool) int {
	if hold {
		return s.Len()
	}
	return v.slice.End
}

// render mixes up to len(out)/channels frames into out, an interleaved buffer.
// step is the read rate in native frames per output frame.
func (v *Voice) render(out []float32, channels int, s *Sample, rs Resampler, step float64, hold bool) {
	frames := len(out) / channels
	for i := 0; i < frames; i++ {
		if v.state == Idle {
			return
		}
		end := v.end(s, hold)
		if v.pos >= float64(end) {
			v.reset()
			return
		}

		l, r := rs.At(s, v.pos, v.slice.Start, end)
		g := v.gain * v.fade
		switch channels {
		case 1:
			out[i] += (l + r) * 0.5 * g
		default:
			out[i*channels] += l * g
			out[i*channels+1] += r * g
		}

		v.pos += step
		if v.state == Releasing {
			v.fade -= v.fadeStep
			if v.fade <= 0 {
				v.reset()
				return
			}
		}
	}
}
