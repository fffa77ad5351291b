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
	"encoding/binary"
	"io"
	"math"

	"github.com/faiface/beep"
)

// DefaultBlockFrames is the block size used by NewRenderer when none is given.
const DefaultBlockFrames = 512

// ScheduledEvent is an Event placed at an absolute output frame.
type ScheduledEvent struct {
	Frame int64
	Event Event
}

// Renderer drives an Engine the way a host would: it splits time into fixed blocks and
// hands each block the events falling inside it. It finishes once every scheduled event
// has been delivered and all voices are idle.
//
// Renderer implements beep.Streamer and io.Reader (interleaved float32 little endian).
// It is not safe for concurrent use.
type Renderer struct {
	engine  *Engine
	pending *queue[ScheduledEvent]
	events  []Event
	block   []float32
	frames  int

	pos   int64
	read  int // frames of block already consumed
	avail int // frames of block rendered
	done  bool
}

// NewRenderer creates a renderer over events, which must be ordered by frame.
func NewRenderer(e *Engine, events []ScheduledEvent, blockFrames int) *Renderer {
	if blockFrames <= 0 {
		blockFrames = DefaultBlockFrames
	}
	r := &Renderer{
		engine:  e,
		pending: newQueue[ScheduledEvent](len(events)),
		events:  make([]Event, 0, 64),
		block:   make([]float32, blockFrames*e.Channels()),
		frames:  blockFrames,
	}
	for _, ev := range events {
		r.pending.Push(ev)
	}
	return r
}

// Schedule appends an event. Its frame must not precede already scheduled ones; events
// scheduled in the past play at the start of the next block.
func (r *Renderer) Schedule(ev ScheduledEvent) {
	r.pending.Push(ev)
	r.done = false
}

// Position returns the number of frames rendered so far.
func (r *Renderer) Position() int64 {
	return r.pos
}

// Next renders the next block into out (len(out)/channels frames at most) and returns
// the number of frames written, or 0 when the performance is over.
func (r *Renderer) Next(out []float32) int {
	if r.done {
		return 0
	}
	if r.pending.Len() == 0 && r.pos > 0 && !r.engine.Active() {
		r.done = true
		return 0
	}

	ch := r.engine.Channels()
	n := len(out) / ch
	end := r.pos + int64(n)

	r.events = r.events[:0]
	for {
		ev, ok := r.pending.Peek()
		if !ok || ev.Frame >= end {
			break
		}
		r.pending.Pop()
		e := ev.Event
		e.Offset = int(ev.Frame - r.pos)
		if e.Offset < 0 {
			e.Offset = 0
		}
		r.events = append(r.events, e)
	}

	r.engine.Process(out[:n*ch], r.events)
	r.pos = end
	return n
}

func (r *Renderer) fill() bool {
	if r.read < r.avail {
		return true
	}
	r.avail = r.Next(r.block)
	r.read = 0
	return r.avail > 0
}

// frame returns the current frame of the internal block as a stereo pair.
func (r *Renderer) frame() (l, rr float32) {
	ch := r.engine.Channels()
	i := r.read * ch
	if ch == 1 {
		return r.block[i], r.block[i]
	}
	return r.block[i], r.block[i+1]
}

// Stream implements beep.Streamer.
func (r *Renderer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) && r.fill() {
		l, rr := r.frame()
		samples[n][0], samples[n][1] = float64(l), float64(rr)
		r.read++
		n++
	}
	return n, n > 0
}

// Err implements beep.Streamer.
func (r *Renderer) Err() error {
	return nil
}

// Read fills p with stereo float32 little endian frames.
func (r *Renderer) Read(p []byte) (int, error) {
	n := 0
	for n+8 <= len(p) && r.fill() {
		l, rr := r.frame()
		binary.LittleEndian.PutUint32(p[n:], math.Float32bits(l))
		binary.LittleEndian.PutUint32(p[n+4:], math.Float32bits(rr))
		r.read++
		n += 8
	}
	if n == 0 && len(p) >= 8 {
		return 0, io.EOF
	}
	return n, nil
}

var (
	_ beep.Streamer = (*Renderer)(nil)
	_ io.Reader     = (*Renderer)(nil)
)
