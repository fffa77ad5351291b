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
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

const testRate = 48000

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// constFrames returns n interleaved frames where every channel holds v.
func constFrames(n, channels int, v float32) []float32 {
	out := make([]float32, n*channels)
	for i := range out {
		out[i] = v
	}
	return out
}

// rampFrames returns n mono frames holding 0, 1, 2, ...
func rampFrames(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}

// newTestEngine returns a stereo engine at testRate holding one second of a constant 0.5
// mono sample, which slices into two quarter notes at the default tempo.
func newTestEngine(tb testing.TB, p Params) *Engine {
	tb.Helper()
	e, err := NewEngine(testRate, 2, WithLogger(discardLogger()), WithParams(p))
	require.NoError(tb, err)
	require.NoError(tb, e.LoadSample(constFrames(testRate, 1, 0.5), 1, testRate))
	return e
}

// process runs one block of n frames.
func process(e *Engine, n int, events ...Event) []float32 {
	out := make([]float32, n*e.Channels())
	e.Process(out, events)
	return out
}

func noteOn(note uint8, ch Channel, offset int) Event {
	return Event{Kind: NoteOn, Note: note, Velocity: 127, Channel: ch, Offset: offset}
}

func noteOff(note uint8, ch Channel, offset int) Event {
	return Event{Kind: NoteOff, Note: note, Channel: ch, Offset: offset}
}

func silent(out []float32) bool {
	for _, v := range out {
		if v != 0 {
			return false
		}
	}
	return true
}

func sounding(out []float32) bool {
	for _, v := range out {
		if v == 0 {
			return false
		}
	}
	return true
}
