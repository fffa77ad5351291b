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

package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alttagil/chop-go"
	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine(t *testing.T, p chop.Params) *chop.Engine {
	t.Helper()
	e, err := chop.NewEngine(8000, 2, chop.WithParams(p), chop.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	frames := make([]float32, 8000)
	for i := range frames {
		frames[i] = 0.5
	}
	require.NoError(t, e.LoadSample(frames, 1, 8000))
	return e
}

func TestAudition(t *testing.T) {
	p := chop.DefaultParams()
	p.TriggerChannel = 4
	e := testEngine(t, p)

	got := audition(e)
	require.Len(t, got, 4)
	assert.Equal(t, int64(0), got[0].Frame)
	assert.Equal(t, uint8(36), got[0].Event.Note)
	assert.Equal(t, chop.Channel(4), got[0].Event.Channel)
	assert.Equal(t, int64(4000), got[1].Frame)
	assert.Equal(t, chop.NoteOff, got[1].Event.Kind)
	assert.Equal(t, uint8(37), got[2].Event.Note)
	assert.Equal(t, int64(8000), got[3].Frame)
}

func TestBounceAndPreset(t *testing.T) {
	dir := t.TempDir()
	e := testEngine(t, chop.DefaultParams())

	out := filepath.Join(dir, "out.wav")
	format := beep.Format{SampleRate: 8000, NumChannels: 2, Precision: 2}
	require.NoError(t, bounce(out, chop.NewRenderer(e, audition(e), 256), format))

	fi, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, fi.Size(), int64(44+8000*4))

	presetPath := filepath.Join(dir, "kit.json")
	require.NoError(t, writePreset(presetPath, chop.CapturePreset(e, "kit.wav")))

	o := options{preset: presetPath}
	p, err := mergePreset(&o, chop.Params{})
	require.NoError(t, err)
	assert.Equal(t, "kit.wav", o.in)
	assert.Equal(t, e.Params(), p)
}
