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
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dumpPCM(t *testing.T, samplerate, channels int, pcm []int, filename string) {
	t.Helper()
	f, err := os.Create(filename)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, samplerate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: samplerate},
		SourceBitDepth: 16,
		Data:           pcm,
	}))
	require.NoError(t, enc.Close())
}

func TestDecodeWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.wav")
	dumpPCM(t, 44100, 2, []int{16384, -16384, 8192, 0, -32768, 32767}, path)

	dec, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, dec.Channels)
	assert.Equal(t, uint32(44100), dec.SampleRate)
	require.Len(t, dec.Frames, 6)
	assert.InDelta(t, 0.5, dec.Frames[0], 1e-6)
	assert.InDelta(t, -0.5, dec.Frames[1], 1e-6)
	assert.InDelta(t, 0.25, dec.Frames[2], 1e-6)
	assert.InDelta(t, -1, dec.Frames[4], 1e-6)
}

func TestDecodeFileSniffsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.smp")
	dumpPCM(t, 22050, 1, []int{1000, 2000, 3000}, path)

	dec, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, dec.Channels)
	assert.Len(t, dec.Frames, 3)
}

func TestDecodeFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("definitely not audio"), 0o600))

	_, err := DecodeFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}

func TestEngineLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hit.wav")
	pcm := make([]int, 48000)
	for i := 100; i < len(pcm); i++ {
		pcm[i] = 10000
	}
	dumpPCM(t, 48000, 1, pcm, path)

	e, err := NewEngine(48000, 2, WithLogger(discardLogger()))
	require.NoError(t, err)
	require.NoError(t, e.LoadFile(path))

	s := e.Sample()
	require.NotNil(t, s)
	assert.Equal(t, 100, s.Trimmed())
	assert.Equal(t, 47900, s.Len())
	assert.Len(t, e.Slices(), 2)
}
