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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempoSlices(t *testing.T) {
	tests := []struct {
		name string
		algo SliceAlgorithm
		want []Slice
	}{
		{"quarter", AlgorithmQuarter, []Slice{{0, 0, 24000}, {1, 24000, 48000}}},
		{"eighth", AlgorithmEighth, []Slice{{0, 0, 12000}, {1, 12000, 24000}, {2, 24000, 36000}, {3, 36000, 48000}}},
		{"bars clipped", AlgorithmBars, []Slice{{0, 0, 48000}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TempoSlices(48000, 48000, 120, tt.algo))
		})
	}
}

func TestTempoSlicesLastClipped(t *testing.T) {
	got := TempoSlices(50000, 48000, 120, AlgorithmQuarter)
	require.Len(t, got, 3)
	assert.Equal(t, Slice{Index: 2, Start: 48000, End: 50000}, got[2])
}

func TestTempoSlicesCapped(t *testing.T) {
	got := TempoSlices(10*48000, 48000, 120, AlgorithmSixteenth)
	require.Len(t, got, MaxPads)
	assert.Equal(t, 16*6000, got[MaxPads-1].End)
}

func TestTempoSlicesUnusableTempo(t *testing.T) {
	for _, bpm := range []float64{0, -120, math.NaN(), math.Inf(1)} {
		assert.Empty(t, TempoSlices(48000, 48000, bpm, AlgorithmQuarter), "bpm %v", bpm)
	}
	assert.Empty(t, TempoSlices(0, 48000, 120, AlgorithmQuarter))
}

func TestUnitFramesMinimum(t *testing.T) {
	assert.Equal(t, 1, UnitFrames(10, 10000, AlgorithmSixteenth))
	assert.Equal(t, 0, UnitFrames(0, 120, AlgorithmQuarter))
}

func TestSlicesContiguous(t *testing.T) {
	for _, bpm := range []float64{37, 60, 99.5, 120, 174, 300} {
		for algo := AlgorithmQuarter; algo <= AlgorithmBars; algo++ {
			got := TempoSlices(123457, 44100, bpm, algo)
			require.NotEmpty(t, got)
			assertContiguous(t, got, 123457, algo == AlgorithmBars || len(got) < MaxPads)
		}
	}
}

// assertContiguous checks that slices start at 0, abut each other and stay inside n.
// When full is set they must also reach n.
func assertContiguous(t *testing.T, got []Slice, n int, full bool) {
	t.Helper()
	require.LessOrEqual(t, len(got), MaxPads)
	assert.Equal(t, 0, got[0].Start)
	for i, s := range got {
		assert.Equal(t, i, s.Index)
		assert.Greater(t, s.End, s.Start)
		assert.LessOrEqual(t, s.End, n)
		if i > 0 {
			assert.Equal(t, got[i-1].End, s.Start)
		}
	}
	if full {
		assert.Equal(t, n, got[len(got)-1].End)
	}
}

func TestSliceTableIdempotent(t *testing.T) {
	s, err := NewSample(constFrames(100000, 2, 0.3), 2, 44100)
	require.NoError(t, err)

	a := NewSliceTable(s, 133, AlgorithmEighth)
	b := NewSliceTable(s, 133, AlgorithmEighth)
	assert.Equal(t, a.Slices(), b.Slices())
}

func TestSliceTableEmpty(t *testing.T) {
	silence, err := NewSample(make([]float32, 1000), 1, 44100)
	require.NoError(t, err)
	assert.Equal(t, 0, NewSliceTable(silence, 120, AlgorithmQuarter).Len())
	assert.Equal(t, 0, NewSliceTable(nil, 120, AlgorithmQuarter).Len())

	var nilTable *SliceTable
	_, ok := nilTable.Slice(0)
	assert.False(t, ok)
	assert.Nil(t, nilTable.Slices())
}

func TestSliceTableLookup(t *testing.T) {
	s, err := NewSample(constFrames(48000, 1, 0.5), 1, 48000)
	require.NoError(t, err)
	table := NewSliceTable(s, 120, AlgorithmQuarter)

	sl, ok := table.Slice(1)
	require.True(t, ok)
	assert.Equal(t, 24000, sl.Start)
	_, ok = table.Slice(2)
	assert.False(t, ok)
	_, ok = table.Slice(-1)
	assert.False(t, ok)
}

func TestTransientSlicesSteadySignal(t *testing.T) {
	s, err := NewSample(constFrames(48000, 1, 0.2), 1, 48000)
	require.NoError(t, err)
	assert.Equal(t, []Slice{{0, 0, 48000}}, TransientSlices(s, MaxPads))
}

func TestTransientSlicesFindsOnset(t *testing.T) {
	frames := constFrames(48000, 1, 0.01)
	for i := 0; i < 4800; i++ {
		frames[i] = 0.5
		frames[24000+i] = 0.5
	}
	s, err := NewSample(frames, 1, 48000)
	require.NoError(t, err)

	got := NewSliceTable(s, 120, AlgorithmTransient).Slices()
	require.Greater(t, len(got), 1)
	assertContiguous(t, got, 48000, true)

	found := false
	for _, sl := range got[1:] {
		if sl.Start >= 23500 && sl.Start <= 24100 {
			found = true
		}
	}
	assert.True(t, found, "no boundary near the second hit: %v", got)
}

func TestTransientSlicesThinned(t *testing.T) {
	frames := constFrames(48000, 1, 0.01)
	for hit := 0; hit < 48000; hit += 1200 {
		for i := 0; i < 100; i++ {
			frames[hit+i] = 0.5
		}
	}
	s, err := NewSample(frames, 1, 48000)
	require.NoError(t, err)

	got := TransientSlices(s, MaxPads)
	assert.Len(t, got, MaxPads)
	assertContiguous(t, got, 48000, true)
}

func BenchmarkTransientSlices(b *testing.B) {
	frames := constFrames(10*48000, 2, 0.01)
	for hit := 0; hit < len(frames); hit += 24000 {
		frames[hit] = 0.9
	}
	s, err := NewSample(frames, 2, 48000)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		TransientSlices(s, MaxPads)
	}
}
