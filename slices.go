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
)

// Slice is the half-open frame interval [Start, End) of the sample bound to pad Index.
type Slice struct {
	Index int
	Start int
	End   int
}

// Len returns the slice length in frames.
func (s Slice) Len() int {
	return s.End - s.Start
}

// SliceTable is an immutable, ordered set of at most MaxPads contiguous slices.
// A table is rebuilt, never edited, when the tempo, the algorithm or the sample changes.
type SliceTable struct {
	slices []Slice
}

// NewSliceTable computes the slices of s for the given tempo and algorithm.
// It allocates and must only be called from the control path.
func NewSliceTable(s *Sample, bpm float64, algo SliceAlgorithm) *SliceTable {
	if s.Len() == 0 {
		return &SliceTable{}
	}
	if algo == AlgorithmTransient {
		return &SliceTable{slices: TransientSlices(s, MaxPads)}
	}
	return &SliceTable{slices: TempoSlices(s.Len(), s.SampleRate(), bpm, algo)}
}

// Len returns the number of mapped slices.
func (t *SliceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.slices)
}

// Slice returns the slice bound to pad i.
func (t *SliceTable) Slice(i int) (Slice, bool) {
	if t == nil || i < 0 || i >= len(t.slices) {
		return Slice{}, false
	}
	return t.slices[i], true
}

// Slices returns a copy of the table contents for presentation.
func (t *SliceTable) Slices() []Slice {
	if t == nil {
		return nil
	}
	return append([]Slice(nil), t.slices...)
}

// UnitFrames returns the slice length in frames for the tempo based algorithms,
// or 0 when the tempo or the sample rate is not usable.
func UnitFrames(sampleRate, bpm float64, algo SliceAlgorithm) int {
	if !(bpm > 0) || !(sampleRate > 0) || math.IsInf(bpm, 0) {
		return 0
	}
	unit := sampleRate * 60 / bpm * algo.beatsPerUnit()
	if unit < 1 {
		return 1
	}
	return int(unit)
}

// TempoSlices cuts [0, sampleLen) into units of the given subdivision, starting at 0.
// The last slice is clipped to sampleLen and anything past the MaxPads-th slice is dropped.
func TempoSlices(sampleLen int, sampleRate, bpm float64, algo SliceAlgorithm) []Slice {
	unit := UnitFrames(sampleRate, bpm, algo)
	if unit == 0 || sampleLen <= 0 {
		return nil
	}

	slices := make([]Slice, 0, MaxPads)
	for start := 0; start < sampleLen && len(slices) < MaxPads; start += unit {
		end := start + unit
		if end > sampleLen {
			end = sampleLen
		}
		slices = append(slices, Slice{Index: len(slices), Start: start, End: end})
	}
	return slices
}

const (
	transientSmoothSeconds   = 0.01
	transientLookbackSeconds = 0.05
	transientMinGapSeconds   = 0.01
	transientRatio           = 1.5
	transientFloor           = 0.001
)

// TransientSlices places slice boundaries at detected onsets. The first slice always
// starts at 0 and the last one ends at the sample end. When more than max onsets are
// found they are thinned out evenly.
func TransientSlices(s *Sample, max int) []Slice {
	n := s.Len()
	if n == 0 || max <= 0 {
		return nil
	}
	rate := s.SampleRate()

	// prefix sums of the rectified signal
	amp := make([]float64, n+1)
	for i := 0; i < n; i++ {
		l, r := s.Frame(i)
		amp[i+1] = amp[i] + (math.Abs(float64(l))+math.Abs(float64(r)))*0.5
	}

	window := int(rate * transientSmoothSeconds)
	if window < 1 {
		window = 1
	}
	if window > n {
		window = n
	}
	half := window / 2

	smoothed := make([]float64, n)
	acc := make([]float64, n+1)
	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > n {
			hi = n
		}
		smoothed[i] = (amp[hi] - amp[lo]) / float64(hi-lo)
		acc[i+1] = acc[i] + smoothed[i]
	}

	lookback := int(rate * transientLookbackSeconds)
	if lookback < 1 {
		lookback = 1
	}
	gap := int(rate * transientMinGapSeconds)
	if gap < 1 {
		gap = 1
	}

	onsets := []int{0}
	for i := lookback; i < n; i++ {
		avg := (acc[i] - acc[i-lookback]) / float64(lookback)
		if smoothed[i] > avg*transientRatio && smoothed[i] > transientFloor && i-onsets[len(onsets)-1] >= gap {
			onsets = append(onsets, i)
		}
	}

	if len(onsets) > max {
		step := len(onsets) / max
		thinned := make([]int, 0, max)
		for i := 0; i < len(onsets) && len(thinned) < max; i += step {
			thinned = append(thinned, onsets[i])
		}
		onsets = thinned
	}
	onsets = append(onsets, n)

	slices := make([]Slice, 0, len(onsets)-1)
	for i := 0; i+1 < len(onsets); i++ {
		if onsets[i] < onsets[i+1] {
			slices = append(slices, Slice{Index: len(slices), Start: onsets[i], End: onsets[i+1]})
		}
	}
	return slices
}
