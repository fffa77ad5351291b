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
	"sync/atomic"

	"github.com/pkg/errors"
)

// TrimThresholdDB is the level below which leading and trailing frames are dropped at load time.
const TrimThresholdDB = -60.0

var (
	ErrChannels   = errors.New("only mono or stereo samples are supported")
	ErrFrameCount = errors.New("sample data has an incomplete frame")
	ErrSampleRate = errors.New("sample rate must be positive")
)

// Sample is an immutable planar audio buffer at its native sample rate.
// It is shared by reference with every voice and replaced wholesale on reload.
type Sample struct {
	left  []float32
	right []float32 // nil for mono
	rate  float64

	// trimmed is the number of leading frames removed by silence trimming.
	trimmed int
}

// Len returns the number of frames.
func (s *Sample) Len() int {
	if s == nil {
		return 0
	}
	return len(s.left)
}

// Channels returns 1 or 2.
func (s *Sample) Channels() int {
	if s.right == nil {
		return 1
	}
	return 2
}

// SampleRate returns the native sample rate in Hz.
func (s *Sample) SampleRate() float64 {
	return s.rate
}

// Trimmed returns how many leading frames of the decoded data were dropped as silence.
func (s *Sample) Trimmed() int {
	return s.trimmed
}

// Frame returns the frame at i. Mono samples return the same value on both sides.
// Frames outside the buffer read as silence.
func (s *Sample) Frame(i int) (l, r float32) {
	if i < 0 || i >= len(s.left) {
		return 0, 0
	}
	l = s.left[i]
	if s.right == nil {
		return l, l
	}
	return l, s.right[i]
}

// NewSample builds a Sample from interleaved frames, dropping leading and trailing frames
// quieter than TrimThresholdDB. A completely silent input yields an empty Sample.
func NewSample(frames []float32, channels int, sampleRate uint32) (*Sample, error) {
	if channels != 1 && channels != 2 {
		return nil, ErrChannels
	}
	if sampleRate == 0 {
		return nil, ErrSampleRate
	}
	if len(frames)%channels != 0 {
		return nil, ErrFrameCount
	}

	start, end := trimSilence(frames, channels, decibelsToAmplitude(TrimThresholdDB))
	n := end - start

	s := &Sample{
		left:    make([]float32, n),
		rate:    float64(sampleRate),
		trimmed: start,
	}
	if channels == 2 {
		s.right = make([]float32, n)
	}
	for i := 0; i < n; i++ {
		base := (start + i) * channels
		s.left[i] = frames[base]
		if channels == 2 {
			s.right[i] = frames[base+1]
		}
	}
	return s, nil
}

// trimSilence returns the frame range [start, end) that remains after dropping frames
// whose every channel is at or below threshold from both ends.
func trimSilence(frames []float32, channels int, threshold float32) (start, end int) {
	n := len(frames) / channels
	loud := func(i int) bool {
		for c := 0; c < channels; c++ {
			v := frames[i*channels+c]
			if v > threshold || v < -threshold {
				return true
			}
		}
		return false
	}

	for start < n && !loud(start) {
		start++
	}
	end = n
	for end > start && !loud(end-1) {
		end--
	}
	return start, end
}

// decibelsToAmplitude converts a level in dBFS to a linear amplitude.
func decibelsToAmplitude(db float64) float32 {
	return float32(math.Pow(10, db*0.05))
}

// SampleStore owns the currently loaded sample. Readers on the audio path get either the
// previous or the new sample, never a partially built one.
type SampleStore struct {
	cur atomic.Pointer[Sample]
}

// Load trims and publishes a new sample, replacing the current one.
func (st *SampleStore) Load(frames []float32, channels int, sampleRate uint32) (*Sample, error) {
	s, err := NewSample(frames, channels, sampleRate)
	if err != nil {
		return nil, err
	}
	st.cur.Store(s)
	return s, nil
}

// Current returns the loaded sample or nil.
func (st *SampleStore) Current() *Sample {
	return st.cur.Load()
}

// Clear unloads the sample.
func (st *SampleStore) Clear() {
	st.cur.Store(nil)
}
