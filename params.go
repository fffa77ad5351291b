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

	"github.com/pkg/errors"
)

const (
	// MaxPads is the size of the pad grid and of the voice pool.
	MaxPads = 16

	// GridColumns is the width of the 4x4 pad grid.
	GridColumns = 4

	MinSpeedPercent = 10
	MaxSpeedPercent = 300

	MinPitchSemitones = -24
	MaxPitchSemitones = 24

	// MaxReleaseMillis bounds the release fade.
	MaxReleaseMillis = 10000
)

// Channel is a MIDI channel numbered 1..16. The zero value means "All" when used as a
// trigger filter and "Off" when used as the pitch reference channel.
type Channel uint8

const (
	AnyChannel Channel = 0
	NoChannel  Channel = 0
)

// Accepts reports whether an event on channel ch passes the filter c.
func (c Channel) Accepts(ch Channel) bool {
	return c == AnyChannel || c == ch
}

// SliceAlgorithm selects how the loaded sample is cut into slices.
type SliceAlgorithm int

const (
	AlgorithmQuarter SliceAlgorithm = iota
	AlgorithmEighth
	AlgorithmSixteenth
	AlgorithmBars
	AlgorithmTransient
)

var algorithmLabels = [...]string{"1/4", "1/8", "1/16", "bars", "transient"}

func (a SliceAlgorithm) String() string {
	if a < 0 || int(a) >= len(algorithmLabels) {
		return "unknown"
	}
	return algorithmLabels[a]
}

// MarshalText implements encoding.TextMarshaler.
func (a SliceAlgorithm) MarshalText() ([]byte, error) {
	if a < 0 || int(a) >= len(algorithmLabels) {
		return nil, errors.Errorf("unknown slice algorithm %d", int(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *SliceAlgorithm) UnmarshalText(text []byte) error {
	v, err := ParseSliceAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseSliceAlgorithm accepts the labels produced by SliceAlgorithm.String.
func ParseSliceAlgorithm(s string) (SliceAlgorithm, error) {
	for i, l := range algorithmLabels {
		if l == s {
			return SliceAlgorithm(i), nil
		}
	}
	switch s {
	case "quarter":
		return AlgorithmQuarter, nil
	case "eighth":
		return AlgorithmEighth, nil
	case "sixteenth":
		return AlgorithmSixteenth, nil
	}
	return 0, errors.Errorf("unknown slice algorithm %q", s)
}

// beatsPerUnit returns the length of one slice in beats for the tempo based algorithms.
func (a SliceAlgorithm) beatsPerUnit() float64 {
	switch a {
	case AlgorithmEighth:
		return 0.5
	case AlgorithmSixteenth:
		return 0.25
	case AlgorithmBars:
		return 4 // 4/4
	default:
		return 1
	}
}

// Params is the engine configuration snapshot. The engine never mutates a published
// snapshot; the control path publishes a fresh copy instead.
type Params struct {
	HoldBeyondSlice       bool           `json:"hold_beyond_slice"`
	GateOnRelease         bool           `json:"gate_on_release"`
	SpeedPercent          float64        `json:"speed_percent"`
	PitchSemitones        int            `json:"pitch_semitones"`
	TriggerChannel        Channel        `json:"trigger_channel"`
	PitchReferenceChannel Channel        `json:"pitch_reference_channel"`
	StartingNote          uint8          `json:"starting_note"`
	BPM                   float64        `json:"bpm"`
	Algorithm             SliceAlgorithm `json:"slice_algorithm"`

	// ReleaseMillis is the fade length of the Releasing state. Zero stops a gated
	// voice on the spot.
	ReleaseMillis float64       `json:"release_ms"`
	Interpolation Interpolation `json:"interpolation"`
}

// DefaultParams returns the parameters a freshly created engine starts with.
func DefaultParams() Params {
	return Params{
		HoldBeyondSlice: true,
		GateOnRelease:   true,
		SpeedPercent:    100,
		StartingNote:    36,
		BPM:             120,
		Algorithm:       AlgorithmQuarter,
	}
}

// Clamp forces every field into its valid range.
func (p Params) Clamp() Params {
	if math.IsNaN(p.SpeedPercent) {
		p.SpeedPercent = 100
	}
	p.SpeedPercent = math.Min(math.Max(p.SpeedPercent, MinSpeedPercent), MaxSpeedPercent)
	p.PitchSemitones = clampInt(p.PitchSemitones, MinPitchSemitones, MaxPitchSemitones)
	if p.TriggerChannel > 16 {
		p.TriggerChannel = AnyChannel
	}
	if p.PitchReferenceChannel > 16 {
		p.PitchReferenceChannel = NoChannel
	}
	if p.StartingNote > 127 {
		p.StartingNote = 127
	}
	if math.IsNaN(p.BPM) || math.IsInf(p.BPM, 0) {
		p.BPM = 0
	}
	if p.Algorithm < AlgorithmQuarter || p.Algorithm > AlgorithmTransient {
		p.Algorithm = AlgorithmQuarter
	}
	if !(p.ReleaseMillis > 0) {
		p.ReleaseMillis = 0
	}
	p.ReleaseMillis = math.Min(p.ReleaseMillis, MaxReleaseMillis)
	if p.Interpolation != InterpolationSinc {
		p.Interpolation = InterpolationLinear
	}
	return p
}

// slicingChanged reports whether moving from p to q requires the slice table to be recomputed.
func (p Params) slicingChanged(q Params) bool {
	return p.BPM != q.BPM || p.Algorithm != q.Algorithm
}

// ParamField names a single field of Params for host automation updates.
type ParamField int

const (
	FieldHoldBeyondSlice ParamField = iota
	FieldGateOnRelease
	FieldSpeedPercent
	FieldPitchSemitones
	FieldTriggerChannel
	FieldPitchReferenceChannel
	FieldStartingNote
	FieldBPM
	FieldAlgorithm
	FieldReleaseMillis
	FieldInterpolation
)

// ParamUpdate carries a new value for one field. Booleans are true for any non-zero value,
// enumerations and integers are rounded. Non-finite values are rejected.
type ParamUpdate struct {
	Field ParamField
	Value float64
}

func (u ParamUpdate) apply(p *Params) error {
	if math.IsNaN(u.Value) || math.IsInf(u.Value, 0) {
		return errors.Errorf("parameter field %d: value %v is not finite", int(u.Field), u.Value)
	}
	switch u.Field {
	case FieldHoldBeyondSlice:
		p.HoldBeyondSlice = u.Value != 0
	case FieldGateOnRelease:
		p.GateOnRelease = u.Value != 0
	case FieldSpeedPercent:
		p.SpeedPercent = u.Value
	case FieldPitchSemitones:
		p.PitchSemitones = roundClamp(u.Value, MinPitchSemitones, MaxPitchSemitones)
	case FieldTriggerChannel:
		p.TriggerChannel = Channel(roundClamp(u.Value, 0, 16))
	case FieldPitchReferenceChannel:
		p.PitchReferenceChannel = Channel(roundClamp(u.Value, 0, 16))
	case FieldStartingNote:
		p.StartingNote = uint8(roundClamp(u.Value, 0, 127))
	case FieldBPM:
		p.BPM = u.Value
	case FieldAlgorithm:
		p.Algorithm = SliceAlgorithm(roundClamp(u.Value, -1, len(algorithmLabels)))
	case FieldReleaseMillis:
		p.ReleaseMillis = u.Value
	case FieldInterpolation:
		p.Interpolation = Interpolation(roundClamp(u.Value, -1, 2))
	default:
		return errors.Errorf("unknown parameter field %d", int(u.Field))
	}
	return nil
}

// roundClamp rounds v to the nearest integer in [lo, hi]. Clamping happens before the
// conversion so huge values cannot overflow.
func roundClamp(v float64, lo, hi int) int {
	return int(math.Round(math.Min(math.Max(v, float64(lo)), float64(hi))))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
