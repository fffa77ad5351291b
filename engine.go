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

// Package chop is a real-time sample slicing and triggering engine. A loaded sample is cut
// into up to sixteen tempo quantized slices which are played by note events addressed to a
// 4x4 pad grid.
//
// The Engine is split between a control path (loading, slicing, parameter changes) and an
// audio path (Process). The two communicate through atomically published immutable
// snapshots only, so Process never blocks, allocates or observes a half-updated state.
package chop

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

var (
	ErrHostRate       = errors.New("host sample rate must be positive")
	ErrOutputChannels = errors.New("output needs at least one channel")
)

// kit is the sample and the slice table computed from it, published together.
type kit struct {
	sample *Sample
	table  *SliceTable
}

// PadInfo is the presentation view of one pad.
type PadInfo struct {
	State      VoiceState
	SliceIndex int
	Note       uint8
	Held       bool
}

func (p PadInfo) pack() uint32 {
	v := uint32(p.State) | uint32(p.SliceIndex&0xff)<<8 | uint32(p.Note)<<16
	if p.Held {
		v |= 1 << 24
	}
	return v
}

func unpackPad(v uint32) PadInfo {
	return PadInfo{
		State:      VoiceState(v & 0xff),
		SliceIndex: int(v >> 8 & 0xff),
		Note:       uint8(v >> 16 & 0xff),
		Held:       v&(1<<24) != 0,
	}
}

// Engine is the voice engine. Control methods may be called from any goroutine and are
// serialised internally; Process must only be called from the audio goroutine.
type Engine struct {
	hostRate float64
	channels int
	resample Resampler
	logger   *slog.Logger

	mu     sync.Mutex // control path writers
	store  SampleStore
	params atomic.Pointer[Params]
	kit    atomic.Pointer[kit]

	resetPending atomic.Bool
	pads         [MaxPads]atomic.Uint32

	// audio goroutine only
	voices     [MaxPads]Voice
	tracker    PitchReferenceTracker
	lastSample *Sample
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the control path.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithParams sets the initial parameters.
func WithParams(p Params) Option {
	return func(e *Engine) {
		p = p.Clamp()
		e.params.Store(&p)
	}
}

// NewEngine creates an engine rendering interleaved frames of the given channel count at
// hostRate.
func NewEngine(hostRate float64, channels int, opts ...Option) (*Engine, error) {
	if !(hostRate > 0) {
		return nil, ErrHostRate
	}
	if channels < 1 {
		return nil, ErrOutputChannels
	}

	e := &Engine{
		hostRate: hostRate,
		channels: channels,
		logger:   slog.Default(),
	}
	p := DefaultParams()
	e.params.Store(&p)
	e.kit.Store(&kit{table: &SliceTable{}})

	for _, opt := range opts {
		opt(e)
	}
	e.resample = Resampler{Mode: e.params.Load().Interpolation}
	return e, nil
}

// HostRate returns the output sample rate.
func (e *Engine) HostRate() float64 {
	return e.hostRate
}

// Channels returns the number of interleaved output channels.
func (e *Engine) Channels() int {
	return e.channels
}

// LoadSample trims and installs a decoded sample and recomputes the slice table.
func (e *Engine) LoadSample(frames []float32, channels int, sampleRate uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.store.Load(frames, channels, sampleRate)
	if err != nil {
		return errors.Wrap(err, "loading sample")
	}
	e.logger.Info("sample loaded",
		"frames", s.Len(), "channels", s.Channels(), "rate", s.SampleRate(), "trimmed", s.Trimmed())
	e.publishKit(s, e.params.Load())
	return nil
}

// UnloadSample removes the sample. All pads become unmapped.
func (e *Engine) UnloadSample() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Clear()
	e.kit.Store(&kit{table: &SliceTable{}})
	e.logger.Info("sample unloaded")
}

// Sample returns the loaded sample or nil.
func (e *Engine) Sample() *Sample {
	return e.store.Current()
}

func (e *Engine) publishKit(s *Sample, p *Params) {
	table := NewSliceTable(s, p.BPM, p.Algorithm)
	e.kit.Store(&kit{sample: s, table: table})
	e.logger.Debug("slices computed",
		"count", table.Len(), "bpm", p.BPM, "algorithm", p.Algorithm.String())
}

// Params returns the current parameter snapshot.
func (e *Engine) Params() Params {
	return *e.params.Load()
}

// SetParams publishes a new parameter snapshot, recomputing the slices when the tempo or
// the algorithm changed. It takes effect at the next block boundary.
func (e *Engine) SetParams(p Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setParams(p.Clamp())
}

func (e *Engine) setParams(p Params) {
	old := e.params.Load()
	e.params.Store(&p)
	if s := e.store.Current(); s != nil && old.slicingChanged(p) {
		e.publishKit(s, &p)
	}
}

// Apply applies a batch of field updates as a single snapshot. Either all updates are
// applied or, if one names an unknown field, none.
func (e *Engine) Apply(updates ...ParamUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := *e.params.Load()
	for _, u := range updates {
		if err := u.apply(&p); err != nil {
			return err
		}
	}
	e.setParams(p.Clamp())
	return nil
}

// Slices returns the current slice table contents.
func (e *Engine) Slices() []Slice {
	return e.kit.Load().table.Slices()
}

// Pads returns the state of every pad as of the last processed block.
func (e *Engine) Pads() [MaxPads]PadInfo {
	var out [MaxPads]PadInfo
	for i := range e.pads {
		out[i] = unpackPad(e.pads[i].Load())
	}
	return out
}

// Reset silences every voice at the start of the next block.
func (e *Engine) Reset() {
	e.resetPending.Store(true)
}

// Active reports whether any voice was sounding at the end of the last block.
func (e *Engine) Active() bool {
	for i := range e.pads {
		if VoiceState(e.pads[i].Load()&0xff) != Idle {
			return true
		}
	}
	return false
}

// Process renders one block into out, an interleaved buffer of len(out)/Channels() frames,
// applying events at their frame offsets. Events must be ordered by offset. Parameter
// snapshots, the pitch and the read rate are sampled once at the start of the block.
//
// Process does not allocate, lock or log.
func (e *Engine) Process(out []float32, events []Event) {
	for i := range out {
		out[i] = 0
	}

	p := e.params.Load()
	k := e.kit.Load()

	if e.resetPending.Swap(false) {
		e.resetVoices()
		e.tracker.Reset()
	}
	if k.sample != e.lastSample {
		// playheads and slice bounds refer to the previous sample
		e.resetVoices()
		e.lastSample = k.sample
	}
	if p.PitchReferenceChannel == NoChannel {
		e.tracker.Reset()
	}
	e.resample.Mode = p.Interpolation

	frames := len(out) / e.channels
	var step float64
	if k.sample != nil {
		step = ReadRate(p.SpeedPercent, e.tracker.Pitch(p), k.sample.SampleRate(), e.hostRate)
	}
	fade := int(p.ReleaseMillis / 1000 * e.hostRate)

	cursor := 0
	for _, ev := range events {
		at := ev.Offset
		if at < cursor {
			at = cursor
		}
		if at > frames {
			at = frames
		}
		e.render(out[cursor*e.channels:at*e.channels], k.sample, step, p.HoldBeyondSlice)
		cursor = at
		e.handle(ev, p, k, fade)
	}
	e.render(out[cursor*e.channels:frames*e.channels], k.sample, step, p.HoldBeyondSlice)

	e.publishPads()
}

func (e *Engine) render(out []float32, s *Sample, step float64, hold bool) {
	if len(out) == 0 || s == nil {
		return
	}
	for i := range e.voices {
		if e.voices[i].state != Idle {
			e.voices[i].render(out, e.channels, s, e.resample, step, hold)
		}
	}
}

func (e *Engine) handle(ev Event, p *Params, k *kit, fade int) {
	kind := ev.Kind
	if kind == NoteOn && ev.Velocity == 0 {
		kind = NoteOff
	}

	// A note-off follows the voice it belongs to, whatever the filters say now.
	if kind == NoteOff {
		for i := range e.voices {
			v := &e.voices[i]
			if v.state != Idle && v.held && v.note == ev.Note && v.channel == ev.Channel {
				v.release(p.GateOnRelease, fade)
			}
		}
		return
	}

	if e.tracker.Listens(ev.Channel, p) {
		e.tracker.OnNote(ev.Note, ev.Channel, p)
		return
	}
	if !p.TriggerChannel.Accepts(ev.Channel) {
		return
	}

	idx, ok := NoteToSlice(ev.Note, p.StartingNote)
	if !ok || k.sample.Len() == 0 {
		return
	}
	sl, ok := k.table.Slice(idx)
	if !ok {
		return
	}
	e.voices[idx].trigger(sl, ev.Note, ev.Channel, ev.Velocity)
}

func (e *Engine) resetVoices() {
	for i := range e.voices {
		e.voices[i].reset()
	}
}

func (e *Engine) publishPads() {
	for i := range e.voices {
		v := &e.voices[i]
		e.pads[i].Store(PadInfo{State: v.state, SliceIndex: v.slice.Index, Note: v.note, Held: v.held}.pack())
	}
}
