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
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/alttagil/chop-go"
	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
)

type options struct {
	in, midi, out      string
	preset, savePreset string
	rate               int
	block              int
	max                float64
	play               bool
}

func main() {
	var (
		o    options
		p    = chop.DefaultParams()
		algo = p.Algorithm.String()
		trig uint
		pref uint
		sinc bool
		note uint
	)

	flag.StringVar(&o.in, "i", "", "Input sample (WAV or MP3)")
	flag.StringVar(&o.midi, "m", "", "MIDI file to perform. Without it every slice is auditioned once in order")
	flag.StringVar(&o.out, "o", "out.wav", "Output WAV filename")
	flag.StringVar(&o.preset, "preset", "", "Load settings from a JSON preset")
	flag.StringVar(&o.savePreset, "save-preset", "", "Write the effective settings to a JSON preset")
	flag.IntVar(&o.rate, "rate", 44100, "Output sample rate")
	flag.IntVar(&o.block, "block", chop.DefaultBlockFrames, "Processing block size in frames")
	flag.Float64Var(&o.max, "max", 0, "Stop after this many seconds (0 = until the performance ends)")
	flag.BoolVar(&o.play, "play", false, "Play through the sound card instead of writing a file")

	flag.Float64Var(&p.BPM, "bpm", p.BPM, "Tempo used for slicing")
	flag.StringVar(&algo, "algo", algo, "Slicing: 1/4, 1/8, 1/16, bars or transient")
	flag.UintVar(&note, "start", uint(p.StartingNote), "MIDI note of pad 1")
	flag.Float64Var(&p.SpeedPercent, "speed", p.SpeedPercent, "Playback speed in percent")
	flag.IntVar(&p.PitchSemitones, "pitch", p.PitchSemitones, "Pitch offset in semitones")
	flag.BoolVar(&p.HoldBeyondSlice, "hold", p.HoldBeyondSlice, "Keep playing past the slice end while held")
	flag.BoolVar(&p.GateOnRelease, "gate", p.GateOnRelease, "Stop a slice when its note is released")
	flag.UintVar(&trig, "trigger-ch", uint(p.TriggerChannel), "Trigger channel 1-16, 0 = any")
	flag.UintVar(&pref, "pitch-ch", uint(p.PitchReferenceChannel), "Pitch reference channel 1-16, 0 = off")
	flag.Float64Var(&p.ReleaseMillis, "release", p.ReleaseMillis, "Release fade in milliseconds")
	flag.BoolVar(&sinc, "sinc", p.Interpolation == chop.InterpolationSinc, "Use windowed sinc interpolation")
	debug := flag.Bool("debug", false, "Verbose logging")

	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	a, err := chop.ParseSliceAlgorithm(algo)
	if err != nil {
		logger.Error("bad -algo", "err", err)
		os.Exit(2)
	}
	p.Algorithm = a
	p.StartingNote = uint8(note)
	p.TriggerChannel = chop.Channel(trig)
	p.PitchReferenceChannel = chop.Channel(pref)
	if sinc {
		p.Interpolation = chop.InterpolationSinc
	} else {
		p.Interpolation = chop.InterpolationLinear
	}

	if err := run(o, p, logger); err != nil {
		logger.Error("chop-go failed", "err", err)
		os.Exit(1)
	}
}

func run(o options, p chop.Params, logger *slog.Logger) error {
	if o.preset != "" {
		var err error
		if p, err = mergePreset(&o, p); err != nil {
			return err
		}
	}
	if o.in == "" {
		return errors.New("no input sample, use -i or a preset with sample_path")
	}

	e, err := chop.NewEngine(float64(o.rate), 2, chop.WithLogger(logger), chop.WithParams(p))
	if err != nil {
		return err
	}
	if err := e.LoadFile(o.in); err != nil {
		return err
	}

	if o.savePreset != "" {
		if err := writePreset(o.savePreset, chop.CapturePreset(e, o.in)); err != nil {
			return err
		}
		logger.Info("preset saved", "path", o.savePreset)
	}

	var events []chop.ScheduledEvent
	if o.midi != "" {
		if events, err = chop.ReadMIDIFile(o.midi, e.HostRate()); err != nil {
			return err
		}
	} else {
		events = audition(e)
	}
	logger.Info("performing", "events", len(events), "slices", len(e.Slices()))

	r := chop.NewRenderer(e, events, o.block)
	format := beep.Format{SampleRate: beep.SampleRate(o.rate), NumChannels: 2, Precision: 2}
	var s beep.Streamer = r
	if o.max > 0 {
		s = beep.Take(format.SampleRate.N(time.Duration(o.max*float64(time.Second))), s)
	}

	start := time.Now()
	if o.play {
		err = play(r, o, logger)
	} else {
		err = bounce(o.out, s, format)
	}
	if err != nil {
		return err
	}
	logger.Info("done", "frames", r.Position(), "elapsed", time.Since(start))
	return nil
}

// mergePreset loads o.preset and lets explicitly set flags override it.
func mergePreset(o *options, flags chop.Params) (chop.Params, error) {
	f, err := os.Open(o.preset)
	if err != nil {
		return flags, errors.Wrap(err, "opening preset")
	}
	defer f.Close()

	pr, err := chop.LoadPreset(f)
	if err != nil {
		return flags, err
	}
	if o.in == "" {
		o.in = pr.SamplePath
	}

	p := pr.Params
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "bpm":
			p.BPM = flags.BPM
		case "algo":
			p.Algorithm = flags.Algorithm
		case "start":
			p.StartingNote = flags.StartingNote
		case "speed":
			p.SpeedPercent = flags.SpeedPercent
		case "pitch":
			p.PitchSemitones = flags.PitchSemitones
		case "hold":
			p.HoldBeyondSlice = flags.HoldBeyondSlice
		case "gate":
			p.GateOnRelease = flags.GateOnRelease
		case "trigger-ch":
			p.TriggerChannel = flags.TriggerChannel
		case "pitch-ch":
			p.PitchReferenceChannel = flags.PitchReferenceChannel
		case "release":
			p.ReleaseMillis = flags.ReleaseMillis
		case "sinc":
			p.Interpolation = flags.Interpolation
		}
	})
	return p, nil
}

func writePreset(path string, pr chop.Preset) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating preset")
	}
	if err := chop.SavePreset(f, pr); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// audition plays every slice once, back to back, each for its own duration.
func audition(e *chop.Engine) []chop.ScheduledEvent {
	p := e.Params()
	s := e.Sample()
	rate := chop.ReadRate(p.SpeedPercent, p.PitchSemitones, s.SampleRate(), e.HostRate())
	if rate <= 0 {
		return nil
	}

	ch := p.TriggerChannel
	if ch == chop.AnyChannel {
		ch = 1
	}

	var (
		out []chop.ScheduledEvent
		at  int64
	)
	for _, sl := range e.Slices() {
		n, ok := chop.SliceNote(sl.Index, p.StartingNote)
		if !ok {
			break
		}
		length := int64(float64(sl.Len()) / rate)
		out = append(out,
			chop.ScheduledEvent{Frame: at, Event: chop.Event{Kind: chop.NoteOn, Note: n, Velocity: 127, Channel: ch}},
			chop.ScheduledEvent{Frame: at + length, Event: chop.Event{Kind: chop.NoteOff, Note: n, Channel: ch}},
		)
		at += length
	}
	return out
}

func bounce(path string, s beep.Streamer, format beep.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating output")
	}
	if err := wav.Encode(f, s, format); err != nil {
		f.Close()
		return errors.Wrap(err, "encoding wav")
	}
	return f.Close()
}
