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
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"
)

// ErrUnsupportedFormat is returned for files that are neither PCM WAV nor MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decoded is raw decoded audio before trimming: interleaved frames normalised to [-1, 1].
type Decoded struct {
	Frames     []float32
	Channels   int
	SampleRate uint32
}

// DecodeWAV decodes an integer PCM WAV stream.
func DecodeWAV(r io.ReadSeeker) (*Decoded, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.Wrap(ErrUnsupportedFormat, "not a wav file")
	}
	if d.WavAudioFormat != 1 {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "wav audio format %d", d.WavAudioFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "reading wav data")
	}
	if buf.Format == nil {
		return nil, errors.Wrap(ErrUnsupportedFormat, "wav without format chunk")
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(d.BitDepth)
	}
	if depth != 8 && depth != 16 && depth != 24 && depth != 32 {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "wav bit depth %d", depth)
	}

	scale := float32(int64(1) << (depth - 1))
	frames := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if depth == 8 {
			// 8 bit wav is unsigned
			v -= 128
		}
		frames[i] = float32(v) / scale
	}

	return &Decoded{
		Frames:     frames,
		Channels:   buf.Format.NumChannels,
		SampleRate: uint32(buf.Format.SampleRate),
	}, nil
}

// DecodeMP3 decodes an MP3 stream. The decoder always produces 16 bit stereo.
func DecodeMP3(r io.Reader) (*Decoded, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening mp3")
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, errors.Wrap(err, "decoding mp3")
	}
	if len(raw) == 0 {
		return nil, errors.New("mp3 contained no audio samples")
	}

	frames := make([]float32, len(raw)/2)
	for i := range frames {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		frames[i] = float32(v) / 32768
	}
	// drop a trailing half frame
	frames = frames[:len(frames)/2*2]

	return &Decoded{Frames: frames, Channels: 2, SampleRate: uint32(d.SampleRate())}, nil
}

// DecodeFile picks a decoder from the file extension. Unknown extensions are tried as
// WAV first and then as MP3.
func DecodeFile(path string) (*Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sample")
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return DecodeWAV(f)
	case ".mp3":
		return DecodeMP3(f)
	}

	dec, wavErr := DecodeWAV(f)
	if wavErr == nil {
		return dec, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "rewinding sample")
	}
	dec, mp3Err := DecodeMP3(f)
	if mp3Err != nil {
		return nil, errors.Wrapf(ErrUnsupportedFormat, "wav: %v; mp3: %v", wavErr, mp3Err)
	}
	return dec, nil
}

// LoadFile decodes path and installs it as the engine's sample.
func (e *Engine) LoadFile(path string) error {
	dec, err := DecodeFile(path)
	if err != nil {
		return err
	}
	e.logger.Debug("decoded sample", "path", path, "frames", len(dec.Frames)/max(dec.Channels, 1))
	return errors.Wrap(e.LoadSample(dec.Frames, dec.Channels, dec.SampleRate), path)
}
