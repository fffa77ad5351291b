//go:build !headless

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
	"time"

	"github.com/alttagil/chop-go"
	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

const pollInterval = 50 * time.Millisecond

// play streams r to the default output device until it is exhausted or o.max elapses.
func play(r *chop.Renderer, o options, logger *slog.Logger) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   o.rate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   100 * time.Millisecond,
	})
	if err != nil {
		return errors.Wrap(err, "opening audio device")
	}
	<-ready

	var src io.Reader = r
	if o.max > 0 {
		src = io.LimitReader(r, int64(o.max*float64(o.rate))*8)
	}
	player := ctx.NewPlayer(src)
	defer player.Close()

	logger.Info("playing", "rate", o.rate)
	player.Play()
	for player.IsPlaying() {
		time.Sleep(pollInterval)
	}
	return player.Err()
}
