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
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// PresetVersion is the version written by SavePreset and the only one LoadPreset accepts.
const PresetVersion = 1

var ErrPresetVersion = errors.New("unsupported preset version")

// Preset is the flat, persistable engine configuration.
type Preset struct {
	Version    int    `json:"version"`
	SamplePath string `json:"sample_path,omitempty"`
	Params
}

// CapturePreset snapshots the engine parameters.
func CapturePreset(e *Engine, samplePath string) Preset {
	return Preset{Version: PresetVersion, SamplePath: samplePath, Params: e.Params()}
}

// Validate checks the preset version.
func (p Preset) Validate() error {
	if p.Version != PresetVersion {
		return errors.Wrapf(ErrPresetVersion, "got %d, expected %d", p.Version, PresetVersion)
	}
	return nil
}

// SavePreset writes p as indented JSON.
func SavePreset(w io.Writer, p Preset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(p), "writing preset")
}

// LoadPreset reads a JSON preset. Fields missing from the document keep their defaults
// and out of range values are clamped.
func LoadPreset(r io.Reader) (Preset, error) {
	p := Preset{Params: DefaultParams()}
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return Preset{}, errors.Wrap(err, "parsing preset")
	}
	if err := p.Validate(); err != nil {
		return Preset{}, err
	}
	p.Params = p.Params.Clamp()
	return p, nil
}
