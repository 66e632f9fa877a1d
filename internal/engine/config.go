// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package engine

// NoiseReduction selects the in-place smoothing applied to a frame before
// it reaches the star finder.
type NoiseReduction int

const (
	NoiseNone NoiseReduction = iota
	NoiseMean2x2
	NoiseMedian3x3
)

func (n NoiseReduction) String() string {
	switch n {
	case NoiseMean2x2:
		return "Mean2x2"
	case NoiseMedian3x3:
		return "Median3x3"
	default:
		return "None"
	}
}

// Config holds the frame-loop tunables - exposure length, subframing,
// inter-frame delay, noise reduction, and dither scale - loaded by the
// composition root from the "engine" section of the JSON app config file
// (config.LoadAppConfig).
type Config struct {
	ExposureMs     float64        `json:"exposure_ms"`
	UseSubframes   bool           `json:"use_subframes"`
	TimeLapseMs    float64        `json:"time_lapse_ms"`
	NoiseReduction NoiseReduction `json:"noise_reduction"`
	DitherScale    float64        `json:"dither_scale"`
	DitherRAOnly   bool           `json:"dither_ra_only"`
}

// DefaultConfig returns conservative defaults: a 2s exposure, subframing
// enabled (full frames until a star is tracked), no time lapse delay, no noise reduction, and a modest dither scale.
func DefaultConfig() Config {
	return Config{ExposureMs: 2000, UseSubframes: true, TimeLapseMs: 0, NoiseReduction: NoiseNone, DitherScale: 1.0}
}
