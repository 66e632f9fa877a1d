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

package filter

import "math"

// Hysteresis blends the current input with the previous output, damping
// noise at the cost of lag. Grounded on GuideAlgorithmHysteresis::result in
// guide_algorithm_hysteresis.cpp (the corrected sibling of
// guide_algorithm_ra.cpp, which has the same formula but tests input<minMove
// without fabs() - an asymmetric dead zone bug not repeated here, since the
// dead-zone test here is written in terms of |input|).
type Hysteresis struct {
	MinMove     float64
	H           float64 // hysteresis weight, [0,1]
	Aggression  float64 // (0,1]
	lastY       float64
}

// NewHysteresis constructs a Hysteresis filter. h and aggression are not
// range-checked here, and neither mount.New nor Mount.SetFilters checks
// them either.
func NewHysteresis(minMove, h, aggression float64) *Hysteresis {
	return &Hysteresis{MinMove: minMove, H: h, Aggression: aggression}
}

func (f *Hysteresis) Result(input float64) float64 {
	y := (1-f.H)*input + f.H*f.lastY
	y *= f.Aggression
	if math.Abs(input) < f.MinMove {
		y = 0
	}
	f.lastY = y // stored unconditionally, matching the teacher's result()
	return y
}

func (f *Hysteresis) Reset() {
	f.lastY = 0
}
