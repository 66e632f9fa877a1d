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

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// HistorySize is the fixed length of the Lowpass history FIFO, matching the
// teacher's HISTORY_SIZE constant.
const HistorySize = 10

// Lowpass adds a fraction of the input history's linear slope to the raw
// input, anticipating drift, then clamps the result so it never amplifies
// or reverses the raw signal. Grounded on GuideAlgorithmLowpass::result in
// guide_algorithm_lowpass.cpp; that source also sorts a copy of the history
// to compute a median that is never used in the returned value, an artifact
// of an earlier median-based design that this implementation does not
// reproduce since it has no effect on behavior.
type Lowpass struct {
	MinMove     float64
	SlopeWeight float64
	history     [HistorySize]float64
}

func NewLowpass(minMove, slopeWeight float64) *Lowpass {
	return &Lowpass{MinMove: minMove, SlopeWeight: slopeWeight}
}

func (f *Lowpass) Result(input float64) float64 {
	// Push input, dropping the oldest entry. The history is always full
	// (prefilled with zeroes), as in the teacher's construction.
	copy(f.history[:HistorySize-1], f.history[1:])
	f.history[HistorySize-1] = input

	slope := slopeOf(f.history[:])
	y := input + f.SlopeWeight*slope
	y = clampNeverAmplifyOrReverse(y, input)

	if math.Abs(input) < f.MinMove {
		y = 0
	}
	return y
}

func (f *Lowpass) Reset() {
	for i := range f.history {
		f.history[i] = 0
	}
}

// slopeOf returns the least-squares slope of values against their index,
// using gonum's linear regression rather than a hand-rolled normal-equation
// solve.
func slopeOf(values []float64) float64 {
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, values, nil, false)
	return beta
}
