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

// Package filter implements the single-axis correction filters a Mount
// applies to a raw pixel drift before turning it into a mount move: Identity,
// Hysteresis, Lowpass and ResistSwitch. Grounded on guide_algorithm_*.cpp,
// which chain filters through a GuideAlgorithm base class holding a
// m_pChained pointer; here a Chain is a value-typed slice instead of a
// pointer graph, so the whole stack can be copied, zero-valued, and
// round-tripped through JSON without heap aliasing concerns.
package filter

import "math"

// Filter is a single-axis correction stage: result(input) -> output, with a
// reset back to its power-on state.
type Filter interface {
	Result(input float64) float64
	Reset()
}

// Chain runs a sequence of filters, feeding each stage's output to the next,
// mirroring the teacher's m_pChained->result(input) call made before a
// filter applies its own stage. An empty Chain is the identity function.
type Chain []Filter

// Result feeds input through every stage in order.
func (c Chain) Result(input float64) float64 {
	out := input
	for _, f := range c {
		out = f.Result(out)
	}
	return out
}

// Reset resets every stage in the chain.
func (c Chain) Reset() {
	for _, f := range c {
		f.Reset()
	}
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

// clampNeverAmplifyOrReverse enforces sign(y) == sign(x) and |y| <= |x|,
// the invariant spec'd for the Lowpass filter: a correction filter may damp
// the raw drift signal but never invent a larger or backwards correction.
func clampNeverAmplifyOrReverse(y, x float64) float64 {
	if x == 0 {
		return 0
	}
	if sign(y) != sign(x) {
		return 0
	}
	if math.Abs(y) > math.Abs(x) {
		return math.Copysign(math.Abs(x), x)
	}
	return y
}
