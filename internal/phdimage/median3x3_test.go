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

package phdimage

import "testing"

func TestMedianFilter3x3Borders(t *testing.T) {
	w := int32(5)
	data := make([]float32, w*5)
	for i := range data {
		data[i] = float32(i)
	}
	out := make([]float32, len(data))
	MedianFilter3x3(out, data, w)

	for i := int32(0); i < w; i++ { // first row untouched
		if out[i] != data[i] {
			t.Errorf("first row[%d]=%g; want %g", i, out[i], data[i])
		}
	}
	last := int32(len(data)) - w
	for i := last; i < int32(len(data)); i++ { // last row untouched
		if out[i] != data[i] {
			t.Errorf("last row[%d]=%g; want %g", i, out[i], data[i])
		}
	}
}

func TestMedianOfNine(t *testing.T) {
	a := [9]float32{9, 8, 7, 6, 5, 4, 3, 2, 1}
	if m := medianOfNine(a); m != 5 {
		t.Errorf("median=%g; want 5", m)
	}
}

func TestImageStats(t *testing.T) {
	img := New(3, 3)
	copy(img.Pix, []uint16{1, 2, 3, 4, 5, 6, 7, 8, 9})
	s := img.Stats()
	if s.Min != 1 || s.Max != 9 || s.Mean != 5 {
		t.Errorf("stats=%+v; want min=1 max=9 mean=5", s)
	}
}
