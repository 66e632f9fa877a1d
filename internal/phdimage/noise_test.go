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

func TestApplyMean2x2AveragesBlocks(t *testing.T) {
	img := New(2, 2)
	img.Pix = []uint16{10, 20, 30, 40}
	img.ApplyMean2x2()

	want := uint16((10 + 20 + 30 + 40) / 4)
	for i, v := range img.Pix {
		if v != want {
			t.Errorf("Pix[%d]=%d; want %d", i, v, want)
		}
	}
}

func TestApplyMean2x2LeavesTrailingOddRowColumn(t *testing.T) {
	img := New(3, 3)
	for i := range img.Pix {
		img.Pix[i] = uint16(100 + i)
	}
	before := append([]uint16(nil), img.Pix...)
	img.ApplyMean2x2()

	// Last row and last column belong to no complete 2x2 block and must be
	// untouched.
	for x := 0; x < 3; x++ {
		i := 2*3 + x
		if img.Pix[i] != before[i] {
			t.Errorf("last row Pix[%d]=%d; want untouched %d", i, img.Pix[i], before[i])
		}
	}
	for y := 0; y < 3; y++ {
		i := y*3 + 2
		if img.Pix[i] != before[i] {
			t.Errorf("last col Pix[%d]=%d; want untouched %d", i, img.Pix[i], before[i])
		}
	}
}

func TestApplyMedian3x3PreservesBorders(t *testing.T) {
	img := New(4, 4)
	for i := range img.Pix {
		img.Pix[i] = uint16(i)
	}
	before := append([]uint16(nil), img.Pix...)
	img.ApplyMedian3x3()

	for i := 0; i < 4; i++ {
		if img.Pix[i] != before[i] {
			t.Errorf("first row Pix[%d]=%d; want untouched %d", i, img.Pix[i], before[i])
		}
	}
}
