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

// ApplyMedian3x3 replaces every interior pixel with the median of its 3x3
// neighborhood in place, via MedianFilter3x3; the outermost row and column
// are left unchanged. Used by the engine's noise_reduction=Median3x3 mode
// before the image reaches the star finder.
func (img *Image) ApplyMedian3x3() {
	data := make([]float32, len(img.Pix))
	for i, v := range img.Pix {
		data[i] = float32(v)
	}
	out := make([]float32, len(data))
	MedianFilter3x3(out, data, int32(img.W))
	for i, v := range out {
		img.Pix[i] = uint16(v)
	}
	img.Reset()
}

// ApplyMean2x2 replaces each aligned 2x2 pixel block with its mean, in
// place, matching PHD2's 2x2-mean noise reduction mode. A trailing odd row
// or column (when W or H is odd) is left unchanged.
func (img *Image) ApplyMean2x2() {
	w, h := img.W, img.H
	for y := 0; y+1 < h; y += 2 {
		for x := 0; x+1 < w; x += 2 {
			i00 := y*w + x
			i01 := i00 + 1
			i10 := i00 + w
			i11 := i10 + 1
			mean := uint16((uint32(img.Pix[i00]) + uint32(img.Pix[i01]) + uint32(img.Pix[i10]) + uint32(img.Pix[i11])) / 4)
			img.Pix[i00], img.Pix[i01], img.Pix[i10], img.Pix[i11] = mean, mean, mean, mean
		}
	}
	img.Reset()
}
