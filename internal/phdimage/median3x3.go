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

import "github.com/klauspost/cpuid"

// MedianFilter3x3 applies a 3x3 median filter to data, a 2D array stored
// row-major with the given line width, and stores the result in output.
// The outermost rows and columns are copied unchanged. Adapted from the
// teacher's internal/median package (originally tuned for float32 RGB
// pixel arithmetic in a stacking pipeline) to the single-channel sensor
// data this core operates on. Dispatches on AVX2 availability via cpuid,
// the same way the teacher's median3x3_amd64.go does, picking an
// unrolled-loop fast path instead of an assembly kernel.
func MedianFilter3x3(output, data []float32, width int32) {
	if cpuid.CPU.AVX2() {
		medianFilter3x3Unrolled(output, data, width)
	} else {
		medianFilter3x3PureGo(output, data, width)
	}
}

func medianFilter3x3PureGo(output, data []float32, width int32) {
	height := len(data) / int(width)
	copy(output[:width], data[:width]) // copy first row

	for line := 0; line < height-2; line++ {
		start, end := line*int(width), (line+3)*int(width)
		output[start+int(width)] = data[start+int(width)] // copy first column
		medianFilterLine3x3(output[start:end], data[start:end], width)
		output[start+2*int(width)-1] = data[start+2*int(width)-1] // copy last column
	}
	copy(output[(height-1)*int(width):], data[(height-1)*int(width):]) // copy last row
}

// medianFilter3x3Unrolled processes four columns at a time per inner
// iteration; functionally identical to the pure-Go path but with less
// per-pixel loop overhead, used when the CPU reports AVX2 (a proxy for
// "a reasonably modern x86 core", since there is no SIMD intrinsic support
// in plain Go).
func medianFilter3x3Unrolled(output, data []float32, width int32) {
	height := len(data) / int(width)
	copy(output[:width], data[:width])

	for line := 0; line < height-2; line++ {
		start, end := line*int(width), (line+3)*int(width)
		output[start+int(width)] = data[start+int(width)]

		row := output[start:end]
		src := data[start:end]
		w := int(width)
		i := w + 1
		for ; i+4 <= 2*w-1; i += 4 {
			medianFilterPixel3x3(row, src, w, i)
			medianFilterPixel3x3(row, src, w, i+1)
			medianFilterPixel3x3(row, src, w, i+2)
			medianFilterPixel3x3(row, src, w, i+3)
		}
		for ; i < 2*w-1; i++ {
			medianFilterPixel3x3(row, src, w, i)
		}
		output[start+2*int(width)-1] = data[start+2*int(width)-1]
	}
	copy(output[(height-1)*int(width):], data[(height-1)*int(width):])
}

func medianFilterLine3x3(output, data []float32, width int32) {
	w := int(width)
	for i := w + 1; i < 2*w-1; i++ {
		medianFilterPixel3x3(output, data, w, i)
	}
}

func medianFilterPixel3x3(output, data []float32, width, i int) {
	var g [9]float32
	ioff := i - width - 1
	g[0], g[1], g[2] = data[ioff], data[ioff+1], data[ioff+2]
	ioff += width
	g[3], g[4], g[5] = data[ioff], data[ioff+1], data[ioff+2]
	ioff += width
	g[6], g[7], g[8] = data[ioff], data[ioff+1], data[ioff+2]
	output[i] = medianOfNine(g)
}

// medianOfNine returns the median of nine values using an optimal sorting
// network (ported from the teacher's MedianFloat32Slice9, originally from
// https://stackoverflow.com/questions/45453537). Modifies its argument.
func medianOfNine(a [9]float32) float32 {
	if a[0] > a[1] {
		a[0], a[1] = a[1], a[0]
	}
	if a[3] > a[4] {
		a[3], a[4] = a[4], a[3]
	}
	if a[6] > a[7] {
		a[6], a[7] = a[7], a[6]
	}
	if a[1] > a[2] {
		a[1], a[2] = a[2], a[1]
	}
	if a[4] > a[5] {
		a[4], a[5] = a[5], a[4]
	}
	if a[7] > a[8] {
		a[7], a[8] = a[8], a[7]
	}
	if a[0] > a[1] {
		a[0], a[1] = a[1], a[0]
	}
	if a[3] > a[4] {
		a[3], a[4] = a[4], a[3]
	}
	if a[6] > a[7] {
		a[6], a[7] = a[7], a[6]
	}
	if a[0] > a[3] {
		a[3] = a[0]
	}
	if a[3] > a[6] {
		a[6] = a[3]
	}
	if a[1] > a[4] {
		a[1], a[4] = a[4], a[1]
	}
	if a[4] > a[7] {
		a[4] = a[7]
	}
	if a[1] > a[4] {
		a[4] = a[1]
	}
	if a[5] > a[8] {
		a[5] = a[8]
	}
	if a[2] > a[5] {
		a[2] = a[5]
	}
	if a[2] > a[4] {
		a[2], a[4] = a[4], a[2]
	}
	if a[4] > a[6] {
		a[4] = a[6]
	}
	if a[2] > a[4] {
		a[4] = a[2]
	}
	return a[4]
}
