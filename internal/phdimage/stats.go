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

import "gonum.org/v1/gonum/stat"

// Stats holds the basic statistics of an image, computed on demand and
// cached, mirroring usImage::CalcStats from the original source (min, max,
// mean kept eagerly; everything more exotic the teacher computes for
// stretching/stacking has no place here since this core doesn't stack).
type Stats struct {
	Min, Max, Mean float64
}

type filteredStats struct {
	Min, Max float64
}

// Stats computes (and caches) min/max/mean over the image's pixels.
func (img *Image) Stats() Stats {
	if img.stats != nil {
		return *img.stats
	}
	vals := asFloat64(img.Pix)
	min, max := vals[0], vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	s := Stats{Min: min, Max: max, Mean: stat.Mean(vals, nil)}
	img.stats = &s
	return s
}

// FilteredMinMax returns the min/max of the 3x3-median-filtered image,
// a noise-robust pair distinct from the raw min/max. The star finder and
// the calibration code in this module do not call it.
func (img *Image) FilteredMinMax() (min, max float64) {
	if img.filtered != nil {
		return img.filtered.Min, img.filtered.Max
	}
	src := asFloat32(img.Pix)
	dst := make([]float32, len(src))
	MedianFilter3x3(dst, src, int32(img.W))

	mn, mx := dst[0], dst[0]
	for _, v := range dst {
		if v < mn {
			mn = v
		}
		if v > mx {
			mx = v
		}
	}
	fs := filteredStats{Min: float64(mn), Max: float64(mx)}
	img.filtered = &fs
	return fs.Min, fs.Max
}

func asFloat64(pix []uint16) []float64 {
	out := make([]float64, len(pix))
	for i, v := range pix {
		out[i] = float64(v)
	}
	return out
}

func asFloat32(pix []uint16) []float32 {
	out := make([]float32, len(pix))
	for i, v := range pix {
		out[i] = float32(v)
	}
	return out
}
