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

// Package star locates a guide star's sub-pixel centroid near a seed pixel,
// and can auto-select the best candidate star in a fresh frame. It is the
// autoguiding analogue of the teacher's internal/star package (which instead
// finds and cross-matches many stars across frames for stacking alignment;
// that machinery - KD-trees, triangle matching - has no use here since
// multi-star tracking and plate solving are non-goals).
package star

import (
	"github.com/starguide/phdcore/internal/phdimage"
	"github.com/starguide/phdcore/internal/phderr"
	"github.com/starguide/phdcore/internal/point"
)

// Result classifies the outcome of a centroid search.
type Result int

const (
	Ok Result = iota
	Saturated
	LowSNR
	LowMass
	NearEdge
	ErrorResult
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "Ok"
	case Saturated:
		return "Saturated"
	case LowSNR:
		return "LowSNR"
	case LowMass:
		return "LowMass"
	case NearEdge:
		return "NearEdge"
	default:
		return "Error"
	}
}

// Star is a Point enriched with the centroid search's photometry.
type Star struct {
	point.Point
	Mass       float64
	SNR        float64
	LastResult Result
}

// Found reports whether the search located a usable star, i.e. the
// classification is Ok or Saturated.
func (s Star) Found() bool {
	return s.LastResult == Ok || s.LastResult == Saturated
}

// FinderConfig holds the star finder's tunables.
type FinderConfig struct {
	SearchRadius  int     `json:"search_radius"`  // R, pixels. Default 15.
	MassThreshold float64 `json:"mass_threshold"` // minimum centroid mass. Default 10.
	SNRThreshold  float64 `json:"snr_threshold"`  // minimum SNR. Default 3.
}

// DefaultFinderConfig returns PHD2's default star finder tunables.
func DefaultFinderConfig() FinderConfig {
	return FinderConfig{SearchRadius: 15, MassThreshold: 10, SNRThreshold: 3}
}

const centroidBoxRadius = 7 // 15x15 box

// LostError builds the phderr.Error a Guider surfaces when a search fails.
func (s Star) LostError() error {
	reason := phderr.ReasonError
	switch s.LastResult {
	case NearEdge:
		reason = phderr.ReasonNearEdge
	case LowSNR:
		reason = phderr.ReasonLowSNR
	case LowMass:
		reason = phderr.ReasonLowMass
	}
	return phderr.New(phderr.StarLost, "star search failed: %s", s.LastResult).WithReason(reason)
}

// Find runs a centroid search at the given seed pixel.
func Find(img *phdimage.Image, seedX, seedY float64, cfg FinderConfig) Star {
	sx, sy := int(seedX+0.5), int(seedY+0.5)
	R := cfg.SearchRadius

	if !img.ValidRect().ContainsWindow(sx, sy, R) {
		return Star{Point: point.New(seedX, seedY), LastResult: NearEdge}
	}

	localMin, localMean := windowMinMean(img, sx, sy, R)

	px, py, maxVal, nearmax2 := coarsePeak(img, sx, sy, R, localMin)

	mass, mx, my, threshold := centroid(img, px, py, localMin, localMean, maxVal, cfg.MassThreshold)

	meanOfWindow := localMean
	denom := meanOfWindow - localMin
	var snr float64
	if denom > 0 {
		snr = maxVal / denom
	} else {
		snr = 0
	}

	var result Result
	switch {
	case mass < cfg.MassThreshold:
		result = LowMass
	case snr < cfg.SNRThreshold:
		result = LowSNR
	case maxVal == nearmax2:
		result = Saturated
	default:
		result = Ok
	}

	_ = threshold // kept for callers that want to inspect via Debugf

	if mass <= 0 {
		return Star{Point: point.New(float64(px), float64(py)), LastResult: result}
	}

	cx, cy := mx/mass, my/mass
	cx = clamp(cx, float64(sx-R), float64(sx+R))
	cy = clamp(cy, float64(sy-R), float64(sy+R))

	return Star{
		Point:      point.New(cx, cy),
		Mass:       mass,
		SNR:        snr,
		LastResult: result,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func windowMinMean(img *phdimage.Image, sx, sy, R int) (min, mean float64) {
	min = float64(img.At(sx-R, sy-R))
	sum, count := 0.0, 0
	for y := sy - R; y <= sy+R; y++ {
		for x := sx - R; x <= sx+R; x++ {
			v := float64(img.At(x, y))
			if v < min {
				min = v
			}
			sum += v
			count++
		}
	}
	return min, sum / float64(count)
}

// coarsePeak finds the window pixel with the largest 5-pixel plus-shape sum
// (center counted twice), returning its position, the background-subtracted
// single-pixel value there, and the background-subtracted second-largest
// single-pixel value seen anywhere in the window (used to detect a flat,
// saturated peak). Both values share the local_min baseline so they are
// directly comparable by the saturation equality test below.
func coarsePeak(img *phdimage.Image, sx, sy, R int, localMin float64) (px, py int, maxVal, nearmax2 float64) {
	bestSum := -1.0
	top1, top2 := -1.0, -1.0

	at := func(x, y int) float64 {
		if !img.InBounds(x, y) {
			return 0
		}
		return float64(img.At(x, y))
	}

	for y := sy - R; y <= sy+R; y++ {
		for x := sx - R; x <= sx+R; x++ {
			center := at(x, y)
			sum := 2*center + at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1)
			if sum > bestSum {
				bestSum = sum
				px, py = x, y
			}
			if center > top1 {
				top2 = top1
				top1 = center
			} else if center > top2 {
				top2 = center
			}
		}
	}

	maxVal = at(px, py) - localMin
	nearmax2 = top2 - localMin
	return
}

func centroid(img *phdimage.Image, px, py int, localMin, localMean, maxVal, massThreshold float64) (mass, mx, my, threshold float64) {
	thresholds := []float64{
		localMean + (maxVal+localMin-localMean)/10,
		localMean,
		localMin,
	}
	for _, th := range thresholds {
		mass, mx, my = 0, 0, 0
		for dy := -centroidBoxRadius; dy <= centroidBoxRadius; dy++ {
			for dx := -centroidBoxRadius; dx <= centroidBoxRadius; dx++ {
				x, y := px+dx, py+dy
				if !img.InBounds(x, y) {
					continue
				}
				v := float64(img.At(x, y)) - th
				if v < 0 {
					v = 0
				}
				mass += v
				mx += float64(x) * v
				my += float64(y) * v
			}
		}
		threshold = th
		if mass >= massThreshold {
			break
		}
	}
	return
}
