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

// Package simcamera implements camera.Camera entirely in memory: a Gaussian
// star on a read-noise floor, drifting at a configured pixels-per-second
// rate, for driving the engine and writing tests without hardware.
package simcamera

import (
	"context"
	"math"
	"time"

	"github.com/valyala/fastrand"

	"github.com/starguide/phdcore/internal/phdimage"
)

// Camera synthesizes exposures of a single Gaussian star drifting linearly
// across the frame, with additive read noise sampled via fastrand - the
// same RNG the teacher reaches for when it needs a fast, non-cryptographic
// source (its rejectBadPixels/qsort sampling helpers).
type Camera struct {
	W, H int

	StarX, StarY   float64 // starting centroid, pixels
	DriftPerSec    float64 // pixels/second along +X
	Radius         float64 // Gaussian sigma, pixels
	Peak           float64 // peak ADU above floor
	Floor          uint16  // background level
	ReadNoiseSigma float64 // stddev of additive read noise, ADU

	rng   fastrand.RNG
	start time.Time
	now   func() time.Time // overridable for deterministic tests
}

// New constructs a simulated camera of the given frame size with
// reasonable defaults; fields may be adjusted before first Capture.
func New(w, h int) *Camera {
	return &Camera{
		W: w, H: h,
		StarX: float64(w) / 2, StarY: float64(h) / 2,
		Radius: 2.0, Peak: 4000, Floor: 100, ReadNoiseSigma: 3,
		now: time.Now,
	}
}

func (c *Camera) HasShutter() bool      { return false }
func (c *Camera) FullSize() (int, int) { return c.W, c.H }

// Capture renders one frame at the star's current drifted position, cropped
// to subframe if non-nil. exposure and ctx are accepted for interface
// conformance; the simulator does not actually block for exposure.
func (c *Camera) Capture(ctx context.Context, exposure time.Duration, subframe *phdimage.Rect) (*phdimage.Image, error) {
	if c.start.IsZero() {
		c.start = c.now()
	}
	elapsed := c.now().Sub(c.start).Seconds()
	cx := c.StarX + c.DriftPerSec*elapsed
	cy := c.StarY

	img := phdimage.New(c.W, c.H)
	for y := 0; y < c.H; y++ {
		for x := 0; x < c.W; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			v := float64(c.Floor) + c.Peak*math.Exp(-(dx*dx+dy*dy)/(2*c.Radius*c.Radius))
			v += c.readNoise()
			img.Pix[y*c.W+x] = clampU16(v)
		}
	}
	if subframe != nil {
		img = crop(img, *subframe)
	}
	return img, nil
}

// readNoise draws a zero-mean Gaussian-ish sample via a sum of uniform
// fastrand draws (an Irwin-Hall approximation), avoiding a dependency on
// math/rand's NormFloat64 for this single call site.
const readNoiseScale = 1 << 24

func (c *Camera) readNoise() float64 {
	if c.ReadNoiseSigma <= 0 {
		return 0
	}
	sum := 0.0
	const n = 12
	for i := 0; i < n; i++ {
		sum += float64(c.rng.Uint32n(readNoiseScale)) / float64(readNoiseScale)
	}
	return (sum - n/2) * c.ReadNoiseSigma
}

func crop(img *phdimage.Image, r phdimage.Rect) *phdimage.Image {
	out := phdimage.New(r.W, r.H)
	for y := 0; y < r.H; y++ {
		copy(out.Pix[y*r.W:(y+1)*r.W], img.Pix[(r.Y+y)*img.W+r.X:(r.Y+y)*img.W+r.X+r.W])
	}
	out.Subframe = &phdimage.Rect{X: r.X, Y: r.Y, W: r.W, H: r.H}
	return out
}

func clampU16(v float64) uint16 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return uint16(v)
}
