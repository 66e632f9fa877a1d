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

// Package phdimage owns the raw pixel buffer captured from the camera and
// its derived statistics, the monochrome analogue of the teacher's
// internal/fits.Image (which carries a FITS header, color planes, and
// stacking transforms we have no use for here).
package phdimage

import "fmt"

// Rect is a subframe/ROI rectangle in pixel coordinates, inclusive of
// (X,Y) and exclusive of (X+W, Y+H).
type Rect struct {
	X, Y, W, H int
}

// ContainsWindow reports whether r fully contains the window
// [x-half, x+half] x [y-half, y+half].
func (r Rect) ContainsWindow(x, y, half int) bool {
	return x-half >= r.X && x+half < r.X+r.W && y-half >= r.Y && y+half < r.Y+r.H
}

// Image is a single exposure: a row-major grid of 16-bit samples, with an
// optional subframe identifying the valid region. Created by the capture
// step, owned by the engine for exactly one frame, replaced atomically on
// the next exposure.
type Image struct {
	W, H     int
	Pix      []uint16
	Subframe *Rect // nil means the full frame is valid

	stats      *Stats
	filtered   *filteredStats
}

// New allocates a W x H image with zeroed pixels.
func New(w, h int) *Image {
	return &Image{W: w, H: h, Pix: make([]uint16, w*h)}
}

// NewFromPix wraps an existing row-major pixel slice without copying.
func NewFromPix(w, h int, pix []uint16) *Image {
	if len(pix) != w*h {
		panic(fmt.Sprintf("phdimage: pixel slice length %d != %d*%d", len(pix), w, h))
	}
	return &Image{W: w, H: h, Pix: pix}
}

// At returns the pixel value at (x,y). No bounds checking in the hot path;
// callers in the star finder pre-validate the search window fits.
func (img *Image) At(x, y int) uint16 {
	return img.Pix[y*img.W+x]
}

// InBounds reports whether (x,y) lies within the image.
func (img *Image) InBounds(x, y int) bool {
	return x >= 0 && x < img.W && y >= 0 && y < img.H
}

// ValidRect returns the subframe if set, else the full image rect.
func (img *Image) ValidRect() Rect {
	if img.Subframe != nil {
		return *img.Subframe
	}
	return Rect{0, 0, img.W, img.H}
}

// Reset clears cached derived stats; called whenever Pix is mutated after
// construction (e.g. in-place noise reduction in the engine's frame loop).
func (img *Image) Reset() {
	img.stats = nil
	img.filtered = nil
}
