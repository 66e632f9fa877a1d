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

package star

import (
	"math"
	"testing"

	"github.com/starguide/phdcore/internal/phdimage"
)

// synthStar paints a blob of the given peak amplitude (over a flat
// background floor) centered at (cx,cy), falling off with the given
// radius, into a fresh w x h image.
func synthStar(w, h int, cx, cy, radius, floor, peak float64) *phdimage.Image {
	img := phdimage.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			r2 := dx*dx + dy*dy
			v := floor + peak*math.Exp(-r2/(2*radius*radius))
			img.Pix[y*w+x] = uint16(v)
		}
	}
	return img
}

func TestFindLocatesBlobCentroid(t *testing.T) {
	img := synthStar(64, 64, 32.3, 29.7, 2.0, 100, 4000)
	cfg := DefaultFinderConfig()

	s := Find(img, 32, 30, cfg)
	if !s.Found() {
		t.Fatalf("Find result=%v, want Ok or Saturated", s.LastResult)
	}
	if math.Abs(s.X-32.3) > 0.5 || math.Abs(s.Y-29.7) > 0.5 {
		t.Errorf("centroid=(%.2f,%.2f); want near (32.3,29.7)", s.X, s.Y)
	}
}

func TestFindNearEdgeReturnsInvalidResult(t *testing.T) {
	img := synthStar(64, 64, 3, 3, 2.0, 100, 4000)
	cfg := DefaultFinderConfig()

	s := Find(img, 3, 3, cfg)
	if s.LastResult != NearEdge {
		t.Errorf("result=%v; want NearEdge", s.LastResult)
	}
}

func TestFindNeverEscapesSearchWindow(t *testing.T) {
	// Invariant: Find never returns coordinates outside [seed-R, seed+R].
	img := synthStar(64, 64, 20, 20, 6.0, 100, 4000) // broad blob, off-center seed
	cfg := DefaultFinderConfig()
	cfg.SearchRadius = 5

	seedX, seedY := 24.0, 24.0
	s := Find(img, seedX, seedY, cfg)
	if s.X < seedX-float64(cfg.SearchRadius) || s.X > seedX+float64(cfg.SearchRadius) ||
		s.Y < seedY-float64(cfg.SearchRadius) || s.Y > seedY+float64(cfg.SearchRadius) {
		t.Errorf("centroid (%.2f,%.2f) escaped the +-%d window around (%.0f,%.0f)",
			s.X, s.Y, cfg.SearchRadius, seedX, seedY)
	}
}

func TestFindLowMassOnFlatField(t *testing.T) {
	img := phdimage.New(64, 64)
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	cfg := DefaultFinderConfig()

	s := Find(img, 32, 32, cfg)
	if s.LastResult != LowMass {
		t.Errorf("result=%v; want LowMass on a flat field", s.LastResult)
	}
	if s.Found() {
		t.Errorf("Found()=true on a flat field")
	}
}

func TestFindSaturatedPlateau(t *testing.T) {
	img := phdimage.New(64, 64)
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	// A flat-topped saturated plateau around the seed.
	for y := 28; y <= 36; y++ {
		for x := 28; x <= 36; x++ {
			img.Pix[y*64+x] = 65535
		}
	}
	cfg := DefaultFinderConfig()

	s := Find(img, 32, 32, cfg)
	if s.LastResult != Saturated {
		t.Errorf("result=%v; want Saturated", s.LastResult)
	}
	if !s.Found() {
		t.Errorf("Found()=false on a saturated star")
	}
}

func TestAutoSelectPicksBrightestQualifyingStar(t *testing.T) {
	img := phdimage.New(128, 128)
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	paintBlob(img, 40, 40, 2.0, 100, 2000)
	paintBlob(img, 90, 90, 2.0, 100, 6000) // brighter, should win

	cfg := DefaultFinderConfig()
	best, ok := AutoSelect(img, cfg)
	if !ok {
		t.Fatalf("AutoSelect found no candidate")
	}
	if math.Abs(best.X-90) > 1.5 || math.Abs(best.Y-90) > 1.5 {
		t.Errorf("AutoSelect picked (%.1f,%.1f); want near (90,90)", best.X, best.Y)
	}
}

func TestAutoSelectNoneOnEmptyField(t *testing.T) {
	img := phdimage.New(64, 64)
	for i := range img.Pix {
		img.Pix[i] = 100
	}
	cfg := DefaultFinderConfig()

	_, ok := AutoSelect(img, cfg)
	if ok {
		t.Errorf("AutoSelect found a candidate in an empty field")
	}
}

// paintBlob adds (additively, clamped) a gaussian blob to an existing image,
// leaving the rest of the field untouched.
func paintBlob(img *phdimage.Image, cx, cy, radius, floor, peak float64) {
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			r2 := dx*dx + dy*dy
			v := peak * math.Exp(-r2/(2*radius*radius))
			if v < 1 {
				continue
			}
			cur := float64(img.At(x, y))
			nv := cur + v
			if nv > 65535 {
				nv = 65535
			}
			img.Pix[y*img.W+x] = uint16(nv)
		}
	}
	_ = floor
}
