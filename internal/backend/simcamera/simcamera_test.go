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

package simcamera

import (
	"context"
	"testing"
	"time"

	"github.com/starguide/phdcore/internal/phdimage"
)

func TestCaptureProducesFullFrameByDefault(t *testing.T) {
	c := New(64, 48)
	img, err := c.Capture(context.Background(), 100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if img.W != 64 || img.H != 48 {
		t.Fatalf("size=%dx%d; want 64x48", img.W, img.H)
	}
}

func TestCaptureHonorsSubframe(t *testing.T) {
	c := New(64, 48)
	img, err := c.Capture(context.Background(), 0, &phdimage.Rect{X: 10, Y: 10, W: 20, H: 20})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if img.W != 20 || img.H != 20 {
		t.Fatalf("size=%dx%d; want 20x20", img.W, img.H)
	}
}

func TestCaptureDriftsStarOverTime(t *testing.T) {
	c := New(128, 128)
	c.DriftPerSec = 50
	c.ReadNoiseSigma = 0
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := base
	c.now = func() time.Time { return tick }

	img1, _ := c.Capture(context.Background(), 0, nil)
	tick = base.Add(time.Second)
	img2, _ := c.Capture(context.Background(), 0, nil)

	if peakX(img1) == peakX(img2) {
		t.Errorf("star did not drift between captures a second apart")
	}
}

func peakX(img *phdimage.Image) int {
	best, bestV := 0, uint16(0)
	for x := 0; x < img.W; x++ {
		v := img.At(x, img.H/2)
		if v > bestV {
			bestV, best = v, x
		}
	}
	return best
}
