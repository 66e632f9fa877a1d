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

package engine

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/starguide/phdcore/internal/calibration"
	"github.com/starguide/phdcore/internal/filter"
	"github.com/starguide/phdcore/internal/guider"
	"github.com/starguide/phdcore/internal/mount"
	"github.com/starguide/phdcore/internal/phdimage"
	"github.com/starguide/phdcore/internal/star"
	"github.com/starguide/phdcore/internal/worker"
)

type fakeBackend struct{}

func (fakeBackend) Connect() error    { return nil }
func (fakeBackend) Disconnect() error { return nil }
func (fakeBackend) Pulse(mount.Direction, time.Duration) error {
	return nil
}
func (fakeBackend) Capabilities() mount.Capabilities {
	return mount.Capabilities{CanPulseGuide: true}
}

// fakeCamera serves a fixed sequence of images, one per Capture call, then
// repeats the last one - enough to drive an Engine through several RunOnce
// cycles without a real capture device.
type fakeCamera struct {
	frames []*phdimage.Image
	i      int
	err    error
}

func (c *fakeCamera) Capture(ctx context.Context, exposure time.Duration, subframe *phdimage.Rect) (*phdimage.Image, error) {
	if c.err != nil {
		return nil, c.err
	}
	f := c.frames[c.i]
	if c.i < len(c.frames)-1 {
		c.i++
	}
	return f, nil
}
func (c *fakeCamera) HasShutter() bool      { return false }
func (c *fakeCamera) FullSize() (int, int) { return 128, 128 }

func blank(w, h int, floor uint16) *phdimage.Image {
	img := phdimage.New(w, h)
	for i := range img.Pix {
		img.Pix[i] = floor
	}
	return img
}

func paintBlob(img *phdimage.Image, cx, cy, radius, peak float64) {
	for y := 0; y < img.H; y++ {
		for x := 0; x < img.W; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			v := peak * math.Exp(-(dx*dx+dy*dy)/(2*radius*radius))
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
}

func newGuidingEngine(t *testing.T, cam *fakeCamera) (*Engine, *worker.Worker) {
	t.Helper()
	primary := mount.New(fakeBackend{}, mount.DefaultConfig(), mount.DefaultCalibrationConfig(), nil)
	if err := primary.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	model := calibration.Model{RaAngle: 0, DecAngle: math.Pi / 2, RaRate: 0.01, DecRate: 0.01}
	primary.LoadCalibration(model)
	primary.SetFilters(filter.Chain{filter.NewIdentity(0)}, filter.Chain{filter.NewIdentity(0)})

	g := guider.New(primary, nil, star.DefaultFinderConfig(), nil)
	w := worker.New(nil)
	go w.Run(context.Background())

	cfg := DefaultConfig()
	cfg.UseSubframes = false
	e := New(cam, g, w, nil, cfg, nil)
	return e, w
}

func TestRunOnceNoopWhenNotCapturing(t *testing.T) {
	cam := &fakeCamera{frames: []*phdimage.Image{blank(128, 128, 100)}}
	e, w := newGuidingEngine(t, cam)
	defer func() { <-w.Enqueue(worker.TerminateRequest()) }()

	ran, err := e.RunOnce(context.Background())
	if ran || err != nil {
		t.Fatalf("RunOnce()=(%v,%v); want (false,nil) when not capturing", ran, err)
	}
}

func TestRunOnceDrivesGuiderThroughSelection(t *testing.T) {
	img := blank(128, 128, 100)
	paintBlob(img, 64, 64, 2.0, 4000)
	cam := &fakeCamera{frames: []*phdimage.Image{img}}
	e, w := newGuidingEngine(t, cam)
	defer func() { <-w.Enqueue(worker.TerminateRequest()) }()

	e.StartCapturing()
	if ran, err := e.RunOnce(context.Background()); !ran || err != nil {
		t.Fatalf("tick1: ran=%v err=%v", ran, err)
	}
	if e.Guider.State() != guider.Selecting {
		t.Fatalf("state=%v; want Selecting", e.Guider.State())
	}

	if ran, err := e.RunOnce(context.Background()); !ran || err != nil {
		t.Fatalf("tick2: ran=%v err=%v", ran, err)
	}
	if e.Guider.State() != guider.Selected {
		t.Fatalf("state=%v; want Selected", e.Guider.State())
	}
}

func TestRunOnceReachesGuidingAndIssuesMoves(t *testing.T) {
	img1 := blank(128, 128, 100)
	paintBlob(img1, 64, 64, 2.0, 4000)
	img2 := blank(128, 128, 100)
	paintBlob(img2, 64, 64, 2.0, 4000)
	img3 := blank(128, 128, 100)
	paintBlob(img3, 64, 64, 2.0, 4000)
	img4 := blank(128, 128, 100)
	paintBlob(img4, 64, 64, 2.0, 4000) // still at the lock when Calibrated->Guiding latches it
	img5 := blank(128, 128, 100)
	paintBlob(img5, 67, 64, 2.0, 4000) // drifted 3px east of the lock

	cam := &fakeCamera{frames: []*phdimage.Image{img1, img2, img3, img4, img5}}
	e, w := newGuidingEngine(t, cam)
	defer func() { <-w.Enqueue(worker.TerminateRequest()) }()

	e.StartCapturing()
	e.RunOnce(context.Background()) // Uninitialized -> Selecting
	e.RunOnce(context.Background()) // Selecting -> Selected

	e.Guider.StartGuiding()
	if _, err := e.RunOnce(context.Background()); err != nil { // Selected -> Calibrated (primary already calibrated)
		t.Fatalf("begin guiding: %v", err)
	}
	if e.Guider.State() != guider.Calibrated {
		t.Fatalf("state=%v; want Calibrated", e.Guider.State())
	}

	if _, err := e.RunOnce(context.Background()); err != nil { // Calibrated -> Guiding
		t.Fatalf("calibrated tick: %v", err)
	}
	if e.Guider.State() != guider.Guiding {
		t.Fatalf("state=%v; want Guiding", e.Guider.State())
	}

	if ran, err := e.RunOnce(context.Background()); !ran || err != nil { // Guiding -> a move
		t.Fatalf("guiding tick: ran=%v err=%v", ran, err)
	}
}

func TestRunOnceStopsCapturingAndAbortsGuiderOnCaptureFailure(t *testing.T) {
	cam := &fakeCamera{err: errors.New("camera disconnected")}
	e, w := newGuidingEngine(t, cam)
	defer func() { <-w.Enqueue(worker.TerminateRequest()) }()

	e.StartCapturing()
	ran, err := e.RunOnce(context.Background())
	if !ran || err == nil {
		t.Fatalf("RunOnce()=(%v,%v); want (true, non-nil) on capture failure", ran, err)
	}
	if e.Capturing() {
		t.Errorf("Capturing()=true after a capture failure")
	}
	if e.Guider.State() != guider.Uninitialized {
		t.Errorf("guider state=%v; want Uninitialized after abort", e.Guider.State())
	}
}

func TestDitherNudgesLockPositionWithinScale(t *testing.T) {
	img := blank(128, 128, 100)
	paintBlob(img, 64, 64, 2.0, 4000)
	cam := &fakeCamera{frames: []*phdimage.Image{img}}
	e, w := newGuidingEngine(t, cam)
	defer func() { <-w.Enqueue(worker.TerminateRequest()) }()

	e.Guider.SelectStar(64, 64)
	before := e.Guider.LockPosition()

	e.Cfg.DitherScale = 2.0
	e.Dither(1.0, false)

	after := e.Guider.LockPosition()
	if after == before {
		t.Errorf("lock position unchanged after Dither")
	}
	if math.Abs(after.X-before.X) > 2.0 || math.Abs(after.Y-before.Y) > 2.0 {
		t.Errorf("lock moved by (%.2f,%.2f); want within DitherScale=2.0", after.X-before.X, after.Y-before.Y)
	}
}

func TestDitherRAOnlyLeavesDecUnchanged(t *testing.T) {
	img := blank(128, 128, 100)
	paintBlob(img, 64, 64, 2.0, 4000)
	cam := &fakeCamera{frames: []*phdimage.Image{img}}
	e, w := newGuidingEngine(t, cam)
	defer func() { <-w.Enqueue(worker.TerminateRequest()) }()

	e.Guider.SelectStar(64, 64)
	before := e.Guider.LockPosition()

	e.Dither(1.0, true)

	after := e.Guider.LockPosition()
	if after.Y != before.Y {
		t.Errorf("dec changed under raOnly dither: before=%v after=%v", before.Y, after.Y)
	}
}

func TestControlSurfacePassesThroughToGuider(t *testing.T) {
	cam := &fakeCamera{frames: []*phdimage.Image{blank(128, 128, 100)}}
	e, w := newGuidingEngine(t, cam)
	defer func() { <-w.Enqueue(worker.TerminateRequest()) }()

	e.SelectStar(30, 40)
	if e.Guider.State() != guider.Selected {
		t.Fatalf("state=%v; want Selected after SelectStar", e.Guider.State())
	}
	if lock := e.Guider.LockPosition(); lock.X != 30 || lock.Y != 40 {
		t.Fatalf("lock=%v; want (30,40)", lock)
	}

	e.SetLockPosition(50, 60, true)
	if lock := e.Guider.LockPosition(); lock.X != 50 || lock.Y != 60 {
		t.Fatalf("lock=%v; want (50,60) after SetLockPosition", lock)
	}

	e.AutoSelectStar()
	if e.Guider.State() != guider.Selecting {
		t.Fatalf("state=%v; want Selecting after AutoSelectStar", e.Guider.State())
	}

	e.StartGuiding()
	e.Stop()
	e.ClearCalibration()
	if e.Guider.Primary.Calibrated() {
		t.Errorf("primary still calibrated after ClearCalibration")
	}

	before := e.Guider.Primary.Calibration().RaAngle
	e.FlipRaCalibration()
	e.FlipRaCalibration()
	if got := e.Guider.Primary.Calibration().RaAngle; math.Abs(got-before) > 1e-9 {
		t.Errorf("RaAngle=%v after two flips; want back to %v", got, before)
	}
}

func TestStartCapturingIsIdempotent(t *testing.T) {
	cam := &fakeCamera{frames: []*phdimage.Image{blank(16, 16, 100)}}
	e, w := newGuidingEngine(t, cam)
	defer func() { <-w.Enqueue(worker.TerminateRequest()) }()

	e.StartCapturing()
	e.StartCapturing()
	if !e.Capturing() {
		t.Fatalf("Capturing()=false after StartCapturing")
	}
	e.StopCapturing()
	if e.Capturing() {
		t.Fatalf("Capturing()=true after StopCapturing")
	}
}
