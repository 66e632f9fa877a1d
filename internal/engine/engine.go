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

// Package engine drives the frame loop: capture, noise reduction, feed the
// guider, enqueue any resulting moves, and schedule the next capture.
// Grounded on PHD2's frame.cpp schedule/completion handlers,
// replacing its wxWidgets event posting with an explicit RunOnce step the
// composition root (cmd/phdguide) drives from its own loop - the same
// "caller owns the loop, library exposes one synchronous step" shape as
// the teacher's ops.OperatorUnary.Apply, just called repeatedly instead of
// once per file.
package engine

import (
	"context"
	"time"

	"github.com/valyala/fastrand"

	"github.com/starguide/phdcore/internal/camera"
	"github.com/starguide/phdcore/internal/guider"
	"github.com/starguide/phdcore/internal/logging"
	"github.com/starguide/phdcore/internal/phdimage"
	"github.com/starguide/phdcore/internal/worker"
)

// Engine ties a Camera, a Guider, and the worker(s) that execute Expose and
// Move requests into the frame loop. It owns the single in-flight Image:
// ownership transfers into the worker for the duration of a capture and
// comes back once the Expose request completes.
type Engine struct {
	Camera camera.Camera
	Guider *guider.Guider

	// PrimaryWorker services Expose requests and the primary mount's Move
	// requests - pulses still complete before the next exposure starts
	// because both run on this one FIFO.
	PrimaryWorker *worker.Worker
	// SecondaryWorker is optional; when set, Move requests for
	// Guider.Secondary are routed there instead, so a slow secondary's
	// motion can overlap the next exposure.
	SecondaryWorker *worker.Worker

	Cfg Config
	log logging.Logger

	capturing bool
	paused    bool

	ditherRng fastrand.RNG
}

// New constructs an Engine. secondaryWorker may be nil.
func New(cam camera.Camera, g *guider.Guider, primaryWorker, secondaryWorker *worker.Worker, cfg Config, log logging.Logger) *Engine {
	if log == nil {
		log = logging.Nop{}
	}
	return &Engine{Camera: cam, Guider: g, PrimaryWorker: primaryWorker, SecondaryWorker: secondaryWorker, Cfg: cfg, log: log}
}

func (e *Engine) Capturing() bool { return e.capturing }
func (e *Engine) Paused() bool    { return e.paused }

// SetExposure implements set_exposure(ms).
func (e *Engine) SetExposure(ms float64) { e.Cfg.ExposureMs = ms }

// SetSubframes implements set_subframes(bool).
func (e *Engine) SetSubframes(use bool) { e.Cfg.UseSubframes = use }

// SetTimeLapse implements set_time_lapse(ms).
func (e *Engine) SetTimeLapse(ms float64) { e.Cfg.TimeLapseMs = ms }

// SetNoiseReduction implements set_noise_reduction(mode).
func (e *Engine) SetNoiseReduction(mode NoiseReduction) { e.Cfg.NoiseReduction = mode }

// SetDither implements set_dither(scale, ra_only).
func (e *Engine) SetDither(scale float64, raOnly bool) {
	e.Cfg.DitherScale = scale
	e.Cfg.DitherRAOnly = raOnly
}

// StartCapturing implements start_capturing(): a no-op if already capturing.
func (e *Engine) StartCapturing() {
	if e.capturing {
		return
	}
	e.capturing = true
}

// StopCapturing implements stop_capturing(): the in-flight Expose, if any,
// still runs to completion, but its result will not trigger another one.
// Cancellation is cooperative and coarse - RunOnce checks capturing only
// between frames, never mid-Expose.
func (e *Engine) StopCapturing() { e.capturing = false }

// Pause implements pause(bool): while paused, RunOnce still completes
// in-flight frames and feeds the guider for display, but never enqueues
// moves. The Guider is paused too, so it also holds off on advancing
// through a Calibrating sequence.
func (e *Engine) Pause(p bool) {
	e.paused = p
	e.Guider.Pause(p)
}

// The remaining engine control surface is a thin pass-through to the
// Guider: the composition root talks to one object (the Engine), and the
// Guider stays the sole owner of state-machine/lock-position mutation.

// SelectStar implements select_star(x, y).
func (e *Engine) SelectStar(x, y float64) { e.Guider.SelectStar(x, y) }

// AutoSelectStar implements auto_select_star().
func (e *Engine) AutoSelectStar() { e.Guider.AutoSelectStar() }

// SetLockPosition implements set_lock_position(x, y, exact).
func (e *Engine) SetLockPosition(x, y float64, exact bool) { e.Guider.SetLockPosition(x, y, exact) }

// StartGuiding implements start_guiding().
func (e *Engine) StartGuiding() { e.Guider.StartGuiding() }

// Stop implements stop().
func (e *Engine) Stop() { e.Guider.Stop() }

// ClearCalibration implements clear_calibration().
func (e *Engine) ClearCalibration() { e.Guider.ClearCalibration() }

// FlipRaCalibration implements flip_ra_calibration().
func (e *Engine) FlipRaCalibration() { e.Guider.FlipRaCalibration() }

// RunOnce drives exactly one capture-to-next-capture cycle. It is a no-op
// returning (false, nil) if not currently capturing; the composition root
// calls it in a loop (a plain for, or on a ticker) as its controller-thread
// driving loop. Returns ranFrame=true if a frame was actually captured and
// processed this call.
func (e *Engine) RunOnce(ctx context.Context) (ranFrame bool, err error) {
	if !e.capturing {
		return false, nil
	}

	subframe := e.nextSubframe()
	resp := <-e.PrimaryWorker.Enqueue(worker.ExposeRequest(e.Camera, time.Duration(e.Cfg.ExposureMs*float64(time.Millisecond)), subframe))
	if resp.Err != nil {
		e.capturing = false
		e.Guider.Abort()
		e.log.Debugf("capture failed: %v", resp.Err)
		return true, resp.Err
	}

	img := resp.Image
	switch e.Cfg.NoiseReduction {
	case NoiseMean2x2:
		img.ApplyMean2x2()
	case NoiseMedian3x3:
		img.ApplyMedian3x3()
	}

	moves, gerr := e.Guider.OnImage(img)
	if gerr != nil {
		e.log.Debugf("guider: %v", gerr)
	}
	if !e.paused {
		for _, mv := range moves {
			w := e.workerFor(mv)
			mresp := <-w.Enqueue(worker.MoveRequest(mv.Mount.Backend(), mv.Pulse))
			if mresp.Err != nil {
				e.log.Debugf("move failed: %v", mresp.Err)
			}
		}
	}

	if e.capturing && e.Cfg.TimeLapseMs > 0 {
		<-e.PrimaryWorker.Enqueue(worker.SleepRequest(time.Duration(e.Cfg.TimeLapseMs * float64(time.Millisecond))))
	}

	e.log.Guidef("frame: star=%+v moves=%d", e.Guider.CurrentStar(), len(moves))
	return true, nil
}

// nextSubframe computes the capture window for the next exposure: a box
// around the guider's last known star position, clamped to the camera's
// full frame, when Cfg.UseSubframes is set and a star is already being
// tracked; nil (full frame) otherwise - matching PHD2's "use subframes"
// option, which only narrows the read window once a star is locked.
func (e *Engine) nextSubframe() *phdimage.Rect {
	if !e.Cfg.UseSubframes {
		return nil
	}
	p := e.Guider.CurrentStar().Point
	if !p.Valid {
		return nil
	}
	half := e.Guider.FinderCfg.SearchRadius
	if half <= 0 {
		return nil
	}
	fw, fh := e.Camera.FullSize()
	x0, y0 := int(p.X)-half, int(p.Y)-half
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	w, h := 2*half, 2*half
	if x0+w > fw {
		w = fw - x0
	}
	if y0+h > fh {
		h = fh - y0
	}
	if w <= 0 || h <= 0 {
		return nil
	}
	return &phdimage.Rect{X: x0, Y: y0, W: w, H: h}
}

// Dither nudges the guider's lock position by a random offset scaled by
// scale (in units of the configured DitherScale), per the engine control
// surface's dither primitive: this module decides no dithering policy of
// its own - an external scheduler calls Dither between frames when and how
// much it sees fit. The offset is applied along the image X and Y axes,
// not rotated through the calibration angles; raOnly leaves the Y
// coordinate of the lock position unchanged and offsets only X.
func (e *Engine) Dither(scale float64, raOnly bool) {
	amount := scale * e.Cfg.DitherScale
	dx := e.signedUnit() * amount
	dy := 0.0
	if !raOnly {
		dy = e.signedUnit() * amount
	}
	lock := e.Guider.LockPosition()
	if !lock.Valid {
		return
	}
	e.Guider.SetLockPosition(lock.X+dx, lock.Y+dy, true)
}

// signedUnit draws a value in [-1, 1) via fastrand, the same RNG the
// teacher's stats package samples with.
func (e *Engine) signedUnit() float64 {
	const scale = 1 << 24
	return float64(e.ditherRng.Uint32n(scale))/float64(scale)*2 - 1
}

// workerFor routes a Move to the worker servicing its mount: the primary
// worker for Guider.Primary, the secondary worker (if configured) for
// Guider.Secondary, falling back to the primary worker otherwise.
func (e *Engine) workerFor(mv guider.Move) *worker.Worker {
	if e.Guider.Secondary != nil && mv.Mount == e.Guider.Secondary && e.SecondaryWorker != nil {
		return e.SecondaryWorker
	}
	return e.PrimaryWorker
}
