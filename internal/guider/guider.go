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

// Package guider sequences star selection, mount calibration, and guiding,
// grounded on GuiderOneStar::UpdateGuideState in guider_onestar.cpp. The
// guider holds a non-owning reference to its mount(s) and exclusively owns
// the lock position, in a strict tree-shaped ownership model: nothing below
// the guider reaches back up to it.
package guider

import (
	"github.com/starguide/phdcore/internal/calibration"
	"github.com/starguide/phdcore/internal/logging"
	"github.com/starguide/phdcore/internal/mount"
	"github.com/starguide/phdcore/internal/phdimage"
	"github.com/starguide/phdcore/internal/point"
	"github.com/starguide/phdcore/internal/star"
)

// State is a node of the guider state machine.
type State int

const (
	Uninitialized State = iota
	Selecting
	Selected
	CalibratingPrimary
	CalibratingSecondary
	Calibrated
	Guiding
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Selecting:
		return "Selecting"
	case Selected:
		return "Selected"
	case CalibratingPrimary:
		return "CalibratingPrimary"
	case CalibratingSecondary:
		return "CalibratingSecondary"
	case Calibrated:
		return "Calibrated"
	case Guiding:
		return "Guiding"
	default:
		return "Unknown"
	}
}

// Move is one pulse the guider wants issued this tick, tagged with which
// mount it belongs to so the engine can route it to the right worker/
// backend for per-mount in-flight accounting.
type Move struct {
	Mount *mount.Mount
	Pulse calibration.Pulse
}

// Guider sequences star selection, calibration, and guiding. It owns the
// lock position and a non-owning reference to its mount(s).
type Guider struct {
	Primary   *mount.Mount
	Secondary *mount.Mount // nil if this guider has no secondary mount
	FinderCfg star.FinderConfig

	log logging.Logger

	state   State
	lock    point.Point
	current star.Star
	paused  bool

	startGuidingRequested bool
	stopRequested         bool
}

// New constructs a Guider. secondary may be nil.
func New(primary, secondary *mount.Mount, finderCfg star.FinderConfig, log logging.Logger) *Guider {
	if log == nil {
		log = logging.Nop{}
	}
	return &Guider{Primary: primary, Secondary: secondary, FinderCfg: finderCfg, log: log, state: Uninitialized}
}

func (g *Guider) State() State              { return g.state }
func (g *Guider) LockPosition() point.Point { return g.lock }
func (g *Guider) CurrentStar() star.Star    { return g.current }
func (g *Guider) Paused() bool              { return g.paused }

// Pause toggles display-only mode: the star position still updates, but no
// moves are issued and no Calibrating state advances.
func (g *Guider) Pause(p bool) { g.paused = p }

// StartGuiding requests a transition to calibration (or straight to
// guiding, if already calibrated); it takes effect on the next on_image
// call.
func (g *Guider) StartGuiding() { g.startGuidingRequested = true }

// Stop requests the stop() state mapping below; it takes effect on the
// next on_image call.
func (g *Guider) Stop() { g.stopRequested = true }

// Abort drops the guider straight to Uninitialized, bypassing the per-tick
// on_image flow entirely. Used by the engine when the capture itself fails:
// there is no new image to feed the star finder, so the ordinary stop()
// mapping table does not apply.
func (g *Guider) Abort() {
	g.startGuidingRequested = false
	g.stopRequested = false
	g.resetToUninitialized()
}

// SelectStar implements the engine control surface's select_star(x, y):
// manually pin the lock position and mark the guider Selected without going
// through AutoSelect, mirroring PHD2's GuiderOneStar::SetLockPosition +
// manual star selection path.
func (g *Guider) SelectStar(x, y float64) {
	p := point.New(x, y)
	g.lock = p
	g.current = star.Star{Point: p, LastResult: star.Ok}
	g.state = Selected
}

// AutoSelectStar implements auto_select_star(): drop back to Selecting so
// the next on_image call runs the full-frame AutoSelect search.
func (g *Guider) AutoSelectStar() { g.state = Selecting }

// SetLockPosition implements set_lock_position(x, y, exact). The exact flag
// distinguishes "pin here precisely" from "snap to the nearest detected
// star", a UI nicety with no effect on the tracked pixel math here, so both
// modes set the same coordinate.
func (g *Guider) SetLockPosition(x, y float64, exact bool) {
	g.lock = point.New(x, y)
}

// ClearCalibration drops both mounts' calibration, per the engine control
// surface's clear_calibration().
func (g *Guider) ClearCalibration() {
	g.Primary.ClearCalibration()
	if g.Secondary != nil {
		g.Secondary.ClearCalibration()
	}
}

// FlipRaCalibration implements flip_ra_calibration(): adds pi to the
// primary's RA angle, normalized to (-pi, pi].
func (g *Guider) FlipRaCalibration() { g.Primary.FlipRaCalibration() }

// OnImage drives the state machine forward by one frame. It returns the
// moves the caller (engine) should enqueue on the worker for this tick, and
// a non-nil error only when a star is lost or a calibration aborts.
func (g *Guider) OnImage(img *phdimage.Image) ([]Move, error) {
	seed := g.current.Point
	if !seed.Valid {
		seed = g.lock
	}

	switch g.state {
	case Uninitialized:
		g.current = star.Star{}
		g.lock = point.Invalid()
		g.state = Selecting
		return nil, nil

	case Selecting:
		s, found := star.AutoSelect(img, g.FinderCfg)
		if !found {
			return nil, nil
		}
		g.current = s
		g.lock = s.Point
		g.state = Selected
		return nil, nil
	}

	// Every remaining state tracks an already-selected star at the last
	// known position (or the lock, just after entering); losing it drops
	// the guider all the way back to Uninitialized.
	if !seed.Valid {
		seed = g.lock
	}
	s := star.Find(img, seed.X, seed.Y, g.FinderCfg)
	if !s.Found() {
		g.resetToUninitialized()
		return nil, s.LostError()
	}
	g.current = s

	if g.stopRequested {
		g.stopRequested = false
		g.applyStop()
		return nil, nil
	}

	switch g.state {
	case Selected:
		if g.paused {
			return nil, nil
		}
		if !g.startGuidingRequested {
			return nil, nil
		}
		g.startGuidingRequested = false
		return g.beginCalibration(img)

	case CalibratingPrimary:
		if g.paused {
			return nil, nil
		}
		return g.stepCalibration(g.Primary, CalibratingSecondary, img)

	case CalibratingSecondary:
		if g.paused {
			return nil, nil
		}
		next := Calibrated
		return g.stepCalibration(g.Secondary, next, img)

	case Calibrated:
		g.lock = s.Point
		g.state = Guiding
		return nil, nil

	case Guiding:
		if g.paused {
			return nil, nil
		}
		pulses, err := g.Primary.Move(s.Point, g.lock)
		if err != nil {
			return nil, err
		}
		moves := make([]Move, 0, len(pulses))
		for _, p := range pulses {
			moves = append(moves, Move{Mount: g.Primary, Pulse: p})
		}
		return moves, nil
	}

	return nil, nil
}

// beginCalibration starts the primary's calibration, skipping straight past
// already-calibrated stages: a mount that is already calibrated goes
// directly to CalibratingSecondary (or Calibrated, if there is no
// secondary).
func (g *Guider) beginCalibration(img *phdimage.Image) ([]Move, error) {
	if g.Primary.Calibrated() {
		return g.enterCalibratingSecondaryOrCalibrated(img)
	}
	step, err := g.Primary.BeginCalibration(g.current.Point, img.H)
	if err != nil {
		g.resetToUninitialized()
		return nil, err
	}
	g.state = CalibratingPrimary
	if step.Pulse == nil {
		return nil, nil
	}
	return []Move{{Mount: g.Primary, Pulse: *step.Pulse}}, nil
}

func (g *Guider) enterCalibratingSecondaryOrCalibrated(img *phdimage.Image) ([]Move, error) {
	if g.Secondary == nil {
		g.state = Calibrated
		return nil, nil
	}
	if g.Secondary.Calibrated() {
		g.state = Calibrated
		return nil, nil
	}
	step, err := g.Secondary.BeginCalibration(g.current.Point, img.H)
	if err != nil {
		g.resetToUninitialized()
		return nil, err
	}
	g.state = CalibratingSecondary
	if step.Pulse == nil {
		return nil, nil
	}
	return []Move{{Mount: g.Secondary, Pulse: *step.Pulse}}, nil
}

// stepCalibration advances m's calibration state machine by one tick,
// transitioning the guider to nextOnDone when m reports completion.
func (g *Guider) stepCalibration(m *mount.Mount, nextOnDone State, img *phdimage.Image) ([]Move, error) {
	step, err := m.UpdateCalibration(g.current.Point, img.H)
	if err != nil {
		g.resetToUninitialized()
		return nil, err
	}
	if step.Done {
		if nextOnDone == CalibratingSecondary {
			return g.enterCalibratingSecondaryOrCalibrated(img)
		}
		g.state = nextOnDone
		return nil, nil
	}
	if step.Pulse == nil {
		return nil, nil
	}
	return []Move{{Mount: m, Pulse: *step.Pulse}}, nil
}

func (g *Guider) resetToUninitialized() {
	g.state = Uninitialized
	g.lock = point.Invalid()
	g.current = star.Star{}
	g.Primary.ResetFilters()
	if g.Secondary != nil {
		g.Secondary.ResetFilters()
	}
}

// applyStop implements the stop() state mapping table. The
// CalibratingSecondary -> CalibratingPrimary mapping looks like it loses
// progress, dropping straight back to re-running the primary's calibration
// instead of resuming the secondary; preserved verbatim from PHD2, flagged
// but not fixed.
func (g *Guider) applyStop() {
	switch g.state {
	case CalibratingPrimary:
		g.state = Uninitialized
	case CalibratingSecondary:
		g.state = CalibratingPrimary
	case Calibrated, Guiding:
		g.state = Selected
	default: // Uninitialized, Selecting, Selected: unchanged
	}
}
