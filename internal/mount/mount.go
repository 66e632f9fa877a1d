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

// Package mount wraps a MountBackend with the calibration state machine and
// the guiding move logic, grounded on mount.cpp's
// UpdateCalibrationState/BeginCalibration/Move. A Mount owns its own
// correction filters and its calibration in a strict tree-shaped ownership
// model - nothing above a Mount reaches into its filter chain or
// calibration state directly.
package mount

import (
	"math"
	"time"

	"github.com/starguide/phdcore/internal/calibration"
	"github.com/starguide/phdcore/internal/filter"
	"github.com/starguide/phdcore/internal/logging"
	"github.com/starguide/phdcore/internal/phderr"
	"github.com/starguide/phdcore/internal/point"
)

// Direction re-exports calibration.Direction so callers of this package
// never need to import calibration just to name a pulse direction.
type Direction = calibration.Direction

const (
	East  = calibration.East
	West  = calibration.West
	North = calibration.North
	South = calibration.South
)

// DecMode governs whether and which half of the Dec axis a Mount is
// permitted to move.
type DecMode int

const (
	DecOff DecMode = iota
	DecAuto
	DecNorthOnly
	DecSouthOnly
)

// Capabilities describes what a MountBackend supports.
type Capabilities struct {
	CanPulseGuide bool
	CanPulseDec   bool
	CanPulseRa    bool
}

// MountBackend is the hardware/driver collaborator a Mount drives: a pure
// external interface, with reference implementations living under
// internal/backend.
type MountBackend interface {
	Connect() error
	Disconnect() error
	Pulse(dir Direction, d time.Duration) error
	Capabilities() Capabilities
}

// Config holds the per-mount tunables.
type Config struct {
	MaxRaMs  float64 `json:"max_ra_ms"`
	MaxDecMs float64 `json:"max_dec_ms"`
	DecMode  DecMode `json:"dec_mode"`
}

// DefaultConfig returns reasonable defaults: generous per-pulse caps
// and Dec guiding enabled on both directions.
func DefaultConfig() Config {
	return Config{MaxRaMs: 2000, MaxDecMs: 2000, DecMode: DecAuto}
}

// Mount is a stateful wrapper around a MountBackend: it owns the
// calibration model, the per-axis filters, the calibration state machine,
// and the guiding-move decomposition.
type Mount struct {
	backend MountBackend
	log     logging.Logger

	Cfg    Config
	CalCfg CalibrationConfig

	raFilter  filter.Chain
	decFilter filter.Chain

	connected      bool
	calibrated     bool
	guidingEnabled bool
	model          calibration.Model

	cal           calState
	imageHeightPx int
	lastStep      CalibrationStep

	// Secondary is an optional slow mount paired with a fast primary (e.g. an
	// AO unit). Nil means this Mount has no secondary. Nothing in this
	// package reads it: Move never hands drift to the secondary.
	Secondary *Mount
}

// calState is the calibration state machine's working state.
type calState struct {
	dir               calibration.Direction
	active            bool // false == calibration not in progress (cal_dir == None)
	step              int
	start             point.Point
	backlashRemaining int
}

// New constructs a Mount around a backend. Guiding is disabled until a
// valid calibration is loaded or completed.
func New(backend MountBackend, cfg Config, calCfg CalibrationConfig, log logging.Logger) *Mount {
	if log == nil {
		log = logging.Nop{}
	}
	return &Mount{backend: backend, Cfg: cfg, CalCfg: calCfg, log: log}
}

// SetFilters installs the RA and Dec correction filter chains.
func (m *Mount) SetFilters(ra, dec filter.Chain) {
	m.raFilter, m.decFilter = ra, dec
}

// ResetFilters clears the correction filters' internal history (e.g. the
// Hysteresis and Lowpass stages' remembered samples) without discarding the
// chains themselves. Called when a star loss drops the guider back to
// Uninitialized, so stale filter state never leaks into the next lock.
func (m *Mount) ResetFilters() {
	m.raFilter.Reset()
	m.decFilter.Reset()
}

// ClearCalibration discards the current calibration model, per the engine
// control surface's clear_calibration(). Guiding is disabled until a fresh
// calibration completes or another model is loaded.
func (m *Mount) ClearCalibration() {
	m.model = calibration.Model{}
	m.calibrated = false
	m.guidingEnabled = false
}

// FlipRaCalibration adds pi to the RA angle, normalized to (-pi, pi], per
// the engine control surface's flip_ra_calibration() - used after a
// meridian flip, where the mount's RA motor sense reverses relative to the
// sky without the Dec axis or the rates changing.
func (m *Mount) FlipRaCalibration() {
	a := m.model.RaAngle + math.Pi
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	m.model.RaAngle = a
}

// LoadCalibration installs a previously persisted calibration model,
// skipping the calibration state machine entirely.
func (m *Mount) LoadCalibration(model calibration.Model) {
	m.model = model
	m.calibrated = true
	m.guidingEnabled = true
}

func (m *Mount) Calibration() calibration.Model { return m.model }
func (m *Mount) Calibrated() bool               { return m.calibrated }
func (m *Mount) Connected() bool                { return m.connected }

// Backend returns the underlying MountBackend, so a caller that only holds a
// *Mount (e.g. the engine routing a guider.Move) can still reach the
// backend a worker.MoveRequest needs.
func (m *Mount) Backend() MountBackend { return m.backend }

// Calibrating reports whether a calibration run is currently in progress.
func (m *Mount) Calibrating() bool { return m.cal.active }

// SetGuidingEnabled toggles whether Move will issue pulses.
func (m *Mount) SetGuidingEnabled(enabled bool) { m.guidingEnabled = enabled }

// Connect opens the backend connection.
func (m *Mount) Connect() error {
	if err := m.backend.Connect(); err != nil {
		return phderr.New(phderr.MountFailure, "connect: %v", err)
	}
	m.connected = true
	return nil
}

// Disconnect closes the backend connection.
func (m *Mount) Disconnect() error {
	if err := m.backend.Disconnect(); err != nil {
		return phderr.New(phderr.MountFailure, "disconnect: %v", err)
	}
	m.connected = false
	return nil
}
