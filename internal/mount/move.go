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

package mount

import (
	"github.com/starguide/phdcore/internal/calibration"
	"github.com/starguide/phdcore/internal/point"
)

// Move implements the guiding-move decomposition: drift from lock to
// current is split into RA/Dec pixel distances, run through the correction
// filters, gated by the Dec-mode policy, then converted into pulse
// durations. Returns the (up to two) pulses the caller should enqueue on
// the worker, never calling the backend directly - the mount is
// re-entrant-hostile and relies on its caller (the engine) to serialize
// moves against in-flight worker requests.
func (m *Mount) Move(current, lock point.Point) ([]calibration.Pulse, error) {
	if !m.connected || !m.calibrated || !m.guidingEnabled {
		return nil, nil
	}

	delta := current.Sub(lock)
	raPx, decPx, raDir, decDir := calibration.Decompose(delta.X, delta.Y, m.model)

	raPx = m.raFilter.Result(raPx)
	decPx = m.decFilter.Result(decPx)

	var pulses []calibration.Pulse

	raPulse := calibration.Pulse{Dir: raDir, Duration: calibration.ToDuration(raPx, m.model.RaRate, m.Cfg.MaxRaMs)}
	if raPulse.Duration > 0 {
		pulses = append(pulses, raPulse)
	}

	if m.decAllowed(decDir) {
		decPulse := calibration.Pulse{Dir: decDir, Duration: calibration.ToDuration(decPx, m.model.DecRate, m.Cfg.MaxDecMs)}
		if decPulse.Duration > 0 {
			pulses = append(pulses, decPulse)
		}
	}

	return pulses, nil
}

// decAllowed applies the Dec-mode policy: discard a Dec move whose
// direction contradicts NorthOnly/SouthOnly; in Off, always discard.
func (m *Mount) decAllowed(dir calibration.Direction) bool {
	switch m.Cfg.DecMode {
	case DecOff:
		return false
	case DecNorthOnly:
		return dir == calibration.North
	case DecSouthOnly:
		return dir == calibration.South
	default: // DecAuto
		return true
	}
}
