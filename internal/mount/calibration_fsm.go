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
	"time"

	"github.com/starguide/phdcore/internal/calibration"
	"github.com/starguide/phdcore/internal/phderr"
	"github.com/starguide/phdcore/internal/point"
)

// CalibrationStep is the outcome of one UpdateCalibration tick: at most one
// pulse to issue, and whether the whole two-axis calibration just completed.
type CalibrationStep struct {
	Pulse *calibration.Pulse
	Done  bool
}

// BeginCalibration starts a fresh calibration run and returns the first
// pulse to issue. Preconditions (connected, a valid current position) are
// spec'd in §4.4 and enforced by the caller via the returned error.
func (m *Mount) BeginCalibration(current point.Point, imageHeightPx int) (CalibrationStep, error) {
	if !m.connected {
		return CalibrationStep{}, phderr.New(phderr.NotConnected, "begin calibration: mount not connected")
	}
	if !current.Valid {
		return CalibrationStep{}, phderr.New(phderr.InvalidArgument, "begin calibration: current position invalid")
	}
	m.calibrated = false
	m.imageHeightPx = imageHeightPx
	m.cal = calState{
		dir:               calibration.West,
		active:            true,
		step:              0,
		start:             current,
		backlashRemaining: m.CalCfg.BacklashMaxSteps,
	}
	// The freshly-entered WEST phase falls straight through to its first
	// outward-phase evaluation below, grounded on UpdateCalibrationState in
	// mount.cpp, which assigns m_calibrationDirection = WEST and continues
	// into the same distance check rather than returning early; this is
	// what makes five WEST pulses (not four) land on ra_rate=0.05 when
	// cal_step is incremented per outward tick.
	if err := m.stepCalibration(current); err != nil {
		return CalibrationStep{}, err
	}
	return m.lastStep, nil
}

// UpdateCalibration advances the calibration state machine by one tick,
// given the most recently measured star position and the image height in
// pixels (used for dist_crit).
func (m *Mount) UpdateCalibration(pos point.Point, imageHeightPx int) (CalibrationStep, error) {
	if !m.cal.active {
		return CalibrationStep{}, phderr.New(phderr.IllegalStateTransition, "update calibration: no calibration in progress")
	}
	m.imageHeightPx = imageHeightPx
	if err := m.stepCalibration(pos); err != nil {
		return CalibrationStep{}, err
	}
	return m.lastStep, nil
}

// stepCalibration runs exactly one tick of the state machine and stashes its
// result in m.lastStep, so BeginCalibration's fallthrough tick and
// UpdateCalibration's ordinary ticks share one implementation.
func (m *Mount) stepCalibration(pos point.Point) error {
	distCrit := m.CalCfg.distCrit(m.imageHeightPx)
	d := m.cal.start.Distance(pos)

	switch {
	case m.cal.dir == calibration.North && m.cal.backlashRemaining > 0:
		if d >= m.CalCfg.BacklashDistancePx {
			m.cal.step = 1
			m.cal.backlashRemaining = 0
			m.cal.start = pos
		} else {
			m.cal.backlashRemaining--
			if m.cal.backlashRemaining <= 0 {
				m.abortCalibration()
				return phderr.New(phderr.CalibrationFailed, "cannot clear Dec backlash").WithReason(phderr.ReasonBacklashStuck)
			}
		}

	case m.cal.dir == calibration.West || m.cal.dir == calibration.North:
		if d >= distCrit {
			angle := m.cal.start.Angle(pos)
			rate := d / calibrationTimeMs(m.cal.step, m.CalCfg.StepDurationMs)
			if m.cal.dir == calibration.West {
				m.model.RaAngle, m.model.RaRate = angle, rate
				m.cal.dir = calibration.East
			} else {
				m.model.DecAngle, m.model.DecRate = angle, rate
				m.cal.dir = calibration.South
			}
			m.lastStep = CalibrationStep{} // no pulse this tick; next tick begins the return phase
			return nil
		}
		if m.cal.step >= m.CalCfg.MaxSteps {
			axis := "RA"
			if m.cal.dir == calibration.North {
				axis = "Dec"
			}
			m.abortCalibration()
			return phderr.New(phderr.CalibrationFailed, "%s calibration failed: star did not move enough", axis).WithReason(phderr.ReasonNotMoved)
		}
		m.cal.step++

	default: // East or South: return phase
		m.cal.step--
		if m.cal.step == 0 {
			if m.cal.dir == calibration.East {
				m.cal.dir = calibration.North
				m.cal.start = pos
			} else {
				m.completeCalibration()
				return nil
			}
		}
	}

	m.lastStep = CalibrationStep{
		Pulse: &calibration.Pulse{Dir: m.cal.dir, Duration: time.Duration(m.CalCfg.StepDurationMs * float64(time.Millisecond))},
	}
	return nil
}

func (m *Mount) completeCalibration() {
	m.cal = calState{}
	m.calibrated = true
	m.guidingEnabled = true
	m.lastStep = CalibrationStep{Done: true}
}

func (m *Mount) abortCalibration() {
	m.cal = calState{}
	m.lastStep = CalibrationStep{}
}

func calibrationTimeMs(steps int, stepDurationMs float64) float64 {
	return float64(steps) * stepDurationMs
}
