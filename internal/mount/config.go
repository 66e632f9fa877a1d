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

// CalibrationConfig holds the tunables of the calibration state machine.
type CalibrationConfig struct {
	StepDurationMs     float64 `json:"step_duration_ms"`     // cal_duration_ms, default 750
	DistCritPx         float64 `json:"dist_crit_px"`         // absolute cap, default 25
	DistCritFrac       float64 `json:"dist_crit_frac"`       // fraction of image height, default 0.05
	MaxSteps           int     `json:"max_steps"`            // default 60
	BacklashDistancePx float64 `json:"backlash_distance_px"` // dec_backlash_distance, default 3
	BacklashMaxSteps   int     `json:"backlash_max_steps"`   // default 60
}

// DefaultCalibrationConfig returns PHD2's default calibration tunables.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		StepDurationMs:     750,
		DistCritPx:         25,
		DistCritFrac:       0.05,
		MaxSteps:           60,
		BacklashDistancePx: 3,
		BacklashMaxSteps:   60,
	}
}

// distCrit returns min(imageHeight * DistCritFrac, DistCritPx).
func (c CalibrationConfig) distCrit(imageHeightPx int) float64 {
	frac := float64(imageHeightPx) * c.DistCritFrac
	if frac < c.DistCritPx {
		return frac
	}
	return c.DistCritPx
}
