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

// Package calibration holds the two-axis calibration model - the angle and
// rate that map a pixel drift to a mount move - and the persisted calibration
// record a Mount loads at startup. Grounded on Scope::Calibration and the
// plain-old-data calibration params struct in mount.cpp/scope.cpp.
package calibration

import (
	"math"
	"time"
)

// Direction is one of the four guide-pulse directions. RA pulses are East or
// West, Dec pulses are North or South.
type Direction int

const (
	East Direction = iota
	West
	North
	South
)

func (d Direction) String() string {
	switch d {
	case East:
		return "East"
	case West:
		return "West"
	case North:
		return "North"
	case South:
		return "South"
	default:
		return "Unknown"
	}
}

// Axis reports which physical axis a direction moves.
func (d Direction) Axis() string {
	if d == East || d == West {
		return "RA"
	}
	return "Dec"
}

// Model is the live two-axis calibration: the angle (radians, image-space)
// each axis's positive pulse direction points in, and the rate in
// pixels/millisecond that axis moves the star at.
type Model struct {
	RaAngle  float64
	DecAngle float64
	RaRate   float64
	DecRate  float64
}

// CurrentSchemaVersion is bumped whenever Record's on-disk shape changes in
// a way that breaks backward compatibility.
const CurrentSchemaVersion = 1

// Record is the calibration file persisted to and loaded from disk (spec
// §6). A SchemaVersion mismatch on load means the file is ignored and the
// calibration is treated as invalid, never partially applied.
type Record struct {
	SchemaVersion int     `json:"schema_version"`
	RaAngle       float64 `json:"ra_angle"`
	DecAngle      float64 `json:"dec_angle"`
	RaRate        float64 `json:"ra_rate"`
	DecRate       float64 `json:"dec_rate"`
	CalDurationMs float64 `json:"cal_duration_ms"`
}

// Model extracts the live calibration model from a persisted record.
func (r Record) Model() Model {
	return Model{RaAngle: r.RaAngle, DecAngle: r.DecAngle, RaRate: r.RaRate, DecRate: r.DecRate}
}

// Valid reports whether r was loaded from a file written by this schema
// version and carries a usable (nonzero) rate on both axes.
func (r Record) Valid() bool {
	return r.SchemaVersion == CurrentSchemaVersion && r.RaRate > 0 && r.DecRate > 0
}

// Pulse is one guide pulse resulting from a move decomposition: a direction
// and a duration, already capped to the axis's configured maximum.
type Pulse struct {
	Dir      Direction
	Duration time.Duration
}

// Decompose splits a pixel drift (dx,dy) into a signed distance along each
// axis (positive toward the axis's East/South pulse direction) using the
// calibration model's angles. Split out from PixelToMoves so a Mount's
// guiding move can run its correction filters on the signed distances
// before converting to durations.
func Decompose(dx, dy float64, m Model) (raDistance, decDistance float64, raDir, decDir Direction) {
	theta := math.Atan2(dy, dx)
	h := math.Sqrt(dx*dx + dy*dy)

	raDistance = math.Cos(m.RaAngle-theta) * h
	decDistance = math.Cos(m.DecAngle-theta) * h

	raDir = West
	if raDistance > 0 {
		raDir = East
	}
	decDir = North
	if decDistance > 0 {
		decDir = South
	}
	return
}

// ToDuration converts a signed pixel distance to a pulse duration at the
// given rate (px/ms), capped at maxMs.
func ToDuration(distance, rate, maxMs float64) time.Duration {
	ms := capMs(durationMs(distance, rate), maxMs)
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}

// PixelToMoves decomposes a pixel drift (dx,dy) into up to one RA pulse and
// one Dec pulse, using the calibration model m and the per-axis maximum
// pulse durations. Always returns exactly two pulses (RA first, then Dec);
// a caller that wants to skip a zero or sub-threshold move does so itself.
// Used by callers with no filter stage to run between decomposition and
// duration conversion (e.g. tests); Mount's guiding move calls
// Decompose/ToDuration itself so its filters can run in between.
func PixelToMoves(dx, dy float64, m Model, maxRaMs, maxDecMs float64) [2]Pulse {
	raDistance, decDistance, raDir, decDir := Decompose(dx, dy, m)
	return [2]Pulse{
		{Dir: raDir, Duration: ToDuration(raDistance, m.RaRate, maxRaMs)},
		{Dir: decDir, Duration: ToDuration(decDistance, m.DecRate, maxDecMs)},
	}
}

func durationMs(distance, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return math.Abs(distance) / rate
}

func capMs(ms, max float64) float64 {
	if ms > max {
		return max
	}
	return ms
}
