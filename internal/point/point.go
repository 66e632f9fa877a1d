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

// Package point provides the 2-D pixel-space point type shared by the star
// finder, the mount, and the guider. A point carries a validity flag;
// operations on an invalid point propagate invalidity rather than panicking.
package point

import "math"

// Point is a position in image pixel space. The zero value is invalid.
type Point struct {
	X, Y  float64
	Valid bool
}

// New returns a valid point at (x, y).
func New(x, y float64) Point {
	return Point{X: x, Y: y, Valid: true}
}

// Invalid returns the invalid point.
func Invalid() Point {
	return Point{}
}

// Sub returns p-q. The result is invalid if either operand is invalid.
func (p Point) Sub(q Point) Point {
	if !p.Valid || !q.Valid {
		return Invalid()
	}
	return New(p.X-q.X, p.Y-q.Y)
}

// Add returns p+q. The result is invalid if either operand is invalid.
func (p Point) Add(q Point) Point {
	if !p.Valid || !q.Valid {
		return Invalid()
	}
	return New(p.X+q.X, p.Y+q.Y)
}

// Scale returns p scaled by k. The result is invalid if p is invalid.
func (p Point) Scale(k float64) Point {
	if !p.Valid {
		return Invalid()
	}
	return New(p.X*k, p.Y*k)
}

// Distance returns the Euclidean distance from p to q.
// Returns 0 if either point is invalid.
func (p Point) Distance(q Point) float64 {
	if !p.Valid || !q.Valid {
		return 0
	}
	dx, dy := q.X-p.X, q.Y-p.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Angle returns atan2(q.Y-p.Y, q.X-p.X), the direction from p to q.
// Returns 0 for coincident points, matching the PHD2 Point::Angle
// special case for dX==0 && dY==0 (atan2 behavior at the origin is
// implementation-defined in some libm's, so this is made explicit).
func (p Point) Angle(q Point) float64 {
	if !p.Valid || !q.Valid {
		return 0
	}
	dx, dy := q.X-p.X, q.Y-p.Y
	if dx == 0 && dy == 0 {
		return 0
	}
	return math.Atan2(dy, dx)
}
