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

// Package camera declares the external capture device interface. Concrete
// cameras - real hardware or the in-memory simulator under
// internal/backend/simcamera - live outside this module's core; the worker
// and engine depend only on this interface.
package camera

import (
	"context"
	"time"

	"github.com/starguide/phdcore/internal/phdimage"
)

// Camera captures exposures. Capture may block up to exposure+readout and
// must respect ctx cancellation where the underlying driver allows it.
type Camera interface {
	Capture(ctx context.Context, exposure time.Duration, subframe *phdimage.Rect) (*phdimage.Image, error)
	HasShutter() bool
	FullSize() (w, h int)
}
