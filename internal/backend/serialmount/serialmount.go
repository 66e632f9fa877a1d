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

// Package serialmount implements mount.MountBackend over an LX200-style
// ASCII guide-pulse command sent across a serial link, grounded on
// github.com/jacobsa/go-serial/serial's OpenOptions/Open usage.
package serialmount

import (
	"fmt"
	"io"
	"time"

	"github.com/jacobsa/go-serial/serial"

	"github.com/starguide/phdcore/internal/mount"
)

// Options configures the serial link.
type Options struct {
	PortName string
	BaudRate uint
}

// Mount speaks `:Mg<dir><ms>#` (move-guide-rate direction for N
// milliseconds) to a mount's hand controller over a serial port.
type Mount struct {
	opts Options
	port io.ReadWriteCloser
}

// New records the connection options; Connect actually opens the port.
func New(opts Options) *Mount {
	return &Mount{opts: opts}
}

func (m *Mount) Connect() error {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              m.opts.PortName,
		BaudRate:              m.opts.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	})
	if err != nil {
		return fmt.Errorf("serialmount: open %s: %w", m.opts.PortName, err)
	}
	m.port = port
	return nil
}

func (m *Mount) Disconnect() error {
	if m.port == nil {
		return nil
	}
	err := m.port.Close()
	m.port = nil
	return err
}

// Pulse sends ":Mg<axis><ms>#" where axis is one of n/s/e/w, per the
// LX200 guide-pulse extension.
func (m *Mount) Pulse(dir mount.Direction, d time.Duration) error {
	if m.port == nil {
		return fmt.Errorf("serialmount: not connected")
	}
	axis, err := axisCode(dir)
	if err != nil {
		return err
	}
	cmd := fmt.Sprintf(":Mg%s%04d#", axis, d.Milliseconds())
	_, err = m.port.Write([]byte(cmd))
	return err
}

func axisCode(dir mount.Direction) (string, error) {
	switch dir {
	case mount.North:
		return "n", nil
	case mount.South:
		return "s", nil
	case mount.East:
		return "e", nil
	case mount.West:
		return "w", nil
	default:
		return "", fmt.Errorf("serialmount: unknown direction %v", dir)
	}
}

func (m *Mount) Capabilities() mount.Capabilities {
	return mount.Capabilities{CanPulseGuide: true, CanPulseDec: true, CanPulseRa: true}
}
