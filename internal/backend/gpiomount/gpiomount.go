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

// Package gpiomount implements mount.MountBackend over a 4-pin ST-4
// autoguider port: one GPIO output per direction, driven high for the pulse
// duration and low again. Grounded on periph.io/x/host/v3's init pattern and
// periph.io/x/conn/v3/gpio/gpioreg's ByName lookup.
package gpiomount

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/starguide/phdcore/internal/mount"
)

// PinNames names the four ST-4 output pins by periph.io pin name (e.g.
// "GPIO17"), one per guide direction.
type PinNames struct {
	East, West, North, South string
}

// Mount drives four GPIO pins as an ST-4 autoguider interface.
type Mount struct {
	pins map[mount.Direction]gpio.PinIO
}

// New initializes the periph.io host and resolves the four named pins to
// gpio.PinIO handles. Returns an error if periph init fails or any pin name
// does not resolve.
func New(names PinNames) (*Mount, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpiomount: periph host init: %w", err)
	}

	lookup := map[mount.Direction]string{
		mount.East:  names.East,
		mount.West:  names.West,
		mount.North: names.North,
		mount.South: names.South,
	}
	pins := make(map[mount.Direction]gpio.PinIO, 4)
	for dir, name := range lookup {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("gpiomount: pin %q not found for %s", name, dir)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("gpiomount: init pin %q low: %w", name, err)
		}
		pins[dir] = p
	}
	return &Mount{pins: pins}, nil
}

func (m *Mount) Connect() error    { return nil }
func (m *Mount) Disconnect() error { return m.allLow() }

func (m *Mount) allLow() error {
	for dir, p := range m.pins {
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("gpiomount: pin for %s low: %w", dir, err)
		}
	}
	return nil
}

// Pulse drives the pin for dir high for d, then low again.
func (m *Mount) Pulse(dir mount.Direction, d time.Duration) error {
	p, ok := m.pins[dir]
	if !ok {
		return fmt.Errorf("gpiomount: no pin configured for %s", dir)
	}
	if err := p.Out(gpio.High); err != nil {
		return fmt.Errorf("gpiomount: pulse %s high: %w", dir, err)
	}
	time.Sleep(d)
	if err := p.Out(gpio.Low); err != nil {
		return fmt.Errorf("gpiomount: pulse %s low: %w", dir, err)
	}
	return nil
}

func (m *Mount) Capabilities() mount.Capabilities {
	return mount.Capabilities{CanPulseGuide: true, CanPulseDec: true, CanPulseRa: true}
}
