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

package serialmount

import (
	"bytes"
	"testing"
	"time"

	"github.com/starguide/phdcore/internal/mount"
)

type fakePort struct {
	bytes.Buffer
}

func (p *fakePort) Close() error { return nil }

func TestPulseWritesLX200GuideCommand(t *testing.T) {
	m := New(Options{PortName: "/dev/fake", BaudRate: 9600})
	fp := &fakePort{}
	m.port = fp

	if err := m.Pulse(mount.West, 350*time.Millisecond); err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	want := ":Mgw0350#"
	if got := fp.String(); got != want {
		t.Errorf("wrote %q; want %q", got, want)
	}
}

func TestPulseWithoutConnectReturnsError(t *testing.T) {
	m := New(Options{PortName: "/dev/fake"})
	if err := m.Pulse(mount.East, time.Millisecond); err == nil {
		t.Errorf("expected an error when not connected")
	}
}

func TestAxisCodeRejectsUnknownDirection(t *testing.T) {
	if _, err := axisCode(mount.Direction(99)); err == nil {
		t.Errorf("expected an error for an unknown direction")
	}
}
