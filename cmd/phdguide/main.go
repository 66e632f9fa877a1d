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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/starguide/phdcore/internal/backend/gpiomount"
	"github.com/starguide/phdcore/internal/backend/serialmount"
	"github.com/starguide/phdcore/internal/backend/simcamera"
	"github.com/starguide/phdcore/internal/calibration"
	"github.com/starguide/phdcore/internal/camera"
	"github.com/starguide/phdcore/internal/config"
	"github.com/starguide/phdcore/internal/engine"
	"github.com/starguide/phdcore/internal/guider"
	"github.com/starguide/phdcore/internal/logging"
	"github.com/starguide/phdcore/internal/mount"
	"github.com/starguide/phdcore/internal/worker"
)

const version = "0.1.0"

var configPath = flag.String("config", "phdguide.json", "path to the app config `file` (finder/mount/calibration/engine tunables)")
var calPath = flag.String("calibration", "calibration.json", "path to the persisted calibration `file`")
var logPath = flag.String("log", "%auto", "save log output to `file`. `%auto` replaces suffix of -calibration with .log")

var cameraKind = flag.String("camera", "sim", "capture device: sim")
var simW = flag.Int64("simW", 640, "sim camera frame width")
var simH = flag.Int64("simH", 480, "sim camera frame height")

var mountKind = flag.String("mount", "sim", "mount backend: sim, gpio, serial")
var serialPort = flag.String("serialPort", "/dev/ttyUSB0", "serial port for -mount=serial")
var serialBaud = flag.Int64("serialBaud", 9600, "serial baud rate for -mount=serial")
var gpioEast = flag.String("gpioEast", "GPIO5", "GPIO pin name for the East pulse, -mount=gpio")
var gpioWest = flag.String("gpioWest", "GPIO6", "GPIO pin name for the West pulse, -mount=gpio")
var gpioNorth = flag.String("gpioNorth", "GPIO13", "GPIO pin name for the North pulse, -mount=gpio")
var gpioSouth = flag.String("gpioSouth", "GPIO19", "GPIO pin name for the South pulse, -mount=gpio")

var frames = flag.Int64("frames", 0, "stop after this many frames, 0=run until interrupted")

func main() {
	flag.Parse()

	var debugWriter io.Writer = os.Stdout
	if *logPath == "%auto" {
		*logPath = strings.TrimSuffix(*calPath, filepath.Ext(*calPath)) + ".log"
	}
	if *logPath != "" {
		if f, err := os.Create(*logPath); err != nil {
			fmt.Fprintf(debugWriter, "could not create log file %s: %v\n", *logPath, err)
		} else {
			defer f.Close()
			debugWriter = io.MultiWriter(debugWriter, f)
		}
	}
	log := logging.NewWriterLogger(debugWriter, debugWriter)
	log.Debugf("phdguide %s starting", version)

	cfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	cam, err := buildCamera()
	if err != nil {
		fmt.Fprintf(os.Stderr, "camera: %v\n", err)
		os.Exit(1)
	}

	backend, err := buildMountBackend()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mount: %v\n", err)
		os.Exit(1)
	}

	primary := mount.New(backend, cfg.Mount, cfg.Cal, log)
	if err := primary.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "mount connect: %v\n", err)
		os.Exit(1)
	}
	defer primary.Disconnect()

	rec, err := config.LoadCalibration(*calPath)
	if err != nil {
		log.Debugf("calibration load: %v", err)
	} else if rec.Valid() {
		primary.LoadCalibration(rec.Model())
		log.Debugf("loaded calibration from %s", *calPath)
	}

	g := guider.New(primary, nil, cfg.Finder, log)
	w := worker.New(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	e := engine.New(cam, g, w, nil, cfg.Engine, log)
	e.StartCapturing()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ran := int64(0)
	for e.Capturing() {
		select {
		case <-sigCh:
			log.Debugf("interrupted, stopping capture")
			e.StopCapturing()
			continue
		default:
		}
		if _, err := e.RunOnce(ctx); err != nil {
			log.Debugf("frame error: %v", err)
		}
		ran++
		if *frames > 0 && ran >= *frames {
			e.StopCapturing()
		}
	}

	<-w.Enqueue(worker.TerminateRequest())

	if primary.Calibrated() {
		model := primary.Calibration()
		rec := calibration.Record{
			RaAngle:       model.RaAngle,
			DecAngle:      model.DecAngle,
			RaRate:        model.RaRate,
			DecRate:       model.DecRate,
			CalDurationMs: cfg.Cal.StepDurationMs,
		}
		if err := config.SaveCalibration(*calPath, rec); err != nil {
			log.Debugf("calibration save: %v", err)
		}
	}
	log.Debugf("phdguide exiting after %d frames", ran)
}

func buildCamera() (camera.Camera, error) {
	switch *cameraKind {
	case "sim":
		return simcamera.New(int(*simW), int(*simH)), nil
	default:
		return nil, fmt.Errorf("unknown -camera %q", *cameraKind)
	}
}

func buildMountBackend() (mount.MountBackend, error) {
	switch *mountKind {
	case "sim":
		return &noopBackend{}, nil
	case "serial":
		m := serialmount.New(serialmount.Options{PortName: *serialPort, BaudRate: uint(*serialBaud)})
		if err := m.Connect(); err != nil {
			return nil, err
		}
		return m, nil
	case "gpio":
		return gpiomount.New(gpiomount.PinNames{East: *gpioEast, West: *gpioWest, North: *gpioNorth, South: *gpioSouth})
	default:
		return nil, fmt.Errorf("unknown -mount %q", *mountKind)
	}
}

// noopBackend is a MountBackend that accepts pulses without driving any
// hardware, for -mount=sim demo runs against the simulated camera.
type noopBackend struct{}

func (noopBackend) Connect() error    { return nil }
func (noopBackend) Disconnect() error { return nil }
func (noopBackend) Pulse(mount.Direction, time.Duration) error {
	return nil
}
func (noopBackend) Capabilities() mount.Capabilities {
	return mount.Capabilities{CanPulseGuide: true, CanPulseDec: true, CanPulseRa: true}
}
