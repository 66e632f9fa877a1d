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

// Package worker runs one long-lived goroutine per mount channel: it drains
// a strict FIFO of Expose/Move/Terminate requests, executing each to
// completion before starting the next, and posts the outcome back on a
// per-request channel for the controller goroutine to receive. Grounded on
// worker_thread.h/.cpp, replacing its Qt event-posting with plain Go
// channels, and on the teacher's ops.OpParallel (internal/ops/operator.go)
// for the channel-based completion-signaling idiom - adapted from a
// bounded fan-out pool to a single serialized FIFO, since requests must be
// executed in strict enqueue order and none may ever be dropped.
package worker

import (
	"context"
	"time"

	"github.com/starguide/phdcore/internal/calibration"
	"github.com/starguide/phdcore/internal/camera"
	"github.com/starguide/phdcore/internal/logging"
	"github.com/starguide/phdcore/internal/mount"
	"github.com/starguide/phdcore/internal/phderr"
	"github.com/starguide/phdcore/internal/phdimage"
)

// Op identifies the kind of a Request.
type Op int

const (
	OpTerminate Op = iota
	OpExpose
	OpMove
	OpSleep
)

// Request is one typed unit of work posted to a Worker's Queue. The done
// channel is buffered by one so the worker never blocks handing back a
// response whose receiver has already walked away.
type Request struct {
	Op Op

	Camera   camera.Camera
	Exposure time.Duration
	Subframe *phdimage.Rect

	Backend mount.MountBackend
	Pulse   calibration.Pulse

	SleepFor time.Duration

	done chan Response
}

// Response is the outcome posted back for a Request.
type Response struct {
	Image *phdimage.Image
	Err   error
}

func newRequest(op Op) *Request {
	return &Request{Op: op, done: make(chan Response, 1)}
}

// ExposeRequest builds an Expose request: duration, subframe, and the
// resulting image comes back on the Response instead of an out-parameter
// slot, since Go returns values rather than writing through pointers the
// caller pre-allocated.
func ExposeRequest(cam camera.Camera, exposure time.Duration, subframe *phdimage.Rect) *Request {
	r := newRequest(OpExpose)
	r.Camera, r.Exposure, r.Subframe = cam, exposure, subframe
	return r
}

// MoveRequest builds a Move request. The caller (guider/mount) has already
// decomposed the move into a concrete Pulse, whether for a calibration step
// or a guiding correction - the worker only knows how to execute a pulse, not
// why it was issued.
func MoveRequest(backend mount.MountBackend, pulse calibration.Pulse) *Request {
	r := newRequest(OpMove)
	r.Backend, r.Pulse = backend, pulse
	return r
}

// SleepRequest builds a request that simply sleeps for d before completing -
// used by the engine to honor a configured inter-frame delay on the worker.
// The sleep runs on the worker goroutine; Engine.RunOnce still waits for its
// response before returning.
func SleepRequest(d time.Duration) *Request {
	r := newRequest(OpSleep)
	r.SleepFor = d
	return r
}

// TerminateRequest builds the request that stops a Worker's Run loop after
// the currently in-flight request (if any) finishes - honored only once
// dequeued; there is no mid-request cancellation.
func TerminateRequest() *Request {
	return newRequest(OpTerminate)
}

// UIThreadOnly is implemented by backends that cannot safely run off the
// controller goroutine. A Worker detects this via a type assertion and
// proxies the Pulse call back to the controller instead of calling it
// in-worker.
type UIThreadOnly interface {
	RequiresUIThread() bool
}

// UIRequest is a Move proxied back to the controller goroutine because its
// backend implements UIThreadOnly. The controller must call Complete
// exactly once after servicing it.
type UIRequest struct {
	Backend mount.MountBackend
	Pulse   calibration.Pulse
	ack     chan error
}

// Complete signals the worker that this proxied pulse has been serviced.
func (u *UIRequest) Complete(err error) { u.ack <- err }

// Worker services one Queue until Terminate or Close. Exactly one Expose
// and, per backend, one Move are ever in flight, because the controller
// never enqueues the next one before the previous Response has been
// received - the Worker itself does not enforce this; it just executes
// whatever is popped next.
type Worker struct {
	queue   *Queue
	log     logging.Logger
	uiProxy chan *UIRequest
}

// New constructs a Worker around a fresh Queue.
func New(log logging.Logger) *Worker {
	if log == nil {
		log = logging.Nop{}
	}
	return &Worker{queue: NewQueue(), log: log, uiProxy: make(chan *UIRequest, 1)}
}

// Queue returns the worker's request FIFO.
func (w *Worker) Queue() *Queue { return w.queue }

// UIRequests returns the channel the controller must drain (in a select
// alongside its own event loop) to service backends that require the UI
// thread. Workers with no such backend never send on it.
func (w *Worker) UIRequests() <-chan *UIRequest { return w.uiProxy }

// Enqueue pushes r and returns the channel its Response will arrive on.
func (w *Worker) Enqueue(r *Request) <-chan Response {
	w.queue.Push(r)
	return r.done
}

// Run drains the queue until a Terminate request is serviced or the queue
// is closed with nothing left to pop. Intended to run in its own goroutine,
// one per mount channel.
func (w *Worker) Run(ctx context.Context) {
	for {
		r, ok := w.queue.Pop()
		if !ok {
			return
		}
		switch r.Op {
		case OpTerminate:
			r.done <- Response{}
			return
		case OpExpose:
			img, err := r.Camera.Capture(ctx, r.Exposure, r.Subframe)
			if err != nil {
				err = wrapCameraErr(err)
			}
			r.done <- Response{Image: img, Err: err}
		case OpMove:
			r.done <- Response{Err: w.pulse(r)}
		case OpSleep:
			time.Sleep(r.SleepFor)
			r.done <- Response{}
		}
	}
}

func (w *Worker) pulse(r *Request) error {
	if ui, ok := r.Backend.(UIThreadOnly); ok && ui.RequiresUIThread() {
		return w.proxyPulseToUI(r)
	}
	if err := r.Backend.Pulse(r.Pulse.Dir, r.Pulse.Duration); err != nil {
		return wrapMountErr(err)
	}
	return nil
}

func (w *Worker) proxyPulseToUI(r *Request) error {
	req := &UIRequest{Backend: r.Backend, Pulse: r.Pulse, ack: make(chan error, 1)}
	w.uiProxy <- req
	return <-req.ack
}

func wrapCameraErr(err error) error {
	if _, ok := err.(*phderr.Error); ok {
		return err
	}
	return phderr.New(phderr.CameraFailure, "%v", err)
}

func wrapMountErr(err error) error {
	if _, ok := err.(*phderr.Error); ok {
		return err
	}
	return phderr.New(phderr.MountFailure, "%v", err)
}
