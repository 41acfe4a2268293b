// Copyright (c) 2024 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package lifecycle tracks the monotone start/stop progression of a
// long-lived object: Idle, Running, Stopping, Stopped, with an Errored
// terminal for failed transitions. Start and stop hooks run at most once.
package lifecycle

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// State is a position in the lifecycle progression.
type State int32

const (
	// Idle is the state before Start.
	Idle State = iota

	// Starting covers the duration of the Start hook.
	Starting

	// Running is the state between a successful Start and Stop.
	Running

	// Stopping covers the duration of the Stop hook.
	Stopping

	// Stopped is the terminal state after Stop.
	Stopped

	// Errored is the terminal state after a failed Start or Stop hook.
	Errored
)

// String returns a lowercase name for the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// ErrNotIdle reports a Start attempted outside the Idle state.
type ErrNotIdle struct {
	State State
}

func (e ErrNotIdle) Error() string {
	return fmt.Sprintf("cannot start from state %q", e.State)
}

// Once drives an object through the lifecycle states with at-most-once start
// and stop hooks. The observable state only moves forward.
type Once struct {
	state atomic.Int32

	mu  sync.Mutex
	err error

	// startedCh closes once Start has finished, successfully or not, or
	// once a Stop from Idle has ruled starting out.
	startedCh  chan struct{}
	stoppingCh chan struct{}
	stoppedCh  chan struct{}
}

// New returns a lifecycle controller in the Idle state.
func New() *Once {
	return &Once{
		startedCh:  make(chan struct{}),
		stoppingCh: make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// Start runs f and moves to Running if it succeeds, or to Errored if it
// fails. Unlike a sync.Once, a Start attempted in any state other than Idle
// does not wait for the first one: it fails immediately with ErrNotIdle so
// the caller can reject the duplicate call.
func (o *Once) Start(f func() error) error {
	if !o.state.CAS(int32(Idle), int32(Starting)) {
		return ErrNotIdle{State: State(o.state.Load())}
	}

	var err error
	if f != nil {
		err = f()
	}
	if err != nil {
		o.setErr(err)
		o.state.Store(int32(Errored))
		close(o.stoppingCh)
		close(o.stoppedCh)
	} else {
		o.state.Store(int32(Running))
	}
	close(o.startedCh)
	return err
}

// Stop runs f at most once and moves to Stopped. Stopping an Idle object
// skips the hook. Repeated stops are no-ops that return the first stop's
// error, and a stop that races another waits for it to finish.
func (o *Once) Stop(f func() error) error {
	if o.state.CAS(int32(Idle), int32(Stopped)) {
		close(o.startedCh)
		close(o.stoppingCh)
		close(o.stoppedCh)
		return nil
	}

	// A concurrent Start owns the state word until it finishes.
	<-o.startedCh

	if o.state.CAS(int32(Running), int32(Stopping)) {
		close(o.stoppingCh)
		var err error
		if f != nil {
			err = f()
		}
		if err != nil {
			o.setErr(err)
			o.state.Store(int32(Errored))
		} else {
			o.state.Store(int32(Stopped))
		}
		close(o.stoppedCh)
		return err
	}

	<-o.stoppedCh
	return o.loadErr()
}

// State returns the current lifecycle state.
func (o *Once) State() State {
	return State(o.state.Load())
}

// Running reports whether the object is currently Running.
func (o *Once) Running() bool {
	return o.State() == Running
}

// Stopping returns a channel that closes when the lifecycle enters Stopping
// or a terminal state. Background goroutines select on it to learn when to
// wind down.
func (o *Once) Stopping() <-chan struct{} {
	return o.stoppingCh
}

func (o *Once) setErr(err error) {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
}

func (o *Once) loadErr() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}
