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

// Package clock abstracts the passage of time so periodic work can be driven
// by a programmable clock in tests.
package clock

import "time"

// Clock tells time and makes timers.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Timer returns a timer that fires once, d from now.
	Timer(d time.Duration) Timer
}

// Timer fires once on its channel, unless stopped or reset first.
type Timer interface {
	// C returns the channel the timer fires on.
	C() <-chan time.Time

	// Stop disarms the timer. It reports whether the timer was still armed.
	Stop() bool

	// Reset re-arms the timer to fire d from now. It reports whether the
	// timer was still armed.
	Reset(d time.Duration) bool
}

// System is a Clock backed by the time package.
type System struct{}

var _ Clock = System{}

// NewSystem returns the real-time clock.
func NewSystem() System {
	return System{}
}

// Now returns time.Now.
func (System) Now() time.Time { return time.Now() }

// Timer returns a timer backed by time.NewTimer.
func (System) Timer(d time.Duration) Timer {
	return &systemTimer{t: time.NewTimer(d)}
}

type systemTimer struct {
	t *time.Timer
}

func (t *systemTimer) C() <-chan time.Time        { return t.t.C }
func (t *systemTimer) Stop() bool                 { return t.t.Stop() }
func (t *systemTimer) Reset(d time.Duration) bool { return t.t.Reset(d) }
