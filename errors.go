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

package peersample

import (
	"errors"
	"fmt"
)

// ErrNoAvailablePeers is returned by Peer when the view is empty. The
// service may simply not have met anyone yet.
var ErrNoAvailablePeers = errors.New("no peers available in view")

// ErrInvalidConfig reports a configuration that violates the protocol's
// parameter constraints. The wrapped error enumerates every violation.
type ErrInvalidConfig struct {
	Err error
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid peer sampling configuration: %v", e.Err)
}

// Unwrap returns the underlying validation error(s).
func (e ErrInvalidConfig) Unwrap() error {
	return e.Err
}

// ErrAlreadyRunning is returned by Start when the service is already
// running.
type ErrAlreadyRunning string

func (e ErrAlreadyRunning) Error() string {
	return fmt.Sprintf("peer sampling service on %q is already running", string(e))
}

// ErrInvalidState reports an operation attempted in a lifecycle state that
// does not permit it, e.g. sampling a peer from a stopped service.
type ErrInvalidState struct {
	Op    string
	State string
}

func (e ErrInvalidState) Error() string {
	return fmt.Sprintf("cannot %s while service is %s", e.Op, e.State)
}
