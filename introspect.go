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
	"go.uber.org/peersample/api/peer"
	"go.uber.org/peersample/view"
)

// Status is a point-in-time snapshot of a service for debugging and
// introspection.
type Status struct {
	// State is the lifecycle state name: idle, starting, running, stopping,
	// stopped, or errored.
	State string

	// Self is the identity the node advertises to peers.
	Self peer.Identifier

	// View is a copy of the current view entries in order.
	View []view.Entry
}

// Introspect returns a consistent snapshot of the service's state and view.
func (s *Service) Introspect() Status {
	state := s.life.State().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State: state,
		Self:  s.self,
		View:  s.view.Entries(),
	}
}
