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
	"time"

	"go.uber.org/multierr"
)

// Config carries the protocol parameters of one node. It is immutable for
// the lifetime of the service.
type Config struct {
	// Bind is the TCP address the service listens on for inbound exchanges.
	// It doubles as the node's identity advertised to other peers, so it
	// must be reachable from them. A port of 0 picks a free port; the
	// identity then reflects the bound port.
	Bind string

	// Push includes this node's view in outgoing exchange requests. A node
	// that does not push still answers pulls.
	Push bool

	// Pull requests the partner's view during exchanges and merges the
	// response.
	Pull bool

	// Interval is the period between exchange cycles.
	Interval time.Duration

	// Capacity is the maximum number of entries in the view. Must be at
	// least 2.
	Capacity int

	// Healing biases eviction toward the oldest entries during merges,
	// which clears departed peers faster. Healing plus Swap must not exceed
	// Capacity/2.
	Healing int

	// Swap biases eviction toward entries this node just advertised
	// outward, which improves mixing.
	Swap int

	// Seed, when nonzero, makes the service's randomness deterministic.
	// Partner selection, view permutation, and random eviction all draw
	// from a single source seeded with this value.
	Seed int64
}

// validate reports every violated parameter constraint at once.
func (c Config) validate() error {
	var err error
	if c.Bind == "" {
		err = multierr.Append(err, errors.New("bind address is required"))
	}
	if c.Interval <= 0 {
		err = multierr.Append(err, errors.New("exchange interval must be positive"))
	}
	if c.Capacity < 2 {
		err = multierr.Append(err, errors.New("view capacity must be at least 2"))
	}
	if c.Healing < 0 {
		err = multierr.Append(err, errors.New("healing parameter must be non-negative"))
	}
	if c.Swap < 0 {
		err = multierr.Append(err, errors.New("swap parameter must be non-negative"))
	}
	if c.Healing >= 0 && c.Swap >= 0 && c.Capacity >= 2 && c.Healing+c.Swap > c.Capacity/2 {
		err = multierr.Append(err, errors.New("healing plus swap must not exceed half the view capacity"))
	}
	if err != nil {
		return ErrInvalidConfig{Err: err}
	}
	return nil
}
