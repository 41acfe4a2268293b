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
	"go.uber.org/net/metrics"
	"go.uber.org/peersample/api/transport"
	"go.uber.org/peersample/internal/clock"
	"go.uber.org/zap"
)

type options struct {
	logger    *zap.Logger
	scope     *metrics.Scope
	transport transport.Transport
	clock     clock.Clock
}

// Option customizes a service beyond its protocol configuration.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(opts *options) { f(opts) }

// Logger sets the logger the service and its default transport write to.
// Defaults to a no-op logger.
func Logger(logger *zap.Logger) Option {
	return optionFunc(func(opts *options) {
		opts.logger = logger
	})
}

// Metrics registers the service's counters and gauges on the given scope.
// Each service needs its own scope; registering two services on one scope
// collides on metric names.
func Metrics(scope *metrics.Scope) Option {
	return optionFunc(func(opts *options) {
		opts.scope = scope
	})
}

// Transport replaces the default TCP transport. The transport's bound
// address becomes the node's advertised identity.
func Transport(t transport.Transport) Option {
	return optionFunc(func(opts *options) {
		opts.transport = t
	})
}

// withClock replaces the clock driving the exchange cycle. Tests use a fake
// clock to step cycles deterministically.
func withClock(c clock.Clock) Option {
	return optionFunc(func(opts *options) {
		opts.clock = c
	})
}
