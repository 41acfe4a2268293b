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

import "go.uber.org/net/metrics"

type serviceMetrics struct {
	cycles        *metrics.Counter
	cyclesSkipped *metrics.Counter
	merges        *metrics.Counter
	inboundServed *metrics.Counter
	transportErrs *metrics.Counter
	viewSize      *metrics.Gauge
}

func newServiceMetrics(scope *metrics.Scope) (*serviceMetrics, error) {
	m := &serviceMetrics{}
	var err error
	if m.cycles, err = scope.Counter(metrics.Spec{
		Name: "peersample_cycles_total",
		Help: "Exchange cycles that selected a partner and ran.",
	}); err != nil {
		return nil, err
	}
	if m.cyclesSkipped, err = scope.Counter(metrics.Spec{
		Name: "peersample_cycles_skipped_total",
		Help: "Exchange cycles skipped because the view was empty.",
	}); err != nil {
		return nil, err
	}
	if m.merges, err = scope.Counter(metrics.Spec{
		Name: "peersample_merges_total",
		Help: "Remote buffers merged into the view.",
	}); err != nil {
		return nil, err
	}
	if m.inboundServed, err = scope.Counter(metrics.Spec{
		Name: "peersample_inbound_served_total",
		Help: "Inbound exchange requests served.",
	}); err != nil {
		return nil, err
	}
	if m.transportErrs, err = scope.Counter(metrics.Spec{
		Name: "peersample_transport_errors_total",
		Help: "Exchanges abandoned because of transport failures.",
	}); err != nil {
		return nil, err
	}
	if m.viewSize, err = scope.Gauge(metrics.Spec{
		Name: "peersample_view_size",
		Help: "Current number of entries in the view.",
	}); err != nil {
		return nil, err
	}
	return m, nil
}
