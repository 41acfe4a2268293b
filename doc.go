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

// Package peersample provides a gossip-based peer sampling service: each
// node keeps a small, continuously shuffled partial view of the network and
// can hand out a uniformly random peer from it on demand.
//
// Nodes periodically push and/or pull view buffers with a randomly chosen
// neighbor and fold the result back into their view with a bounded merge
// that favors evicting stale entries (healing) and entries just advertised
// outward (swapping). Collectively the nodes approximate a random overlay
// that repairs itself under churn. The protocol follows Jelasity, Voulgaris,
// Guerraoui, Kermarrec, and van Steen, "Gossip-based Peer Sampling"
// (ACM TOCS 2007).
//
// A service is inert after New, exchanges views after Start, and releases
// its listener and background work on Stop:
//
//	svc, err := peersample.New(peersample.Config{
//		Bind:     "127.0.0.1:9000",
//		Push:     true,
//		Pull:     true,
//		Interval: 5 * time.Second,
//		Capacity: 16,
//		Healing:  1,
//		Swap:     3,
//	})
//	if err != nil {
//		// invalid configuration
//	}
//	if err := svc.Start(seedFromDNS); err != nil {
//		// bind failure or duplicate start
//	}
//	defer svc.Stop()
//
//	p, err := svc.Peer() // a uniformly random known peer
package peersample
