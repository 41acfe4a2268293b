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
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"
	"go.uber.org/peersample/api/peer"
	"go.uber.org/peersample/api/transport"
	"go.uber.org/peersample/internal/clock"
	"go.uber.org/peersample/internal/testtime"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func localConfig() Config {
	return Config{
		Bind:     "127.0.0.1:0",
		Push:     true,
		Pull:     true,
		Interval: testtime.Scale(25 * time.Millisecond),
		Capacity: 6,
		Healing:  1,
		Swap:     2,
	}
}

func startService(t *testing.T, cfg Config, boot Bootstrap, opts ...Option) *Service {
	t.Helper()
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Start(boot))
	t.Cleanup(func() { s.Stop() })
	return s
}

func bootTo(target func() peer.Identifier) Bootstrap {
	return func(context.Context) (peer.Identifier, bool) {
		return target(), true
	}
}

func TestLifecycle(t *testing.T) {
	s, err := New(localConfig())
	require.NoError(t, err)

	_, err = s.Peer()
	invalid, ok := err.(ErrInvalidState)
	require.True(t, ok, "expected ErrInvalidState before start, got %v", err)
	assert.Equal(t, "idle", invalid.State)

	require.NoError(t, s.Start(nil))
	assert.Equal(t, "running", s.Introspect().State)
	assert.NotEqual(t, peer.Identifier("127.0.0.1:0"), s.Self(), "identity must reflect the bound port")

	err = s.Start(nil)
	_, ok = err.(ErrAlreadyRunning)
	require.True(t, ok, "expected ErrAlreadyRunning, got %v", err)

	_, err = s.Peer()
	assert.Equal(t, ErrNoAvailablePeers, err, "empty view yields no peers, not a lifecycle error")

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop(), "stop is idempotent")
	assert.Equal(t, "stopped", s.Introspect().State)

	_, err = s.Peer()
	invalid, ok = err.(ErrInvalidState)
	require.True(t, ok)
	assert.Equal(t, "stopped", invalid.State)

	err = s.Start(nil)
	_, ok = err.(ErrInvalidState)
	assert.True(t, ok, "restarting a stopped service is invalid, got %v", err)
}

func TestStartBindFailure(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer occupied.Close()

	cfg := localConfig()
	cfg.Bind = occupied.Addr().String()
	s, err := New(cfg)
	require.NoError(t, err)

	err = s.Start(nil)
	require.Error(t, err)
	_, ok := err.(transport.ErrBindFailed)
	assert.True(t, ok, "expected ErrBindFailed, got %v", err)
	assert.Equal(t, "errored", s.Introspect().State)
}

func TestTwoNodeConvergence(t *testing.T) {
	a := startService(t, localConfig(), nil)
	b := startService(t, localConfig(), bootTo(a.Self))

	require.Eventually(t, func() bool {
		pa, errA := a.Peer()
		pb, errB := b.Peer()
		return errA == nil && errB == nil && pa == b.Self() && pb == a.Self()
	}, testtime.Scale(5*time.Second), testtime.Scale(10*time.Millisecond),
		"nodes never learned about each other")

	// With only two nodes every sample is the other node.
	for i := 0; i < 20; i++ {
		pa, err := a.Peer()
		require.NoError(t, err)
		assert.Equal(t, b.Self(), pa)
	}
}

func TestPullOnlyExchange(t *testing.T) {
	cfg := localConfig()
	cfg.Push = false

	a := startService(t, cfg, nil)
	b := startService(t, cfg, bootTo(a.Self))

	// B's requests carry no entries, so A never learns about B; B keeps A
	// through the pulled responses.
	require.Eventually(t, func() bool {
		pb, err := b.Peer()
		return err == nil && pb == a.Self()
	}, testtime.Scale(5*time.Second), testtime.Scale(10*time.Millisecond))

	_, err := a.Peer()
	assert.Equal(t, ErrNoAvailablePeers, err)
}

// silentPeer accepts exchanges, reads the request frame, and closes the
// connection without ever responding.
func silentPeer(t *testing.T) peer.Identifier {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			var header [4]byte
			if _, err := io.ReadFull(conn, header[:]); err == nil {
				body := make([]byte, binary.BigEndian.Uint32(header[:]))
				io.ReadFull(conn, body)
			}
			conn.Close()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		<-done
	})
	return peer.Identifier(ln.Addr().String())
}

func TestLostResponseStillAgesView(t *testing.T) {
	dead := silentPeer(t)
	s := startService(t, localConfig(), func(context.Context) (peer.Identifier, bool) {
		return dead, true
	})

	// Every cycle sends to the silent peer, gets no response, merges
	// nothing, and still increments ages.
	require.Eventually(t, func() bool {
		status := s.Introspect()
		return len(status.View) == 1 && status.View[0].Age >= 3
	}, testtime.Scale(5*time.Second), testtime.Scale(10*time.Millisecond),
		"ages must keep advancing without responses")

	status := s.Introspect()
	require.Len(t, status.View, 1)
	assert.Equal(t, dead, status.View[0].Peer)
	assert.Equal(t, "running", status.State)
}

func TestUnreachablePartnerIsNotFatal(t *testing.T) {
	// Reserve a port and release it so connections are refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	dead := peer.Identifier(ln.Addr().String())
	require.NoError(t, ln.Close())

	s := startService(t, localConfig(), func(context.Context) (peer.Identifier, bool) {
		return dead, true
	})

	time.Sleep(testtime.Scale(100 * time.Millisecond))
	status := s.Introspect()
	assert.Equal(t, "running", status.State)
	p, err := s.Peer()
	require.NoError(t, err)
	assert.Equal(t, dead, p, "unreachable peers stay in the view")
}

// waitForTimer blocks until the service's exchange loop has armed its timer
// on the fake clock.
func waitForTimer(t *testing.T, fake *clock.Fake) {
	t.Helper()
	require.Eventually(t, func() bool {
		return fake.Timers() > 0
	}, testtime.Scale(time.Second), testtime.Scale(time.Millisecond))
}

func TestBootstrapConsultedAtMostOnce(t *testing.T) {
	fake := clock.NewFake()
	cfg := localConfig()
	cfg.Interval = time.Second

	var consults atomic.Int64
	startService(t, cfg, func(context.Context) (peer.Identifier, bool) {
		consults.Inc()
		return "", false
	}, withClock(fake))
	waitForTimer(t, fake)

	for i := 0; i < 5; i++ {
		fake.Add(time.Second)
	}
	require.Eventually(t, func() bool {
		return consults.Load() >= 1
	}, testtime.Scale(time.Second), testtime.Scale(5*time.Millisecond))

	fake.Add(time.Second)
	time.Sleep(testtime.Scale(50 * time.Millisecond))
	assert.Equal(t, int64(1), consults.Load(), "bootstrap must be consulted at most once")
}

func TestNoCycleBeforeInterval(t *testing.T) {
	fake := clock.NewFake()
	cfg := localConfig()
	cfg.Interval = time.Minute

	var consults atomic.Int64
	startService(t, cfg, func(context.Context) (peer.Identifier, bool) {
		consults.Inc()
		return "", false
	}, withClock(fake))
	waitForTimer(t, fake)

	fake.Add(30 * time.Second)
	time.Sleep(testtime.Scale(50 * time.Millisecond))
	assert.Zero(t, consults.Load(), "the first cycle only runs after a full interval")

	fake.Add(30 * time.Second)
	require.Eventually(t, func() bool {
		return consults.Load() == 1
	}, testtime.Scale(time.Second), testtime.Scale(5*time.Millisecond))
}

func TestShutdownQuiescence(t *testing.T) {
	s, err := New(localConfig())
	require.NoError(t, err)
	require.NoError(t, s.Start(nil))
	addr := s.Self().String()

	require.NoError(t, s.Stop())

	_, err = net.DialTimeout("tcp", addr, testtime.Scale(time.Second))
	assert.Error(t, err, "no listener may remain after shutdown")

	_, err = s.Peer()
	_, ok := err.(ErrInvalidState)
	assert.True(t, ok)
}

func TestUniformSampling(t *testing.T) {
	cfg := localConfig()
	cfg.Interval = time.Hour // keep the active thread out of the way
	s := startService(t, cfg, nil)

	members := []string{"a:1", "b:1", "c:1", "d:1"}
	s.mu.Lock()
	for _, id := range members {
		seedView(s, entry(id, 0))
	}
	s.mu.Unlock()

	const draws = 8000
	counts := make(map[peer.Identifier]int)
	for i := 0; i < draws; i++ {
		p, err := s.Peer()
		require.NoError(t, err)
		counts[p]++
	}
	require.Len(t, counts, len(members))
	for id, n := range counts {
		assert.InDelta(t, 0.25, float64(n)/draws, 0.05, "peer %v oversampled or undersampled", id)
	}
}
