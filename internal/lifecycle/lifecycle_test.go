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

package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartMovesToRunning(t *testing.T) {
	o := New()
	assert.Equal(t, Idle, o.State())

	ran := false
	require.NoError(t, o.Start(func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.Equal(t, Running, o.State())
	assert.True(t, o.Running())
}

func TestSecondStartFailsImmediately(t *testing.T) {
	o := New()
	require.NoError(t, o.Start(nil))

	err := o.Start(func() error {
		t.Fatal("second start hook must not run")
		return nil
	})
	require.Error(t, err)
	notIdle, ok := err.(ErrNotIdle)
	require.True(t, ok)
	assert.Equal(t, Running, notIdle.State)
}

func TestStartFailureMovesToErrored(t *testing.T) {
	o := New()
	boom := errors.New("bind failed")
	require.Equal(t, boom, o.Start(func() error { return boom }))
	assert.Equal(t, Errored, o.State())
	assert.False(t, o.Running())

	// Stopping an errored object must not run the stop hook and reports the
	// original failure.
	assert.Equal(t, boom, o.Stop(func() error {
		t.Fatal("stop hook must not run after an errored start")
		return nil
	}))
}

func TestStopFromIdleSkipsHook(t *testing.T) {
	o := New()
	require.NoError(t, o.Stop(func() error {
		t.Fatal("stop hook must not run from idle")
		return nil
	}))
	assert.Equal(t, Stopped, o.State())

	select {
	case <-o.Stopping():
	default:
		t.Fatal("stopping channel must be closed")
	}
}

func TestStopRunsHookOnce(t *testing.T) {
	o := New()
	require.NoError(t, o.Start(nil))

	calls := 0
	require.NoError(t, o.Stop(func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, Stopped, o.State())

	require.NoError(t, o.Stop(func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 1, calls, "repeated stop must be a no-op")
}

func TestStopReturnsFirstError(t *testing.T) {
	o := New()
	require.NoError(t, o.Start(nil))

	boom := errors.New("listener would not close")
	assert.Equal(t, boom, o.Stop(func() error { return boom }))
	assert.Equal(t, Errored, o.State())
	assert.Equal(t, boom, o.Stop(nil))
}

func TestStoppingChannelClosesBeforeHook(t *testing.T) {
	o := New()
	require.NoError(t, o.Start(nil))

	require.NoError(t, o.Stop(func() error {
		select {
		case <-o.Stopping():
			return nil
		default:
			return errors.New("stopping channel must close before the hook runs")
		}
	}))
}

func TestStateNames(t *testing.T) {
	names := map[State]string{
		Idle:      "idle",
		Starting:  "starting",
		Running:   "running",
		Stopping:  "stopping",
		Stopped:   "stopped",
		Errored:   "errored",
		State(99): "unknown",
	}
	for state, want := range names {
		assert.Equal(t, want, state.String())
	}
}
