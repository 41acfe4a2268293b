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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t,
		`invalid peer sampling configuration: view capacity must be at least 2`,
		ErrInvalidConfig{Err: errors.New("view capacity must be at least 2")}.Error())
	assert.Equal(t,
		`peer sampling service on "127.0.0.1:9000" is already running`,
		ErrAlreadyRunning("127.0.0.1:9000").Error())
	assert.Equal(t,
		`cannot sample a peer while service is stopped`,
		ErrInvalidState{Op: "sample a peer", State: "stopped"}.Error())
}

func TestInvalidConfigUnwraps(t *testing.T) {
	inner := errors.New("bind address is required")
	err := error(ErrInvalidConfig{Err: inner})
	assert.True(t, errors.Is(err, inner))
}
