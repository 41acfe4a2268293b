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

// Package testtime dilates the durations used in timing-sensitive tests so
// they still pass on CPU-starved CI machines. Set TEST_TIME_SCALE to a
// multiplier greater than 1 to slow every scaled duration down.
package testtime

import (
	"os"
	"strconv"
	"time"
)

var factor = 1.0

func init() {
	v := os.Getenv("TEST_TIME_SCALE")
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		panic("invalid TEST_TIME_SCALE: " + v)
	}
	factor = f
}

// Scale returns the duration multiplied by the configured scale factor.
func Scale(d time.Duration) time.Duration {
	return time.Duration(factor * float64(d))
}

// Sleep pauses the goroutine for the scaled duration.
func Sleep(d time.Duration) {
	time.Sleep(Scale(d))
}
