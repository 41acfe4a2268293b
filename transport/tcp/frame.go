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

package tcp

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/peersample/api/peer"
	"go.uber.org/peersample/api/transport"
	"go.uber.org/peersample/view"
)

// Each exchange message travels as one frame: a 4-byte big-endian length
// prefix followed by a JSON body. One frame per direction per connection
// keeps request/response pairing unambiguous without correlation IDs.
const maxFrameSize = 1 << 20

var errFrameTooLarge = errors.New("frame exceeds size limit")

type wireMessage struct {
	Kind   string      `json:"kind"`
	Sender string      `json:"sender"`
	View   []wireEntry `json:"view"`
}

type wireEntry struct {
	Peer string `json:"peer"`
	Age  uint16 `json:"age"`
}

func writeMessage(w io.Writer, msg *transport.Message) error {
	wm := wireMessage{
		Kind:   msg.Kind.String(),
		Sender: msg.Sender.String(),
		View:   make([]wireEntry, 0, len(msg.View)),
	}
	for _, e := range msg.View {
		wm.View = append(wm.View, wireEntry{Peer: e.Peer.String(), Age: e.Age})
	}
	body, err := json.Marshal(wm)
	if err != nil {
		return err
	}
	if len(body) > maxFrameSize {
		return errFrameTooLarge
	}
	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	copy(frame[4:], body)
	_, err = w.Write(frame)
	return err
}

func readMessage(r io.Reader) (*transport.Message, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(header[:])
	if size == 0 || size > maxFrameSize {
		return nil, errFrameTooLarge
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	var wm wireMessage
	if err := json.Unmarshal(body, &wm); err != nil {
		return nil, err
	}
	var kind transport.Kind
	switch wm.Kind {
	case transport.Request.String():
		kind = transport.Request
	case transport.Response.String():
		kind = transport.Response
	default:
		return nil, fmt.Errorf("unknown message kind %q", wm.Kind)
	}
	msg := &transport.Message{
		Kind:   kind,
		Sender: peer.Identifier(wm.Sender),
		View:   make([]view.Entry, 0, len(wm.View)),
	}
	for _, e := range wm.View {
		msg.View = append(msg.View, view.Entry{Peer: peer.Identifier(e.Peer), Age: e.Age})
	}
	return msg, nil
}
