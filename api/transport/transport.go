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

// Package transport declares the wire surface the peer sampling service
// requires of a transport: a typed exchange message and a reliable
// message-oriented channel that can initiate exchanges with remote peers and
// deliver inbound exchanges to a handler.
package transport

import (
	"context"
	"net"

	"go.uber.org/peersample/api/peer"
	"go.uber.org/peersample/view"
)

// Kind discriminates the two halves of an exchange.
type Kind int

const (
	// Request opens an exchange and carries the initiator's buffer.
	Request Kind = iota + 1

	// Response answers a request and carries the responder's buffer.
	Response
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case Request:
		return "request"
	case Response:
		return "response"
	default:
		return "unknown"
	}
}

// Message is one half of a view exchange. The view payload may be empty: a
// request with no entries is a pull without a push.
type Message struct {
	Kind   Kind
	Sender peer.Identifier
	View   []view.Entry
}

// Handler receives inbound exchange requests. The returned message, if any,
// is delivered back to the requester as the response half of the same
// exchange. Returning a nil message with a nil error closes the exchange
// without a response.
type Handler interface {
	Handle(ctx context.Context, req *Message) (*Message, error)
}

// Transport ships exchange messages between peers. Request/response pairing
// must be unambiguous within a single exchange; implementations are free to
// achieve that with one connection per exchange or with correlation
// identifiers on a multiplexed channel.
type Transport interface {
	// Start binds the transport and begins delivering inbound exchanges to
	// the handler. It must be called before Call or CallOneway.
	Start(h Handler) error

	// Stop closes the listener, waits for in-flight deliveries to drain, and
	// releases resources. Stop is idempotent.
	Stop() error

	// Addr returns the bound listen address, or nil before Start.
	Addr() net.Addr

	// Call performs one full exchange: it delivers req to the named peer and
	// waits for the paired response. A peer that closes the exchange without
	// responding yields (nil, nil); that is a missed merge, not an error.
	Call(ctx context.Context, to peer.Identifier, req *Message) (*Message, error)

	// CallOneway delivers req to the named peer without waiting for a
	// response.
	CallOneway(ctx context.Context, to peer.Identifier, req *Message) error
}
