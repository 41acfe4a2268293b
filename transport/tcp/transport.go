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

// Package tcp implements the exchange transport over plain TCP with one
// connection per exchange: the initiator dials, writes its request frame,
// and reads at most one response frame before the connection closes.
package tcp

import (
	"context"
	"io"
	"net"
	"sync"

	"go.uber.org/peersample/api/peer"
	"go.uber.org/peersample/api/transport"
	"go.uber.org/zap"
)

var _ transport.Transport = (*Transport)(nil)

// Transport is a TCP exchange transport.
type Transport struct {
	addr   string
	logger *zap.Logger
	dialer net.Dialer

	mu       sync.Mutex
	listener net.Listener
	handler  transport.Handler
	stopped  bool

	conns sync.WaitGroup
}

// Option customizes a Transport.
type Option func(*Transport)

// Logger sets the logger. Defaults to a no-op logger.
func Logger(logger *zap.Logger) Option {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport returns a transport that will listen on the given TCP
// address once started.
func NewTransport(addr string, opts ...Option) *Transport {
	t := &Transport{
		addr:   addr,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start binds the listener and begins serving inbound exchanges to h.
func (t *Transport) Start(h transport.Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil || t.stopped {
		return transport.ErrAlreadyStarted("tcp")
	}
	listener, err := net.Listen("tcp", t.addr)
	if err != nil {
		return transport.ErrBindFailed{Addr: t.addr, Err: err}
	}
	t.listener = listener
	t.handler = h
	t.conns.Add(1)
	go t.acceptLoop(listener)
	t.logger.Debug("transport listening", zap.Stringer("addr", listener.Addr()))
	return nil
}

// Stop closes the listener and waits for in-flight exchanges to drain.
// Stopping a transport that never started, or stopping twice, is a no-op.
func (t *Transport) Stop() error {
	t.mu.Lock()
	if t.stopped || t.listener == nil {
		t.stopped = true
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	listener := t.listener
	t.mu.Unlock()

	err := listener.Close()
	t.conns.Wait()
	return err
}

// Addr returns the bound listen address, or nil before Start.
func (t *Transport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

func (t *Transport) acceptLoop(listener net.Listener) {
	defer t.conns.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			t.mu.Lock()
			stopped := t.stopped
			t.mu.Unlock()
			if !stopped {
				t.logger.Warn("accept failed", zap.Error(err))
			}
			return
		}
		t.conns.Add(1)
		go t.serve(conn)
	}
}

// serve runs one inbound exchange: read the request frame, hand it to the
// handler, and write the response frame if the handler produced one.
func (t *Transport) serve(conn net.Conn) {
	defer t.conns.Done()
	defer conn.Close()

	req, err := readMessage(conn)
	if err != nil {
		t.logger.Debug("dropping malformed inbound frame", zap.Error(err))
		return
	}
	t.mu.Lock()
	handler := t.handler
	t.mu.Unlock()
	if handler == nil {
		return
	}
	res, err := handler.Handle(context.Background(), req)
	if err != nil {
		t.logger.Warn("exchange handler failed", zap.Error(err))
		return
	}
	if res == nil {
		return
	}
	if err := writeMessage(conn, res); err != nil {
		t.logger.Debug("could not write response frame", zap.Error(err))
	}
}

// Call dials the peer, delivers the request frame, and waits for the paired
// response. A connection that closes before a response frame arrives yields
// (nil, nil): the exchange is simply lost.
func (t *Transport) Call(ctx context.Context, to peer.Identifier, req *transport.Message) (*transport.Message, error) {
	conn, err := t.dial(ctx, to)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	unwatch := watchCancel(ctx, conn)
	defer unwatch()

	if err := writeMessage(conn, req); err != nil {
		return nil, err
	}
	res, err := readMessage(conn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != io.EOF && err != io.ErrUnexpectedEOF {
			t.logger.Debug("dropping malformed response frame", zap.Error(err))
		}
		return nil, nil
	}
	return res, nil
}

// CallOneway dials the peer, delivers the request frame, and closes the
// connection without waiting for a response.
func (t *Transport) CallOneway(ctx context.Context, to peer.Identifier, req *transport.Message) error {
	conn, err := t.dial(ctx, to)
	if err != nil {
		return err
	}
	defer conn.Close()

	unwatch := watchCancel(ctx, conn)
	defer unwatch()

	return writeMessage(conn, req)
}

func (t *Transport) dial(ctx context.Context, to peer.Identifier) (net.Conn, error) {
	return t.dialer.DialContext(ctx, "tcp", to.String())
}

// watchCancel closes the connection when the context is canceled, unblocking
// any read or write in flight. The returned function releases the watcher.
func watchCancel(ctx context.Context, conn net.Conn) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	released := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-released:
		}
	}()
	return func() { close(released) }
}
