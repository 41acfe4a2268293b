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
	"math/rand"
	"sync"
	"time"

	"go.uber.org/net/metrics"
	"go.uber.org/peersample/api/peer"
	"go.uber.org/peersample/api/transport"
	"go.uber.org/peersample/internal/clock"
	"go.uber.org/peersample/internal/lifecycle"
	"go.uber.org/peersample/transport/tcp"
	"go.uber.org/peersample/view"
	"go.uber.org/zap"
)

// Bootstrap supplies the initial contact for a node whose view is empty at
// its first exchange cycle. It is consulted at most once per Start; a false
// return means "no contact; wait for inbound exchanges". It may perform
// arbitrary I/O (DNS lookups, seed list fetches) under the given context,
// which is canceled when the service stops.
type Bootstrap func(ctx context.Context) (peer.Identifier, bool)

// Service is one node of the peer sampling overlay. It is inert until
// Start, and must not be reused after Stop.
type Service struct {
	cfg  Config
	life *lifecycle.Once

	logger  *zap.Logger
	metrics *serviceMetrics
	clock   clock.Clock
	trans   transport.Transport

	// mu serializes every read and mutation of the view, the rng behind
	// it, and the node's own identity.
	mu           sync.Mutex
	self         peer.Identifier
	view         *view.View
	boot         Bootstrap
	bootConsumed bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New validates the configuration and constructs an inert service. No I/O
// happens until Start.
func New(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.clock == nil {
		o.clock = clock.NewSystem()
	}
	if o.scope == nil {
		o.scope = metrics.New().Scope()
	}
	if o.transport == nil {
		o.transport = tcp.NewTransport(cfg.Bind, tcp.Logger(o.logger))
	}
	m, err := newServiceMetrics(o.scope)
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Service{
		cfg:     cfg,
		life:    lifecycle.New(),
		logger:  o.logger,
		metrics: m,
		clock:   o.clock,
		trans:   o.transport,
		self:    peer.Identifier(cfg.Bind),
		view:    view.New(rand.New(rand.NewSource(seed))),
	}, nil
}

// Start binds the transport, then begins the periodic exchange cycle. The
// bootstrap, which may be nil, is consulted at most once: at the first cycle
// that finds the view empty. Starting a running service fails with
// ErrAlreadyRunning.
func (s *Service) Start(boot Bootstrap) error {
	err := s.life.Start(func() error {
		if err := s.trans.Start(serviceHandler{s}); err != nil {
			return err
		}
		// With a ":0" bind the identity is only known once the listener is
		// up; advertise what we actually bound.
		if addr := s.trans.Addr(); addr != nil {
			s.mu.Lock()
			s.self = peer.Identifier(addr.String())
			s.mu.Unlock()
		}
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.boot = boot
		s.wg.Add(1)
		go s.run(ctx)
		s.logger.Info("peer sampling service started",
			zap.Stringer("self", s.Self()),
			zap.Duration("interval", s.cfg.Interval),
			zap.Int("capacity", s.cfg.Capacity))
		return nil
	})
	if err == nil {
		return nil
	}
	if notIdle, ok := err.(lifecycle.ErrNotIdle); ok {
		switch notIdle.State {
		case lifecycle.Starting, lifecycle.Running:
			return ErrAlreadyRunning(s.cfg.Bind)
		default:
			return ErrInvalidState{Op: "start", State: notIdle.State.String()}
		}
	}
	return err
}

// Stop winds down the exchange cycle, closes the listener, and waits until
// all background activity has ceased. Stopping an already stopped service
// is a no-op.
func (s *Service) Stop() error {
	return s.life.Stop(func() error {
		s.cancel()
		err := s.trans.Stop()
		s.wg.Wait()
		s.logger.Info("peer sampling service stopped", zap.Stringer("self", s.Self()))
		return err
	})
}

// Peer returns a uniformly random peer from the current view. It never
// blocks on an exchange: an empty view yields ErrNoAvailablePeers
// immediately, and a service that is not running yields ErrInvalidState.
func (s *Service) Peer() (peer.Identifier, error) {
	if !s.life.Running() {
		return "", ErrInvalidState{Op: "sample a peer", State: s.life.State().String()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.view.SelectPeer()
	if !ok {
		return "", ErrNoAvailablePeers
	}
	return id, nil
}

// Self returns the identity this node advertises to peers. Before Start it
// is the configured bind address.
func (s *Service) Self() peer.Identifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}

// run drives the active thread: one exchange cycle every interval until the
// service begins stopping.
func (s *Service) run(ctx context.Context) {
	defer s.wg.Done()
	timer := s.clock.Timer(s.cfg.Interval)
	defer timer.Stop()
	for {
		select {
		case <-s.life.Stopping():
			return
		case <-timer.C():
			s.cycle(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// cycle runs one iteration of the active thread: select a partner, exchange
// buffers, merge the partner's buffer if one arrives, and age the view.
func (s *Service) cycle(ctx context.Context) {
	s.mu.Lock()
	partner, ok := s.view.SelectPeer()
	if !ok {
		consult := !s.bootConsumed
		s.bootConsumed = true
		boot := s.boot
		s.mu.Unlock()
		s.metrics.cyclesSkipped.Inc()
		if consult && boot != nil {
			s.adoptBootstrapContact(ctx, boot)
		}
		return
	}
	buf := s.exchangeBuffer(s.cfg.Push)
	self := s.self
	s.mu.Unlock()

	req := &transport.Message{Kind: transport.Request, Sender: self, View: buf}
	if s.cfg.Pull {
		res, err := s.trans.Call(ctx, partner, req)
		if err != nil {
			s.abandonCycle(ctx, partner, err)
			return
		}
		s.mu.Lock()
		if res != nil && res.Kind == transport.Response {
			s.mergeLocked(res.View)
			s.metrics.merges.Inc()
		}
		s.view.IncreaseAge()
		s.metrics.viewSize.Store(int64(s.view.Len()))
		s.mu.Unlock()
	} else {
		if err := s.trans.CallOneway(ctx, partner, req); err != nil {
			s.abandonCycle(ctx, partner, err)
			return
		}
		s.mu.Lock()
		s.view.IncreaseAge()
		s.mu.Unlock()
	}
	s.metrics.cycles.Inc()
}

// abandonCycle gives up on the current exchange after a transport failure.
// The node keeps participating; the failure is recorded, not surfaced.
func (s *Service) abandonCycle(ctx context.Context, partner peer.Identifier, err error) {
	if ctx.Err() != nil {
		// The service is stopping; the interrupted exchange is expected.
		return
	}
	s.metrics.transportErrs.Inc()
	s.logger.Warn("abandoning exchange cycle",
		zap.Stringer("partner", partner),
		zap.Error(err))
}

// adoptBootstrapContact consults the bootstrap and seeds the view with the
// contact it yields, if any. The bootstrap may block on I/O, so it runs
// outside the view lock.
func (s *Service) adoptBootstrapContact(ctx context.Context, boot Bootstrap) {
	contact, ok := boot(ctx)
	if !ok || contact == "" || contact == s.Self() {
		return
	}
	s.mu.Lock()
	if s.view.Len() == 0 {
		s.view.Append([]view.Entry{{Peer: contact}})
	}
	s.mu.Unlock()
	s.logger.Info("adopted bootstrap contact", zap.Stringer("peer", contact))
}

// exchangeBuffer assembles this node's half of an exchange: its own identity
// at age zero followed by a sample of the permuted view with the oldest
// entries rotated out of reach. Without push the buffer is empty and the
// message is a bare pull request. Callers must hold s.mu.
func (s *Service) exchangeBuffer(push bool) []view.Entry {
	if !push {
		return nil
	}
	buf := make([]view.Entry, 0, s.cfg.Capacity/2)
	buf = append(buf, view.Entry{Peer: s.self})
	w := s.view.Copy()
	w.Permute()
	w.MoveOldestToEnd(s.cfg.Healing)
	return append(buf, w.Head(s.cfg.Capacity/2-1)...)
}

// mergeLocked folds a remote buffer into the view: append, strip any echo
// of this node, collapse duplicates to their freshest copy, then evict back
// down to capacity, oldest entries first, just-advertised head entries
// second, uniformly at random for the remainder. Callers must hold s.mu.
func (s *Service) mergeLocked(remote []view.Entry) {
	incoming := remote[:0:0]
	for _, e := range remote {
		if e.Peer == "" {
			continue
		}
		incoming = append(incoming, e)
	}
	s.view.Append(incoming)
	s.view.Remove(s.self)
	s.view.RemoveDuplicates()
	over := s.view.Len() - s.cfg.Capacity
	if over <= 0 {
		return
	}
	over -= s.view.RemoveOldest(minInt(s.cfg.Healing, over))
	over -= s.view.RemoveHead(minInt(s.cfg.Swap, over))
	s.view.RemoveRandom(over)
}

// serviceHandler is the passive thread: it serves inbound exchanges against
// the service's view.
type serviceHandler struct {
	s *Service
}

var _ transport.Handler = serviceHandler{}

// Handle answers one inbound exchange. The response buffer is drawn from
// the view as it stood before the merge, so the requester never receives
// entries it just sent us.
func (h serviceHandler) Handle(_ context.Context, req *transport.Message) (*transport.Message, error) {
	s := h.s
	if req == nil || req.Kind != transport.Request {
		// A response with no awaiting exchange is unsolicited; drop it.
		return nil, nil
	}
	if !s.life.Running() {
		return nil, nil
	}
	s.mu.Lock()
	var res *transport.Message
	if s.cfg.Pull {
		res = &transport.Message{
			Kind:   transport.Response,
			Sender: s.self,
			View:   s.exchangeBuffer(true),
		}
	}
	s.mergeLocked(req.View)
	s.view.IncreaseAge()
	s.metrics.viewSize.Store(int64(s.view.Len()))
	s.mu.Unlock()
	s.metrics.inboundServed.Inc()
	s.metrics.merges.Inc()
	return res, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
