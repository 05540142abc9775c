// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package port implements bounded, closeable connections between one
// output port and one input port, and the one-shot IIP connection
// variant.
package port

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/flowd/flowd/packet"
)

// Connection is a bounded FIFO of capacity >= 1 between one producer and
// one consumer. Zero value is not usable; build
// with New or NewIIP.
type Connection struct {
	Name     string // "srcComponent.srcPort -> dstComponent.dstPort", for events/errors
	capacity int
	ch       chan *packet.Packet

	upstreamClosed   atomic.Bool
	downstreamClosed atomic.Bool
	closedDown       chan struct{}
	onceUp           sync.Once
	onceDown         sync.Once

	forced     chan struct{}
	onceForced sync.Once

	strict bool
	mu     sync.Mutex
	depth  int
}

// New creates a connection with the given capacity (clamped to >= 1).
// strict enables the optional bracket-nesting checker.
func New(capacity int, strict bool) *Connection {
	if capacity <= 0 {
		capacity = 1
	}
	return &Connection{
		capacity:   capacity,
		ch:         make(chan *packet.Packet, capacity),
		closedDown: make(chan struct{}),
		forced:     make(chan struct{}),
		strict:     strict,
	}
}

// NewIIP creates a one-shot, capacity-1 connection pre-loaded with a
// single packet and already upstream-closed: at network start, each
// Initial Information Packet becomes a one-shot connection of capacity 1
// feeding its port, pre-closed after the single packet.
func NewIIP(p *packet.Packet) *Connection {
	c := &Connection{
		capacity:   1,
		ch:         make(chan *packet.Packet, 1),
		closedDown: make(chan struct{}),
		forced:     make(chan struct{}),
	}
	c.ch <- p
	close(c.ch)
	c.upstreamClosed.Store(true)
	return c
}

// Capacity returns the connection's fixed queue capacity.
func (c *Connection) Capacity() int { return c.capacity }

// Len returns the number of packets currently queued.
func (c *Connection) Len() int { return len(c.ch) }

// UpstreamClosed reports whether the producer has closed this connection.
func (c *Connection) UpstreamClosed() bool { return c.upstreamClosed.Load() }

// DownstreamClosed reports whether the consumer has closed this
// connection.
func (c *Connection) DownstreamClosed() bool { return c.downstreamClosed.Load() }

// Send enqueues p, blocking until space is available, the downstream
// closes, or ctx is done. Ordering: packets on a single connection are
// delivered in send order.
func (c *Connection) Send(ctx context.Context, p *packet.Packet) error {
	if c.downstreamClosed.Load() {
		return ErrDownstreamClosed
	}
	if c.strict {
		if err := c.trackBracket(p); err != nil {
			return err
		}
	}

	select {
	case c.ch <- p:
		return nil
	case <-c.closedDown:
		return ErrDownstreamClosed
	case <-c.forced:
		return ErrDownstreamClosed
	case <-ctx.Done():
		return ctxErr(ctx)
	}
}

func (c *Connection) trackBracket(p *packet.Packet) error {
	if !p.IsBracket() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.Role() == packet.RoleOpenBracket {
		c.depth++
		return nil
	}
	c.depth--
	if c.depth < 0 {
		return ErrUnbalancedBracket
	}
	return nil
}

// Receive pops the next packet, blocking until one is available, the
// connection is closed-and-empty (eof=true, err=nil), or ctx is done.
func (c *Connection) Receive(ctx context.Context) (p *packet.Packet, eof bool, err error) {
	select {
	case p, ok := <-c.ch:
		if !ok {
			return nil, true, nil
		}
		return p, false, nil
	case <-c.forced:
		return nil, true, nil
	case <-ctx.Done():
		return nil, false, ctxErr(ctx)
	}
}

// CloseUpstream is the producer-side close: idempotent, marks the
// connection upstream-closed. Must only be called by the single owning
// producer, never concurrently with its own Send calls on the same
// connection.
func (c *Connection) CloseUpstream() {
	c.onceUp.Do(func() {
		c.upstreamClosed.Store(true)
		close(c.ch)
	})
}

// ForceEOF makes any call blocked in Send or Receive on this connection
// return immediately (Receive as a clean end-of-stream, Send as
// ErrDownstreamClosed) without touching the underlying channel. Unlike
// CloseUpstream/CloseDownstream, this is safe to call from neither the
// producer nor the consumer — it exists for the scheduler to break a
// detected deadlock from the outside.
func (c *Connection) ForceEOF() {
	c.onceForced.Do(func() { close(c.forced) })
}

// CloseDownstream is the consumer-side close: idempotent, marks the
// connection downstream-closed and wakes any blocked Send with
// ErrDownstreamClosed.
func (c *Connection) CloseDownstream() {
	c.onceDown.Do(func() {
		c.downstreamClosed.Store(true)
		close(c.closedDown)
	})
}

// DrainDropped discards any packets still queued after a consumer-side
// close and reports how many were dropped, for the "dropped packets as a
// warning unless drop-tolerant" policy applied when a consumer closes its
// input port early.
func (c *Connection) DrainDropped() int {
	n := 0
	for {
		select {
		case _, ok := <-c.ch:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}

func ctxErr(ctx context.Context) error {
	if ctx.Err() == context.Canceled {
		return ErrCancelled
	}
	return ErrTimeout
}
