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

package port

import (
	"context"
	"iter"
	"sort"
	"sync"

	"github.com/flowd/flowd/logger"
	"github.com/flowd/flowd/packet"
)

// Hooks lets the owning Network observe port traffic for its event stream
// and metrics without this package depending on network.
type Hooks struct {
	OnReceive func(connName string)
	OnSend    func(connName string)
	OnFull    func(connName string)
	OnDrained func(connName string)

	// OnBlockReceive/OnBlockReceiveEnd bracket a Receive call that has not
	// yet returned, so a scheduler can tell a component is waiting on a
	// specific connection rather than merely running.
	OnBlockReceive    func(connName string)
	OnBlockReceiveEnd func(connName string)
	OnBlockSend       func(connName string)
	OnBlockSendEnd    func(connName string)
}

// InPort is the runtime handle to an input port, passed to a component
// body for the duration of one activation.
type InPort struct {
	Spec

	component string
	conns     map[int]*Connection
	consumed  map[int]bool // receive_once bookkeeping, per index
	hooks     Hooks

	mu sync.Mutex
}

// NewInPort wires an InPort around its (possibly per-index) connections.
// index 0 is used for non-array ports.
func NewInPort(spec Spec, component string, conns map[int]*Connection, hooks Hooks) *InPort {
	return &InPort{
		Spec:      spec,
		component: component,
		conns:     conns,
		consumed:  make(map[int]bool),
		hooks:     hooks,
	}
}

func (p *InPort) connAt(index int) (*Connection, error) {
	c, ok := p.conns[index]
	if !ok {
		return nil, ErrNotConnected
	}
	return c, nil
}

// Receive blocks until a packet arrives on index 0, the port reaches
// end-of-stream, or ctx is done.
func (p *InPort) Receive(ctx context.Context) (*packet.Packet, bool, error) {
	return p.ReceiveAt(ctx, 0)
}

// ReceiveAt is Receive for a specific array-port index.
func (p *InPort) ReceiveAt(ctx context.Context, index int) (*packet.Packet, bool, error) {
	c, err := p.connAt(index)
	if err != nil {
		return nil, false, err
	}
	if p.hooks.OnBlockReceive != nil {
		p.hooks.OnBlockReceive(c.Name)
	}
	pkt, eof, err := c.Receive(ctx)
	if p.hooks.OnBlockReceiveEnd != nil {
		p.hooks.OnBlockReceiveEnd(c.Name)
	}
	if err == nil && !eof && p.hooks.OnReceive != nil {
		p.hooks.OnReceive(c.Name)
	}
	return pkt, eof, err
}

// ReceiveOnce reads exactly one packet from index 0, drops it, and closes
// the port from the consumer side — intended for parameter-style inputs
// typically fed by an IIP.
func (p *InPort) ReceiveOnce(ctx context.Context) (any, error) {
	return p.ReceiveOnceAt(ctx, 0)
}

func (p *InPort) ReceiveOnceAt(ctx context.Context, index int) (any, error) {
	p.mu.Lock()
	if p.consumed[index] {
		p.mu.Unlock()
		return nil, ErrAlreadyConsumed
	}
	p.consumed[index] = true
	p.mu.Unlock()

	pkt, eof, err := p.ReceiveAt(ctx, index)
	if err != nil {
		return nil, err
	}
	if eof {
		p.CloseAt(index)
		return nil, nil
	}
	contents := pkt.Contents()
	pkt.Drop()
	p.CloseAt(index)
	return contents, nil
}

// IterPackets lazily yields packets from index 0 until end-of-stream.
func (p *InPort) IterPackets(ctx context.Context) iter.Seq[*packet.Packet] {
	return func(yield func(*packet.Packet) bool) {
		for {
			pkt, eof, err := p.Receive(ctx)
			if err != nil || eof {
				return
			}
			if !yield(pkt) {
				return
			}
		}
	}
}

// IterContents is IterPackets but yields payloads and drops each packet
// once the body has observed its contents.
func (p *InPort) IterContents(ctx context.Context) iter.Seq[any] {
	return func(yield func(any) bool) {
		for pkt := range p.IterPackets(ctx) {
			contents := pkt.Contents()
			pkt.Drop()
			if !yield(contents) {
				return
			}
		}
	}
}

// Close is the consumer-side close of index 0.
func (p *InPort) Close() { p.CloseAt(0) }

// CloseAt closes a specific array-port index from the consumer side.
// Idempotent. Any packets still queued are
// dropped and reported as a warning unless the port is declared
// drop-tolerant.
func (p *InPort) CloseAt(index int) {
	c, ok := p.conns[index]
	if !ok {
		return
	}
	already := c.DownstreamClosed()
	c.CloseDownstream()
	if already {
		return
	}
	n := c.DrainDropped()
	if n > 0 && !p.DropTolerant {
		logger.Warnf("port %s.%s: dropped %d packet(s) on close", p.component, p.Name, n)
	}
}

// Indices returns the currently connected array-port indices, in
// ascending order.
func (p *InPort) Indices() []int {
	out := make([]int, 0, len(p.conns))
	for i := range p.conns {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
