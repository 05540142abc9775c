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
	"sync"

	"github.com/flowd/flowd/packet"
	"github.com/flowd/flowd/ptype"
)

// OutPort is the runtime handle to an output port.
type OutPort struct {
	Spec

	component string
	conns     map[int][]*Connection // index -> downstream connections (len>1 only if Fanout)
	hooks     Hooks

	mu sync.Mutex
}

// NewOutPort wires an OutPort around its (possibly per-index,
// possibly fanned-out) downstream connections.
func NewOutPort(spec Spec, component string, conns map[int][]*Connection, hooks Hooks) *OutPort {
	return &OutPort{Spec: spec, component: component, conns: conns, hooks: hooks}
}

func (p *OutPort) connsAt(index int) ([]*Connection, error) {
	cs, ok := p.conns[index]
	if !ok || len(cs) == 0 {
		return nil, ErrNotConnected
	}
	return cs, nil
}

// Connected reports whether an index has at least one downstream
// connection, letting a component skip an optional branch output rather
// than take a guaranteed ErrNotConnected from Send.
func (p *OutPort) Connected(index int) bool {
	return len(p.conns[index]) > 0
}

// Send validates contents against the port's declared type, wraps it in a
// new Packet tagged with the owning component, and delivers it to every
// downstream connection on index 0, cloning the payload per downstream
// when fanned out.
func (p *OutPort) Send(ctx context.Context, contents any) error {
	return p.SendAt(ctx, 0, contents)
}

// SendAt is Send for a specific array-port index.
func (p *OutPort) SendAt(ctx context.Context, index int, contents any) error {
	if !p.Type.Accepts(contents) {
		return &ptype.ErrTypeMismatch{Port: p.Name, Type: p.Type.Name, Got: contents}
	}
	conns, err := p.connsAt(index)
	if err != nil {
		return err
	}
	return p.dispatch(ctx, conns, func(creator string) *packet.Packet {
		return packet.New(contents, p.Type.Name, creator)
	})
}

// OpenBracket sends an open-bracket marker on index 0.
func (p *OutPort) OpenBracket(ctx context.Context, label string) error {
	return p.OpenBracketAt(ctx, 0, label)
}

func (p *OutPort) OpenBracketAt(ctx context.Context, index int, label string) error {
	conns, err := p.connsAt(index)
	if err != nil {
		return err
	}
	return p.dispatch(ctx, conns, func(creator string) *packet.Packet {
		return packet.OpenBracket(label, creator)
	})
}

// CloseBracket sends a close-bracket marker on index 0.
func (p *OutPort) CloseBracket(ctx context.Context, label string) error {
	return p.CloseBracketAt(ctx, 0, label)
}

func (p *OutPort) CloseBracketAt(ctx context.Context, index int, label string) error {
	conns, err := p.connsAt(index)
	if err != nil {
		return err
	}
	return p.dispatch(ctx, conns, func(creator string) *packet.Packet {
		return packet.CloseBracket(label, creator)
	})
}

func (p *OutPort) dispatch(ctx context.Context, conns []*Connection, build func(creator string) *packet.Packet) error {
	first := build(p.component)
	for i, c := range conns {
		pkt := first
		if i > 0 {
			// Fan-out: each downstream gets its own packet instance.
			// Cloning is only reachable here because `connect` rejects a
			// fan-out build on a non-cloneable type.
			cloned := p.Type.Clone(first.Contents())
			pkt = packet.New(cloned, p.Type.Name, p.component)
		}

		full := c.Len() >= c.Capacity()
		if full && p.hooks.OnFull != nil {
			p.hooks.OnFull(c.Name)
		}
		if p.hooks.OnBlockSend != nil {
			p.hooks.OnBlockSend(c.Name)
		}
		err := c.Send(ctx, pkt)
		if p.hooks.OnBlockSendEnd != nil {
			p.hooks.OnBlockSendEnd(c.Name)
		}
		if err != nil {
			return err
		}
		if full && p.hooks.OnDrained != nil {
			p.hooks.OnDrained(c.Name)
		}
		if p.hooks.OnSend != nil {
			p.hooks.OnSend(c.Name)
		}
	}
	return nil
}

// Close is the producer-side close of index 0: idempotent, marks every
// downstream connection upstream-closed.
func (p *OutPort) Close() { p.CloseAt(0) }

// CloseAt closes a specific array-port index from the producer side.
func (p *OutPort) CloseAt(index int) {
	for _, c := range p.conns[index] {
		c.CloseUpstream()
	}
}

// CloseAll closes every index of this port, used when the network drives
// an errored component's outputs closed.
func (p *OutPort) CloseAll() {
	for idx := range p.conns {
		p.CloseAt(idx)
	}
}
