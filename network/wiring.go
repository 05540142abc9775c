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

package network

import (
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/packet"
	"github.com/flowd/flowd/port"
)

// materializeLocked turns every pending IIP into a one-shot connection. Called
// once, holding n.mu, right before the first component is activated.
func (n *Network) materializeLocked() {
	for key, slot := range n.inSlots {
		if slot.source != sourceIIP {
			continue
		}
		p := packet.New(slot.iip, slot.spec.Type.Name, "iip:"+key.component)
		conn := port.NewIIP(p)
		conn.Name = "IIP -> " + key.String()
		slot.conn = conn
	}
}

// buildPortsLocked assembles the *component.Ports handed to one
// component's Body for the run, wiring every declared port to whatever
// connections (real or materialized-IIP) ended up bound to it.
func (n *Network) buildPortsLocked(name string, inst *component.Instance) *component.Ports {
	ins := make(map[string]*port.InPort, len(inst.Desc.InPorts))
	for _, spec := range inst.Desc.InPorts {
		conns := make(map[int]*port.Connection)
		for key, slot := range n.inSlots {
			if key.component != name || key.port != spec.Name || slot.conn == nil {
				continue
			}
			conns[key.index] = slot.conn
		}
		ins[spec.Name] = port.NewInPort(spec, name, conns, n.hooksFor(name, inst))
	}

	outs := make(map[string]*port.OutPort, len(inst.Desc.OutPorts))
	for _, spec := range inst.Desc.OutPorts {
		conns := make(map[int][]*port.Connection)
		for key, slot := range n.outSlots {
			if key.component != name || key.port != spec.Name {
				continue
			}
			conns[key.index] = slot.conns
		}
		outs[spec.Name] = port.NewOutPort(spec, name, conns, n.hooksFor(name, inst))
	}

	return component.NewPorts(ins, outs)
}

// hooksFor returns the port.Hooks closures that feed one component's
// traffic into the network's event stream, metrics, and lifecycle-state
// tracking (used by the deadlock monitor). inst is passed in directly
// rather than looked up, since this runs while buildPortsLocked already
// holds n.mu.
func (n *Network) hooksFor(name string, inst *component.Instance) port.Hooks {
	return port.Hooks{
		OnReceive: func(connName string) {
			n.emit(Event{Type: EventPacketReceived, Component: name, Other: connName})
		},
		OnSend: func(connName string) {
			n.emit(Event{Type: EventPacketSent, Component: name, Other: connName})
		},
		OnFull: func(connName string) {
			n.emit(Event{Type: EventConnectionFull, Component: name, Other: connName})
		},
		OnDrained: func(connName string) {
			n.emit(Event{Type: EventConnectionDrained, Component: name, Other: connName})
		},
		OnBlockReceive: func(connName string) {
			if inst != nil {
				inst.SetState(component.SuspendedReceive)
			}
			n.emit(Event{Type: EventComponentSuspended, Component: name, Other: connName})
		},
		OnBlockReceiveEnd: func(connName string) {
			if inst != nil {
				inst.SetState(component.Active)
			}
			n.emit(Event{Type: EventComponentResumed, Component: name, Other: connName})
		},
		OnBlockSend: func(connName string) {
			if inst != nil {
				inst.SetState(component.SuspendedSend)
			}
			n.emit(Event{Type: EventComponentSuspended, Component: name, Other: connName})
		},
		OnBlockSendEnd: func(connName string) {
			if inst != nil {
				inst.SetState(component.Active)
			}
			n.emit(Event{Type: EventComponentResumed, Component: name, Other: connName})
		},
	}
}
