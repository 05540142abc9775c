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

package component

import "github.com/flowd/flowd/port"

// Ports bundles the handles a Body is given for the duration of one
// activation: a body is invoked once per run with handles to its
// declared ports. A Body must not retain these beyond its Run return.
type Ports struct {
	ins  map[string]*port.InPort
	outs map[string]*port.OutPort
}

// NewPorts is called by network when activating a component.
func NewPorts(ins map[string]*port.InPort, outs map[string]*port.OutPort) *Ports {
	return &Ports{ins: ins, outs: outs}
}

// In returns the named input port, or nil if the component has no such
// declared port.
func (p *Ports) In(name string) *port.InPort { return p.ins[name] }

// Out returns the named output port, or nil if the component has no such
// declared port.
func (p *Ports) Out(name string) *port.OutPort { return p.outs[name] }

// InNames returns the declared input port names in no particular order.
func (p *Ports) InNames() []string {
	names := make([]string, 0, len(p.ins))
	for n := range p.ins {
		names = append(names, n)
	}
	return names
}

// OutNames returns the declared output port names in no particular
// order.
func (p *Ports) OutNames() []string {
	names := make([]string, 0, len(p.outs))
	for n := range p.outs {
		names = append(names, n)
	}
	return names
}

// CloseAllOut closes every output port (all array indices), used by the
// network to drive an errored component's downstreams to end-of-stream.
func (p *Ports) CloseAllOut() {
	for _, o := range p.outs {
		o.CloseAll()
	}
}

// CloseAllIn closes every input port (all array indices), used by the
// network to make an errored component's upstreams observe
// DownstreamClosed.
func (p *Ports) CloseAllIn() {
	for _, i := range p.ins {
		for _, idx := range i.Indices() {
			i.CloseAt(idx)
		}
	}
}
