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

import "sort"

// ComponentStatus is one component's reported state, the per-component
// row of a `status` control-surface call.
type ComponentStatus struct {
	Name  string
	Kind  string
	State string
	Err   string
}

// Status reports the network's coarse run state plus every component's
// current lifecycle state.
func (n *Network) Status() (RunState, []ComponentStatus) {
	names := n.ComponentNames()
	out := make([]ComponentStatus, 0, len(names))
	for _, name := range names {
		inst, ok := n.Component(name)
		if !ok {
			continue
		}
		cs := ComponentStatus{Name: name, Kind: inst.Kind, State: inst.State().String()}
		if err := inst.Err(); err != nil {
			cs.Err = err.Error()
		}
		out = append(out, cs)
	}
	return n.State(), out
}

// ConnectionStatus is one connection's reported depth, the per-edge row
// of a `list_connections` call.
type ConnectionStatus struct {
	Name             string
	Len              int
	Capacity         int
	UpstreamClosed   bool
	DownstreamClosed bool
}

// ListConnections reports every real (non-IIP) connection's queue depth
// and close state.
func (n *Network) ListConnections() []ConnectionStatus {
	conns := n.Connections()
	out := make([]ConnectionStatus, 0, len(conns))
	for _, c := range conns {
		out = append(out, ConnectionStatus{
			Name:             c.Name,
			Len:              c.Len(),
			Capacity:         c.Capacity(),
			UpstreamClosed:   c.UpstreamClosed(),
			DownstreamClosed: c.DownstreamClosed(),
		})
	}
	return out
}

// IIPStatus is one attached Initial Information Packet's target slot and
// value, the per-slot row of a `list_iips` call.
type IIPStatus struct {
	Target PortRef
	Value  any
}

// ListIIPs reports every input port slot currently fed by an Initial
// Information Packet rather than a live connection.
func (n *Network) ListIIPs() []IIPStatus {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]IIPStatus, 0)
	for key, slot := range n.inSlots {
		if slot.source != sourceIIP {
			continue
		}
		out = append(out, IIPStatus{
			Target: PortRef{Component: key.component, Port: key.port, Index: key.index, HasIndex: key.index != 0},
			Value:  slot.iip,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Target.String() < out[j].Target.String() })
	return out
}

// Deadlocked reports whether the last Run ended in a detected deadlock,
// and the set of components suspended in receive or send that triggered it.
func (n *Network) Deadlocked() (bool, []string) {
	if !n.deadlocked.Load() {
		return false, nil
	}
	set := n.deadlockSet.Load()
	if set == nil {
		return true, nil
	}
	return true, *set
}
