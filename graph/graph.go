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

// Package graph is the plain Go struct tree a control surface reports a
// built network's shape as: which components exist (with the ports
// their kind declares, composite boundary ports included), how their
// connections are wired, each connection's live queue state, and every
// Initial Information Packet still attached. It is an introspection
// snapshot, not a format a network can be built or reloaded from —
// serializing a graph description to or from an on-disk format is
// explicitly not this package's job.
package graph

import (
	"github.com/flowd/flowd/control"
	"github.com/flowd/flowd/port"
)

// Port is one declared port of a component kind, boundary ports of a
// subnet composite included — a subnet's descriptor carries exactly the
// ports its Blueprint declared as BoundaryIn/BoundaryOut, so reporting a
// component's own declared ports here doubles as reporting a composite's
// boundary without a separate code path.
type Port struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Fanout      bool   `json:"fanout,omitempty"`
	Description string `json:"description,omitempty"`
}

// Component is one built component instance's identity, current
// lifecycle state, and the ports its registered kind declares.
type Component struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	State    string `json:"state"`
	Err      string `json:"err,omitempty"`
	InPorts  []Port `json:"inports,omitempty"`
	OutPorts []Port `json:"outports,omitempty"`
}

// Connection is one built connection's queue occupancy and close state.
type Connection struct {
	Name             string `json:"name"`
	Len              int    `json:"len"`
	Capacity         int    `json:"capacity"`
	UpstreamClosed   bool   `json:"upstreamClosed"`
	DownstreamClosed bool   `json:"downstreamClosed"`
}

// IIP is one input port slot fed by an Initial Information Packet rather
// than a live connection.
type IIP struct {
	Target string `json:"tgt"`
	Value  any    `json:"value"`
	Type   string `json:"type,omitempty"`
}

// Description is a full snapshot of a Surface's wrapped network: every
// component (with its declared ports), every connection, every attached
// IIP, and the network's own run state.
type Description struct {
	State       string       `json:"state"`
	Components  []Component  `json:"components"`
	Connections []Connection `json:"connections"`
	IIPs        []IIP        `json:"iips"`
}

// Describe snapshots s's wrapped network into a Description, the payload
// of a control surface's full-graph introspection route.
func Describe(s *control.Surface) Description {
	state, statuses := s.Status()
	kindOf := make(map[string]string, len(statuses))
	components := make([]Component, 0, len(statuses))
	for _, cs := range statuses {
		kindOf[cs.Name] = cs.Kind
		c := Component{Name: cs.Name, Kind: cs.Kind, State: cs.State, Err: cs.Err}
		if desc, err := s.DescribeComponent(cs.Kind); err == nil {
			c.InPorts = ports(desc.InPorts)
			c.OutPorts = ports(desc.OutPorts)
		}
		components = append(components, c)
	}

	conns := s.ListConnections()
	connections := make([]Connection, 0, len(conns))
	for _, c := range conns {
		connections = append(connections, Connection{
			Name:             c.Name,
			Len:              c.Len,
			Capacity:         c.Capacity,
			UpstreamClosed:   c.UpstreamClosed,
			DownstreamClosed: c.DownstreamClosed,
		})
	}

	rawIIPs := s.ListIIPs()
	iips := make([]IIP, 0, len(rawIIPs))
	for _, i := range rawIIPs {
		iip := IIP{Target: i.Target.String(), Value: i.Value}
		if kind, ok := kindOf[i.Target.Component]; ok {
			if desc, err := s.DescribeComponent(kind); err == nil {
				if spec, ok := desc.InPort(i.Target.Port); ok {
					iip.Type = spec.Type.Name
				}
			}
		}
		iips = append(iips, iip)
	}

	return Description{State: state.String(), Components: components, Connections: connections, IIPs: iips}
}

func ports(specs []port.Spec) []Port {
	out := make([]Port, 0, len(specs))
	for _, p := range specs {
		out = append(out, Port{
			Name:        p.Name,
			Type:        p.Type.Name,
			Required:    p.Required,
			Fanout:      p.Fanout,
			Description: p.Description,
		})
	}
	return out
}
