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

import "fmt"

// PortRef names one slot of one component's port: a plain index-less
// reference addresses index 0 of a single-valued port, or slot 0 of an
// array port before HasIndex is set.
type PortRef struct {
	Component string `json:"component"`
	Port      string `json:"port"`
	Index     int    `json:"index,omitempty"`
	HasIndex  bool   `json:"hasIndex,omitempty"`
}

// Ref builds a PortRef to a non-array port or index 0 of an array port.
func Ref(component, port string) PortRef {
	return PortRef{Component: component, Port: port}
}

// RefAt builds a PortRef to one index of an array port.
func RefAt(component, port string, index int) PortRef {
	return PortRef{Component: component, Port: port, Index: index, HasIndex: true}
}

func (r PortRef) String() string {
	if r.HasIndex {
		return fmt.Sprintf("%s.%s[%d]", r.Component, r.Port, r.Index)
	}
	return fmt.Sprintf("%s.%s", r.Component, r.Port)
}

func (r PortRef) slot() slotKey {
	idx := r.Index
	if !r.HasIndex {
		idx = 0
	}
	return slotKey{component: r.Component, port: r.Port, index: idx}
}

type slotKey struct {
	component string
	port      string
	index     int
}

func (k slotKey) String() string { return fmt.Sprintf("%s.%s[%d]", k.component, k.port, k.index) }
