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

// Package component implements the component contract: its static
// declaration surface, a kind registry, and the runtime lifecycle state
// machine. Concurrency and scheduling live in package network; this
// package only describes a component kind and wraps one named
// instance's state.
package component

import (
	"context"
	"sync/atomic"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/port"
)

// Body is one component kind's executable contract: "the
// body is invoked once per run with handles to its declared ports [...]
// expected to consume inputs until end-of-stream, emit outputs, then
// return."
type Body interface {
	Run(ctx context.Context, ports *Ports) error
}

// BodyFunc adapts a plain function to Body.
type BodyFunc func(ctx context.Context, ports *Ports) error

func (f BodyFunc) Run(ctx context.Context, ports *Ports) error { return f(ctx, ports) }

// NewBodyFunc constructs a fresh Body for one activation, given the
// build-time options passed to `add_component`. Components are reset to
// not-initialized and (re)built per run.
type NewBodyFunc func(opts common.Options) (Body, error)

// Descriptor is the static metadata attached to a component kind: ports,
// description, and body constructor — the payload a `describe_component`
// introspection call reports.
type Descriptor struct {
	Kind        string
	InPorts     []port.Spec
	OutPorts    []port.Spec
	Description string
	NewBody     NewBodyFunc
}

func (d Descriptor) inPort(name string) (port.Spec, bool) {
	for _, s := range d.InPorts {
		if s.Name == name {
			return s, true
		}
	}
	return port.Spec{}, false
}

func (d Descriptor) outPort(name string) (port.Spec, bool) {
	for _, s := range d.OutPorts {
		if s.Name == name {
			return s, true
		}
	}
	return port.Spec{}, false
}

// InPort looks up a declared input port spec by name.
func (d Descriptor) InPort(name string) (port.Spec, bool) { return d.inPort(name) }

// OutPort looks up a declared output port spec by name.
func (d Descriptor) OutPort(name string) (port.Spec, bool) { return d.outPort(name) }

// Instance is one named component inside a Network: a Descriptor plus the
// runtime lifecycle state.
type Instance struct {
	Name string
	Kind string
	Desc Descriptor

	state   atomic.Int32
	errOnce atomic.Pointer[error]
}

// NewInstance creates a component in state not-initialized.
func NewInstance(name, kind string, desc Descriptor) *Instance {
	inst := &Instance{Name: name, Kind: kind, Desc: desc}
	inst.state.Store(int32(NotInitialized))
	return inst
}

// State returns the current lifecycle state.
func (i *Instance) State() State { return State(i.state.Load()) }

// SetState performs a lifecycle transition. The network is the only
// caller; it is responsible for only making legal transitions.
func (i *Instance) SetState(s State) { i.state.Store(int32(s)) }

// Fail records a ComponentError and transitions to Errored.
func (i *Instance) Fail(err error) {
	i.errOnce.Store(&err)
	i.SetState(Errored)
}

// Err returns the recorded failure, if any.
func (i *Instance) Err() error {
	p := i.errOnce.Load()
	if p == nil {
		return nil
	}
	return *p
}
