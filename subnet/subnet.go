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

// Package subnet turns a whole network graph into a single component
// kind: a composite whose own input and output ports are bridged onto
// ports of components living inside a private, nested Network. From the
// outside a subnet is indistinguishable from any other registered
// component kind; it just happens to run a graph instead of a single
// function body.
package subnet

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/network"
	"github.com/flowd/flowd/port"
	"github.com/flowd/flowd/ptype"
)

// Builder constructs the inner network for one activation: add the
// component instances and connections that make up the subgraph, attach
// any IIPs, then return it without calling Run. Subnet calls Run itself,
// after wiring in the boundary bridges.
type Builder func() (*network.Network, error)

// BoundaryIn exposes one inner input port as a port on the composite.
// Target must name an input port of a component already added by
// Builder, with no connection or IIP of its own — subnet wires the
// bridge onto it.
type BoundaryIn struct {
	Name        string
	Type        ptype.Type
	Required    bool
	Description string
	Target      network.PortRef
}

// BoundaryOut exposes one inner output port as a port on the composite.
// Source must name an output port of a component already added by
// Builder, with no connection of its own.
type BoundaryOut struct {
	Name        string
	Type        ptype.Type
	Description string
	Source      network.PortRef
}

// Blueprint is everything needed to register a composite component kind.
type Blueprint struct {
	Kind        string
	Description string
	Build       Builder
	Ins         []BoundaryIn
	Outs        []BoundaryOut
}

func (bp Blueprint) descriptor() component.Descriptor {
	ins := make([]port.Spec, len(bp.Ins))
	for i, b := range bp.Ins {
		typ := b.Type
		if typ.Name == "" {
			typ, _ = ptype.Lookup(ptype.AnyTypeName)
		}
		ins[i] = port.Spec{Name: b.Name, Direction: port.In, Type: typ, Required: b.Required, Description: b.Description}
	}
	outs := make([]port.Spec, len(bp.Outs))
	for i, b := range bp.Outs {
		typ := b.Type
		if typ.Name == "" {
			typ, _ = ptype.Lookup(ptype.AnyTypeName)
		}
		outs[i] = port.Spec{Name: b.Name, Direction: port.Out, Type: typ, Description: b.Description}
	}
	return component.Descriptor{
		Kind:        bp.Kind,
		Description: bp.Description,
		InPorts:     ins,
		OutPorts:    outs,
		NewBody: func(common.Options) (component.Body, error) {
			return &body{bp: bp}, nil
		},
	}
}

// Register adds bp as a component kind. Panics if Kind is empty — a
// programming error, not a build-time one.
func Register(bp Blueprint) {
	if bp.Kind == "" {
		panic("subnet: Blueprint.Kind must not be empty")
	}
	component.Register(bp.descriptor())
}

type body struct {
	bp Blueprint
}

// Run builds the inner network fresh, wires a bridge component onto
// every declared boundary port, then drives the inner network and the
// boundary forwarding goroutines together until both are done.
func (b *body) Run(ctx context.Context, ports *component.Ports) error {
	inner, err := b.bp.Build()
	if err != nil {
		return errors.Wrap(err, "subnet: build inner network")
	}

	var wg sync.WaitGroup

	for _, bi := range b.bp.Ins {
		bc := newBridge()
		name := inboundBridgeName(bi.Name)
		if err := inner.AddComponent(name, bridgeInKind, common.Options{bridgeOptKey: bc}); err != nil {
			return errors.Wrapf(err, "subnet: wire boundary in %q", bi.Name)
		}
		if err := inner.Connect(network.Ref(name, bridgePortName), bi.Target, 0); err != nil {
			return errors.Wrapf(err, "subnet: wire boundary in %q", bi.Name)
		}
		wg.Add(1)
		go forwardIn(ctx, &wg, ports.In(bi.Name), bc)
	}

	for _, bo := range b.bp.Outs {
		bc := newBridge()
		name := outboundBridgeName(bo.Name)
		if err := inner.AddComponent(name, bridgeOutKind, common.Options{bridgeOptKey: bc}); err != nil {
			return errors.Wrapf(err, "subnet: wire boundary out %q", bo.Name)
		}
		if err := inner.Connect(bo.Source, network.Ref(name, bridgePortName), 0); err != nil {
			return errors.Wrapf(err, "subnet: wire boundary out %q", bo.Name)
		}
		wg.Add(1)
		go forwardOut(ctx, &wg, ports.Out(bo.Name), bc)
	}

	result, err := inner.Run(ctx)
	wg.Wait()
	if err != nil {
		return err
	}

	switch result.Status {
	case network.ExitErrored:
		var merr *multierror.Error
		for _, e := range result.Errors {
			merr = multierror.Append(merr, e)
		}
		return merr.ErrorOrNil()
	case network.ExitDeadlock:
		return errors.Errorf("subnet: inner network deadlocked: %v", result.Deadlocked)
	default:
		return nil
	}
}

func inboundBridgeName(boundary string) string  { return "$in:" + boundary }
func outboundBridgeName(boundary string) string { return "$out:" + boundary }
