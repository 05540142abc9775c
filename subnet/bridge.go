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

package subnet

import (
	"context"
	"sync"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/port"
	"github.com/flowd/flowd/ptype"
)

// bridgeInKind and bridgeOutKind are private component kinds: every
// subnet activation adds one instance of the relevant kind per declared
// boundary port, so the inner network's own scheduler carries traffic
// across the boundary exactly like any other connection.
const (
	bridgeInKind   = "flowd.subnet.bridge-in"
	bridgeOutKind  = "flowd.subnet.bridge-out"
	bridgePortName = "P"
	bridgeOptKey   = "bridge"
)

// bridge is the single-slot (capacity 1) handoff between a boundary
// forwarding goroutine (running in the outer component's Run) and the
// matching bridge component instance (running inside the inner
// network). The sending side closes ch once its own input reaches
// end-of-stream; the receiving side only reads from it.
type bridge struct {
	ch chan any
}

func newBridge() *bridge { return &bridge{ch: make(chan any, 1)} }

func init() {
	anyType, _ := ptype.Lookup(ptype.AnyTypeName)

	component.Register(component.Descriptor{
		Kind:        bridgeInKind,
		Description: "relays packets arriving on a subnet's external input port into the inner network",
		OutPorts:    []port.Spec{{Name: bridgePortName, Direction: port.Out, Type: anyType}},
		NewBody: func(opts common.Options) (component.Body, error) {
			bc, _ := opts[bridgeOptKey].(*bridge)
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				out := ports.Out(bridgePortName)
				defer out.Close()
				for {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case v, ok := <-bc.ch:
						if !ok {
							return nil
						}
						if err := out.Send(ctx, v); err != nil {
							return err
						}
					}
				}
			}), nil
		},
	})

	component.Register(component.Descriptor{
		Kind:        bridgeOutKind,
		Description: "relays packets produced inside the inner network out through a subnet's external output port",
		InPorts:     []port.Spec{{Name: bridgePortName, Direction: port.In, Type: anyType, Required: true}},
		NewBody: func(opts common.Options) (component.Body, error) {
			bc, _ := opts[bridgeOptKey].(*bridge)
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				defer close(bc.ch)
				in := ports.In(bridgePortName)
				for v := range in.IterContents(ctx) {
					select {
					case bc.ch <- v:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				return nil
			}), nil
		},
	})
}

// forwardIn copies every packet arriving on an outer input port into a
// bridge channel, then closes it so the matching inner bridge component
// observes end-of-stream. in may be nil if the boundary port was
// declared but left unconnected on the outer side; the bridge is closed
// immediately in that case.
func forwardIn(ctx context.Context, wg *sync.WaitGroup, in *port.InPort, bc *bridge) {
	defer wg.Done()
	defer close(bc.ch)
	if in == nil {
		return
	}
	for v := range in.IterContents(ctx) {
		select {
		case bc.ch <- v:
		case <-ctx.Done():
			return
		}
	}
}

// forwardOut copies every value the inner bridge component produced out
// through the outer output port, until the bridge closes. out may be nil
// if the boundary port was declared but left unconnected on the outer
// side; values are simply drained and dropped in that case.
func forwardOut(ctx context.Context, wg *sync.WaitGroup, out *port.OutPort, bc *bridge) {
	defer wg.Done()
	for v := range bc.ch {
		if out == nil {
			continue
		}
		if err := out.Send(ctx, v); err != nil {
			return
		}
	}
	if out != nil {
		out.Close()
	}
}
