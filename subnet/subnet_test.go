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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/network"
	"github.com/flowd/flowd/port"
	"github.com/flowd/flowd/ptype"
)

func anyType(t *testing.T) ptype.Type {
	tp, ok := ptype.Lookup(ptype.AnyTypeName)
	require.True(t, ok)
	return tp
}

// registers kind as a plain component that multiplies every received int
// by two.
func registerDoubler(t *testing.T, kind string) {
	t.Helper()
	at := anyType(t)
	component.Register(component.Descriptor{
		Kind:     kind,
		InPorts:  []port.Spec{{Name: "IN", Direction: port.In, Type: at, Required: true}},
		OutPorts: []port.Spec{{Name: "OUT", Direction: port.Out, Type: at}},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				in, out := ports.In("IN"), ports.Out("OUT")
				defer out.Close()
				for v := range in.IterContents(ctx) {
					if err := out.Send(ctx, v.(int)*2); err != nil {
						return err
					}
				}
				return nil
			}), nil
		},
	})
}

func TestSubnetBridgesBoundaryPorts(t *testing.T) {
	registerDoubler(t, "subnet-test.doubler")

	bp := Blueprint{
		Kind: "subnet-test.double-composite",
		Build: func() (*network.Network, error) {
			inner := network.New("inner", network.Options{})
			if err := inner.AddComponent("d", "subnet-test.doubler", common.NewOptions()); err != nil {
				return nil, err
			}
			return inner, nil
		},
		Ins:  []BoundaryIn{{Name: "IN", Target: network.Ref("d", "IN"), Required: true}},
		Outs: []BoundaryOut{{Name: "OUT", Source: network.Ref("d", "OUT")}},
	}
	Register(bp)

	at := anyType(t)
	component.Register(component.Descriptor{
		Kind:     "subnet-test.source",
		OutPorts: []port.Spec{{Name: "OUT", Direction: port.Out, Type: at}},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				out := ports.Out("OUT")
				defer out.Close()
				for _, v := range []int{1, 2, 3} {
					if err := out.Send(ctx, v); err != nil {
						return err
					}
				}
				return nil
			}), nil
		},
	})

	var got []int
	component.Register(component.Descriptor{
		Kind:    "subnet-test.sink",
		InPorts: []port.Spec{{Name: "IN", Direction: port.In, Type: at, Required: true}},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				for v := range ports.In("IN").IterContents(ctx) {
					got = append(got, v.(int))
				}
				return nil
			}), nil
		},
	})

	outer := network.New("outer", network.Options{})
	require.NoError(t, outer.AddComponent("src", "subnet-test.source", common.NewOptions()))
	require.NoError(t, outer.AddComponent("cmp", bp.Kind, common.NewOptions()))
	require.NoError(t, outer.AddComponent("snk", "subnet-test.sink", common.NewOptions()))
	require.NoError(t, outer.Connect(network.Ref("src", "OUT"), network.Ref("cmp", "IN"), 1))
	require.NoError(t, outer.Connect(network.Ref("cmp", "OUT"), network.Ref("snk", "IN"), 1))

	result, err := outer.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, network.ExitOK, result.Status)
	assert.Equal(t, []int{2, 4, 6}, got)
}
