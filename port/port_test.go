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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowd/flowd/ptype"
)

func anyType() ptype.Type { t, _ := ptype.Lookup(ptype.AnyTypeName); return t }

func TestOutPortFanoutFidelity(t *testing.T) {
	ctx := context.Background()
	a := New(10, false)
	b := New(10, false)
	c := New(10, false)

	typ := ptype.Type{Name: "int", Cloneable: true, Clone: func(v any) any { return v }}
	out := NewOutPort(Spec{Name: "OUT", Type: typ, Fanout: true}, "Src", map[int][]*Connection{0: {a, b, c}}, Hooks{})

	for i := 0; i < 3; i++ {
		require.NoError(t, out.Send(ctx, i))
	}
	out.Close()

	for _, conn := range []*Connection{a, b, c} {
		in := NewInPort(Spec{Name: "IN", Type: typ}, "Dst", map[int]*Connection{0: conn}, Hooks{})
		var got []any
		for v := range in.IterContents(ctx) {
			got = append(got, v)
		}
		assert.Equal(t, []any{0, 1, 2}, got)
	}
}

func TestInPortReceiveOnceThenEOF(t *testing.T) {
	ctx := context.Background()
	conn2 := New(1, false)

	typ := anyType()
	in := NewInPort(Spec{Name: "PARAM", Type: typ}, "C", map[int]*Connection{0: conn2}, Hooks{})

	outConns := map[int][]*Connection{0: {conn2}}
	out := NewOutPort(Spec{Name: "OUT", Type: typ}, "Src", outConns, Hooks{})
	require.NoError(t, out.Send(ctx, 42))
	out.Close()

	v, err := in.ReceiveOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, eof, err := in.ReceiveAt(ctx, 0)
	require.NoError(t, err)
	assert.True(t, eof)
}

func TestOutPortSendTypeMismatch(t *testing.T) {
	ctx := context.Background()
	conn := New(1, false)
	intType := ptype.Type{Name: "int", Assert: func(v any) bool { _, ok := v.(int); return ok }}
	out := NewOutPort(Spec{Name: "OUT", Type: intType}, "Src", map[int][]*Connection{0: {conn}}, Hooks{})

	err := out.Send(ctx, "not an int")
	var mismatch *ptype.ErrTypeMismatch
	assert.ErrorAs(t, err, &mismatch)
}

func TestInPortCloseIsIdempotentWithQueuedPackets(t *testing.T) {
	ctx := context.Background()
	conn := New(4, false)
	typ := anyType()
	out := NewOutPort(Spec{Name: "OUT", Type: typ}, "Src", map[int][]*Connection{0: {conn}}, Hooks{})
	require.NoError(t, out.Send(ctx, 1))
	require.NoError(t, out.Send(ctx, 2))

	in := NewInPort(Spec{Name: "IN", Type: typ}, "Dst", map[int]*Connection{0: conn}, Hooks{})
	in.Close()
	assert.NotPanics(t, func() { in.Close() })
}
