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

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowd/flowd/confengine"
	"github.com/flowd/flowd/control"
	"github.com/flowd/flowd/network"
	"github.com/flowd/flowd/widgets"
)

func TestDescribeSnapshotsComponentsAndConnections(t *testing.T) {
	conf, err := confengine.LoadContent([]byte("{}"))
	require.NoError(t, err)

	s, err := control.New("graph-test", conf)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.AddComponent(control.AddComponentRequest{Name: "src", Kind: widgets.KindSource}))
	require.NoError(t, s.AddComponent(control.AddComponentRequest{Name: "out", Kind: widgets.KindOutput}))
	require.NoError(t, s.Connect(control.ConnectRequest{
		Src:      network.Ref("src", "OUT"),
		Dst:      network.Ref("out", "IN"),
		Capacity: 1,
	}))
	require.NoError(t, s.Initialize(network.Ref("src", "IN"), "hello"))

	desc := Describe(s)
	assert.Len(t, desc.Components, 2)
	assert.Len(t, desc.Connections, 1)
	assert.Equal(t, 1, desc.Connections[0].Capacity)

	var src Component
	for _, c := range desc.Components {
		if c.Name == "src" {
			src = c
		}
	}
	require.Len(t, src.InPorts, 1)
	assert.Equal(t, "IN", src.InPorts[0].Name)
	assert.True(t, src.InPorts[0].Required)
	require.Len(t, src.OutPorts, 1)
	assert.Equal(t, "OUT", src.OutPorts[0].Name)

	require.Len(t, desc.IIPs, 1)
	assert.Equal(t, "src.IN", desc.IIPs[0].Target)
	assert.Equal(t, "hello", desc.IIPs[0].Value)
	assert.Equal(t, widgets.TextType.Name, desc.IIPs[0].Type)
}
