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

package control

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/confengine"
	"github.com/flowd/flowd/network"
	"github.com/flowd/flowd/port"
	"github.com/flowd/flowd/ptype"
)

func emptyConfig(t *testing.T) *confengine.Config {
	t.Helper()
	conf, err := confengine.LoadContent([]byte("{}"))
	require.NoError(t, err)
	return conf
}

func metricsEnabledConfig(t *testing.T) *confengine.Config {
	t.Helper()
	conf, err := confengine.LoadContent([]byte("metricsStorage:\n  enabled: true\n"))
	require.NoError(t, err)
	return conf
}

func TestSurfaceBuildsAndRunsAGraph(t *testing.T) {
	at, ok := ptype.Lookup(ptype.AnyTypeName)
	require.True(t, ok)

	component.Register(component.Descriptor{
		Kind:     "control-test.source",
		OutPorts: []port.Spec{{Name: "OUT", Direction: port.Out, Type: at}},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				out := ports.Out("OUT")
				defer out.Close()
				return out.Send(ctx, "hello")
			}), nil
		},
	})
	component.Register(component.Descriptor{
		Kind:    "control-test.sink",
		InPorts: []port.Spec{{Name: "IN", Direction: port.In, Type: at, Required: true}},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				_, _, err := ports.In("IN").Receive(ctx)
				return err
			}), nil
		},
	})

	s, err := New("ctrl-test", emptyConfig(t))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.AddComponent(AddComponentRequest{Name: "src", Kind: "control-test.source"}))
	require.NoError(t, s.AddComponent(AddComponentRequest{Name: "snk", Kind: "control-test.sink"}))
	require.NoError(t, s.Connect(ConnectRequest{
		Src:      network.Ref("src", "OUT"),
		Dst:      network.Ref("snk", "IN"),
		Capacity: 1,
	}))

	assert.NoError(t, s.Validate())
	assert.Contains(t, s.ListComponents(), "src")
	assert.Contains(t, s.ListKinds(), "control-test.sink")
	assert.Empty(t, s.ListIIPs())

	require.NoError(t, s.AddComponent(AddComponentRequest{Name: "snk2", Kind: "control-test.sink"}))
	require.NoError(t, s.Initialize(network.Ref("snk2", "IN"), "direct"))
	iips := s.ListIIPs()
	require.Len(t, iips, 1)
	assert.Equal(t, network.Ref("snk2", "IN"), iips[0].Target)
	assert.Equal(t, "direct", iips[0].Value)

	desc, err := s.DescribeComponent("control-test.source")
	require.NoError(t, err)
	assert.Equal(t, "control-test.source", desc.Kind)

	require.NoError(t, s.Run(context.Background()))
	assert.ErrorIs(t, s.Run(context.Background()), network.ErrAlreadyRunning)

	require.Eventually(t, func() bool {
		state, _ := s.Status()
		return state == network.Terminated
	}, 2*time.Second, 10*time.Millisecond)
}

// TestSurfaceRecordsEventsToMetricsStorage checks that once metrics
// storage is enabled, a run's network.Events actually reach it: the
// wiring is a background forwarder (control/metrics_storage.go), not a
// direct call from network, so this is the only way to catch it silently
// going dark again.
func TestSurfaceRecordsEventsToMetricsStorage(t *testing.T) {
	at, ok := ptype.Lookup(ptype.AnyTypeName)
	require.True(t, ok)

	component.Register(component.Descriptor{
		Kind:     "control-test.metrics-source",
		OutPorts: []port.Spec{{Name: "OUT", Direction: port.Out, Type: at}},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				out := ports.Out("OUT")
				defer out.Close()
				return out.Send(ctx, "hello")
			}), nil
		},
	})
	component.Register(component.Descriptor{
		Kind:    "control-test.metrics-sink",
		InPorts: []port.Spec{{Name: "IN", Direction: port.In, Type: at, Required: true}},
		NewBody: func(opts common.Options) (component.Body, error) {
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				_, _, err := ports.In("IN").Receive(ctx)
				return err
			}), nil
		},
	})

	s, err := New("ctrl-metrics-test", metricsEnabledConfig(t))
	require.NoError(t, err)
	defer s.Close()
	require.NotNil(t, s.metrics)

	require.NoError(t, s.AddComponent(AddComponentRequest{Name: "src", Kind: "control-test.metrics-source"}))
	require.NoError(t, s.AddComponent(AddComponentRequest{Name: "snk", Kind: "control-test.metrics-sink"}))
	require.NoError(t, s.Connect(ConnectRequest{
		Src:      network.Ref("src", "OUT"),
		Dst:      network.Ref("snk", "IN"),
		Capacity: 1,
	}))
	require.NoError(t, s.Run(context.Background()))

	require.Eventually(t, func() bool {
		state, _ := s.Status()
		return state == network.Terminated
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		var buf bytes.Buffer
		s.metrics.WritePrometheus(&buf)
		return strings.Contains(buf.String(), "fbp_events_total")
	}, 2*time.Second, 10*time.Millisecond)
}
