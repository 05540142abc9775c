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

// Package control is the control surface: every external build/introspect/
// run operation on a Network, wrapped with metrics and exposed as a small
// set of JSON HTTP routes. It owns config loading, so it is also where the
// optional Prometheus-style metrics storage gets constructed and injected.
package control

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/confengine"
	"github.com/flowd/flowd/internal/metricstorage"
	"github.com/flowd/flowd/internal/pubsub"
	"github.com/flowd/flowd/network"
)

// Config is the control surface's own section of the config tree; the
// network's own tuning knobs live alongside it rather than inside
// network.Options directly, since network.Options carries no config tags
// of its own (a Network can be built outside of any config file, e.g. in
// tests).
type Config struct {
	DefaultCapacity int  `config:"defaultCapacity"`
	StrictBrackets  bool `config:"strictBrackets"`
	StrictDeadlock  bool `config:"strictDeadlock"`
}

// Surface owns one Network's whole lifecycle: the build operations that
// edit its graph, Run/Terminate, and the introspection calls a `status`
// or `list_components` request needs. It is safe for concurrent use by
// multiple HTTP handlers — every method either delegates directly to a
// Network method (already synchronized) or only touches its own mutex.
type Surface struct {
	net     *network.Network
	metrics *metricstorage.Storage

	mu      sync.Mutex
	running bool

	eventsQueue pubsub.Queue
	eventsDone  chan struct{}
}

// New loads control and metrics-storage config from conf and builds an
// idle Network ready to accept build operations. metrics is nil (not an
// error) when the config's metricsStorage.enabled is false or absent.
func New(name string, conf *confengine.Config) (*Surface, error) {
	var cfg Config
	if conf.Has("control") {
		if err := conf.UnpackChild("control", &cfg); err != nil {
			return nil, errors.Wrap(err, "control: load config")
		}
	}

	metrics, err := metricstorage.New(conf)
	if err != nil {
		return nil, errors.Wrap(err, "control: build metrics storage")
	}

	net := network.New(name, network.Options{
		DefaultCapacity: cfg.DefaultCapacity,
		StrictBrackets:  cfg.StrictBrackets,
		StrictDeadlock:  cfg.StrictDeadlock,
	})

	s := &Surface{net: net, metrics: metrics}
	if metrics != nil {
		s.eventsQueue = net.Subscribe(eventQueueSize)
		s.eventsDone = make(chan struct{})
		go s.forwardEventsToStorage()
	}
	return s, nil
}

// Network returns the wrapped Network, for callers (cmd, tests) that want
// direct access beyond the operations Surface exposes.
func (s *Surface) Network() *network.Network { return s.net }

// Close releases the metrics storage's background goroutines, if any
// were started. Safe to call even when metrics storage is disabled.
func (s *Surface) Close() {
	if s.metrics == nil {
		return
	}
	close(s.eventsDone)
	s.net.Unsubscribe(s.eventsQueue)
	s.eventsQueue.Close()
	s.metrics.Close()
}

// AddComponent instantiates a registered component kind under a unique
// name inside the wrapped network.
func (s *Surface) AddComponent(req AddComponentRequest) error {
	err := s.net.AddComponent(req.Name, req.Kind, req.Options)
	recordBuildOp(opAddComponent, err)
	return err
}

// RemoveComponent deletes a component and every connection or IIP
// touching it.
func (s *Surface) RemoveComponent(name string) error {
	err := s.net.RemoveComponent(name)
	recordBuildOp(opRemoveComponent, err)
	return err
}

// Connect wires one output port slot to one input port slot.
func (s *Surface) Connect(req ConnectRequest) error {
	err := s.net.Connect(req.Src, req.Dst, req.Capacity)
	recordBuildOp(opConnect, err)
	return err
}

// Disconnect removes a previously built connection.
func (s *Surface) Disconnect(src, dst network.PortRef) error {
	err := s.net.Disconnect(src, dst)
	recordBuildOp(opDisconnect, err)
	return err
}

// Initialize attaches an Initial Information Packet to an input port slot.
func (s *Surface) Initialize(dst network.PortRef, value any) error {
	err := s.net.Initialize(dst, value)
	recordBuildOp(opInitialize, err)
	return err
}

// Uninitialize removes a previously attached IIP.
func (s *Surface) Uninitialize(dst network.PortRef) error {
	err := s.net.Uninitialize(dst)
	recordBuildOp(opUninitialize, err)
	return err
}

// Validate checks the graph without starting it.
func (s *Surface) Validate() error {
	return s.net.Validate()
}

// Run starts the network in the background and returns immediately;
// the run's outcome is observed through Status or the event stream.
// Returns an error synchronously only if a run is already in flight.
func (s *Surface) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return network.ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	runsTotal.Inc()
	go func() {
		result, err := s.net.Run(ctx)
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		if err != nil {
			return
		}
		recordResult(result)
	}()
	return nil
}

// Terminate requests that the running network wind down.
func (s *Surface) Terminate() {
	s.net.Terminate()
}

// Status reports the network's run state and every component's state.
func (s *Surface) Status() (network.RunState, []network.ComponentStatus) {
	return s.net.Status()
}

// ListComponents lists every component name in build order.
func (s *Surface) ListComponents() []string {
	return s.net.ComponentNames()
}

// ListConnections reports every real connection's queue depth and close
// state.
func (s *Surface) ListConnections() []network.ConnectionStatus {
	return s.net.ListConnections()
}

// ListIIPs reports every input port slot currently fed by an Initial
// Information Packet.
func (s *Surface) ListIIPs() []network.IIPStatus {
	return s.net.ListIIPs()
}

// DescribeComponent reports a registered component kind's declared ports
// and description, the payload of a `describe_component` call.
func (s *Surface) DescribeComponent(kind string) (component.Descriptor, error) {
	desc, ok := component.Lookup(kind)
	if !ok {
		return component.Descriptor{}, network.ErrUnknownComponent
	}
	return desc, nil
}

// ListKinds lists every registered component kind, for a
// `list_components`-style kind catalog rather than a graph's own
// instance list.
func (s *Surface) ListKinds() []string {
	return component.Kinds()
}

// Subscribe returns a queue that receives every Event published from
// this surface's network from now on.
func (s *Surface) Subscribe(size int) pubsub.Queue { return s.net.Subscribe(size) }

// Unsubscribe stops delivery to a previously subscribed queue.
func (s *Surface) Unsubscribe(q pubsub.Queue) { s.net.Unsubscribe(q) }

// AddComponentRequest is the JSON body of an `add_component` call.
type AddComponentRequest struct {
	Name    string         `json:"name"`
	Kind    string         `json:"kind"`
	Options map[string]any `json:"options"`
}

// ConnectRequest is the JSON body of a `connect` call.
type ConnectRequest struct {
	Src      network.PortRef `json:"src"`
	Dst      network.PortRef `json:"dst"`
	Capacity int              `json:"capacity"`
}
