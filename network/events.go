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

import (
	"github.com/flowd/flowd/internal/fasttime"
	"github.com/flowd/flowd/internal/pubsub"
)

// Event kinds published on the network's event stream.
const (
	EventComponentAdded     = "component-added"
	EventConnected          = "connected"
	EventComponentStarted   = "component-started"
	EventComponentSuspended = "component-suspended"
	EventComponentResumed   = "component-resumed"
	EventComponentTerminated = "component-terminated"
	EventComponentErrored   = "component-errored"
	EventPacketSent         = "packet-sent"
	EventPacketReceived     = "packet-received"
	EventConnectionFull     = "connection-full"
	EventConnectionDrained  = "connection-drained"
	EventNetworkStarted     = "network-started"
	EventNetworkTerminated  = "network-terminated"
	EventNetworkDeadlocked  = "network-deadlocked"
)

// Event is one entry on the network's event stream.
type Event struct {
	Type      string
	Component string
	Other     string // e.g. a connection name, or the deadlocked component set joined
	Time      int64
	Message   string
}

// Subscribe returns a queue that receives every Event published from now
// on. The queue has bounded capacity; a slow subscriber drops events
// rather than stalling the network (internal/pubsub push-or-drop
// semantics).
func (n *Network) Subscribe(size int) pubsub.Queue {
	return n.events.Subscribe(size)
}

// Unsubscribe stops delivery to a previously subscribed queue.
func (n *Network) Unsubscribe(q pubsub.Queue) {
	n.events.Unsubscribe(q)
}

func (n *Network) emit(e Event) {
	e.Time = fasttime.UnixTimestamp()
	n.events.Publish(e)
}
