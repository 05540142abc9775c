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
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/internal/pubsub"
	"github.com/flowd/flowd/port"
)

// RunState is the coarse lifecycle of the network as a whole, reported by
// Status and the event stream.
type RunState int32

const (
	Idle RunState = iota
	Running
	Terminating
	Terminated
	Errored
)

func (s RunState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminating:
		return "terminating"
	case Terminated:
		return "terminated"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

type slotSource int

const (
	sourceNone slotSource = iota
	sourceConnection
	sourceIIP
)

type inSlot struct {
	spec   port.Spec
	source slotSource
	conn   *port.Connection
	iip    any
}

type outSlot struct {
	spec  port.Spec
	conns []*port.Connection
}

// Options configures a Network at construction time. The zero value is
// usable; every field has a sane default.
type Options struct {
	// DefaultCapacity is used for a Connect call that does not specify
	// one explicitly.
	DefaultCapacity int
	// StrictBrackets turns on the optional bracket-nesting checker on
	// every connection this network creates.
	StrictBrackets bool
	// StrictDeadlock makes a detected deadlock an aborting run error
	// instead of a silent end-of-stream drain.
	StrictDeadlock bool
}

// Network is a graph of named component instances wired together by
// connections and Initial Information Packets, plus the scheduler that
// runs them concurrently to quiescence.
type Network struct {
	name string
	opts Options

	mu            sync.Mutex
	components    map[string]*component.Instance
	componentOpts map[string]common.Options
	order         []string
	inSlots       map[slotKey]*inSlot
	outSlots      map[slotKey]*outSlot

	events *pubsub.PubSub

	errMu sync.Mutex
	errs  *multierror.Error

	runState atomic.Int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	deadlocked atomic.Bool
	deadlockSet atomic.Pointer[[]string]
}

// New creates an empty, idle network ready to accept build operations.
func New(name string, opts Options) *Network {
	if opts.DefaultCapacity <= 0 {
		opts.DefaultCapacity = common.DefaultConnectionCapacity
	}
	return &Network{
		name:          name,
		opts:          opts,
		components:    make(map[string]*component.Instance),
		componentOpts: make(map[string]common.Options),
		inSlots:       make(map[slotKey]*inSlot),
		outSlots:      make(map[slotKey]*outSlot),
		events:        pubsub.New(),
	}
}

// Name returns the network's name, used in logging and event correlation.
func (n *Network) Name() string { return n.name }

// State returns the current coarse run state.
func (n *Network) State() RunState { return RunState(n.runState.Load()) }

func (n *Network) building() error {
	if n.State() != Idle {
		return ErrAlreadyBuilding
	}
	return nil
}

// AddComponent instantiates a registered component kind under the given
// unique name. Rejected once the network has started running.
func (n *Network) AddComponent(name, kind string, opts common.Options) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.building(); err != nil {
		return err
	}
	if _, exists := n.components[name]; exists {
		return ErrDuplicateName
	}
	desc, err := component.Get(kind)
	if err != nil {
		return err
	}
	n.components[name] = component.NewInstance(name, kind, desc)
	n.componentOpts[name] = opts
	n.order = append(n.order, name)
	n.emit(Event{Type: EventComponentAdded, Component: name})
	return nil
}

// RemoveComponent deletes a component and every connection or IIP
// touching it.
func (n *Network) RemoveComponent(name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.building(); err != nil {
		return err
	}
	if _, ok := n.components[name]; !ok {
		return ErrUnknownComponent
	}
	for k, slot := range n.outSlots {
		if k.component == name {
			// Free the downstream slots this component's outputs fed.
			for ik, in := range n.inSlots {
				for _, c := range slot.conns {
					if in.conn == c {
						delete(n.inSlots, ik)
					}
				}
			}
			delete(n.outSlots, k)
			continue
		}
		// Drop any connection whose destination was this component.
		kept := slot.conns[:0]
		for _, c := range slot.conns {
			if !connFeeds(n, c, name) {
				kept = append(kept, c)
			}
		}
		slot.conns = kept
	}
	for k := range n.inSlots {
		if k.component == name {
			delete(n.inSlots, k)
		}
	}
	delete(n.components, name)
	delete(n.componentOpts, name)
	for i, nm := range n.order {
		if nm == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}
	return nil
}

// connFeeds is a defensive best-effort check used only by RemoveComponent
// to prune dangling fan-out entries; inSlots is the source of truth and
// is cleaned up right after the pruning.
func connFeeds(n *Network, c *port.Connection, component string) bool {
	for k, slot := range n.inSlots {
		if slot.conn == c && k.component == component {
			return true
		}
	}
	return false
}

// ComponentNames lists every component name in the order it was added.
func (n *Network) ComponentNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Component returns a component instance by name.
func (n *Network) Component(name string) (*component.Instance, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	inst, ok := n.components[name]
	return inst, ok
}

// Connections lists every real (non-IIP) connection currently wired, for
// introspection. Order is not significant.
func (n *Network) Connections() []*port.Connection {
	n.mu.Lock()
	defer n.mu.Unlock()
	seen := make(map[*port.Connection]bool)
	var out []*port.Connection
	for _, slot := range n.outSlots {
		for _, c := range slot.conns {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
