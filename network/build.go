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

import "github.com/flowd/flowd/port"

func (n *Network) resolveOut(ref PortRef) (port.Spec, error) {
	inst, ok := n.components[ref.Component]
	if !ok {
		return port.Spec{}, ErrUnknownComponent
	}
	spec, ok := inst.Desc.OutPort(ref.Port)
	if !ok {
		return port.Spec{}, ErrUnknownPort
	}
	if err := checkArity(spec, ref); err != nil {
		return port.Spec{}, err
	}
	return spec, nil
}

func (n *Network) resolveIn(ref PortRef) (port.Spec, error) {
	inst, ok := n.components[ref.Component]
	if !ok {
		return port.Spec{}, ErrUnknownComponent
	}
	spec, ok := inst.Desc.InPort(ref.Port)
	if !ok {
		return port.Spec{}, ErrUnknownPort
	}
	if err := checkArity(spec, ref); err != nil {
		return port.Spec{}, err
	}
	return spec, nil
}

func checkArity(spec port.Spec, ref PortRef) error {
	switch spec.Arity {
	case port.Single:
		if ref.HasIndex && ref.Index != 0 {
			return ErrIndexNotAllowed
		}
	case port.Fixed:
		idx := ref.Index
		if !ref.HasIndex {
			idx = 0
		}
		if idx < 0 || idx >= spec.Size {
			return ErrArityExceeded
		}
	case port.Elastic:
		idx := ref.Index
		if !ref.HasIndex {
			idx = 0
		}
		if idx < 0 {
			return ErrArityExceeded
		}
	}
	return nil
}

// Connect wires one output port slot to one input port slot with a
// bounded connection of the given capacity (0 uses the network default).
// Both endpoints must exist, declare compatible types, and have no
// existing connection or IIP occupying that slot; fanning out more than
// one downstream off the same output slot additionally requires the
// output port to declare Fanout and its type to be Cloneable.
func (n *Network) Connect(src, dst PortRef, capacity int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.building(); err != nil {
		return err
	}

	srcSpec, err := n.resolveOut(src)
	if err != nil {
		return err
	}
	dstSpec, err := n.resolveIn(dst)
	if err != nil {
		return err
	}
	if !typesCompatible(srcSpec, dstSpec) {
		return ErrTypeMismatch
	}

	dstKey := dst.slot()
	if existing, ok := n.inSlots[dstKey]; ok && existing.source != sourceNone {
		return ErrSlotOccupied
	}

	srcKey := src.slot()
	out := n.outSlots[srcKey]
	if out == nil {
		out = &outSlot{spec: srcSpec}
		n.outSlots[srcKey] = out
	}
	if len(out.conns) >= 1 {
		if !srcSpec.Fanout {
			return ErrFanoutNotAllowed
		}
		if !srcSpec.Type.Cloneable || srcSpec.Type.Clone == nil {
			return ErrNotCloneable
		}
	}

	if capacity <= 0 {
		capacity = n.opts.DefaultCapacity
	}
	conn := port.New(capacity, n.opts.StrictBrackets)
	conn.Name = src.String() + " -> " + dst.String()

	out.conns = append(out.conns, conn)
	n.inSlots[dstKey] = &inSlot{spec: dstSpec, source: sourceConnection, conn: conn}
	n.emit(Event{Type: EventConnected, Component: src.Component, Other: dst.String()})
	return nil
}

// Disconnect removes a previously built connection.
func (n *Network) Disconnect(src, dst PortRef) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.building(); err != nil {
		return err
	}
	dstKey := dst.slot()
	slot, ok := n.inSlots[dstKey]
	if !ok || slot.source != sourceConnection {
		return ErrNotConnected
	}
	delete(n.inSlots, dstKey)

	srcKey := src.slot()
	out := n.outSlots[srcKey]
	if out != nil {
		kept := out.conns[:0]
		for _, c := range out.conns {
			if c != slot.conn {
				kept = append(kept, c)
			}
		}
		out.conns = kept
	}
	return nil
}

// Initialize attaches an Initial Information Packet to an input port
// slot: at run start it becomes a one-shot, pre-closed connection of
// capacity 1 feeding that slot.
func (n *Network) Initialize(dst PortRef, value any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.building(); err != nil {
		return err
	}
	dstSpec, err := n.resolveIn(dst)
	if err != nil {
		return err
	}
	if !dstSpec.Type.Accepts(value) {
		return ErrTypeMismatch
	}
	key := dst.slot()
	if existing, ok := n.inSlots[key]; ok && existing.source != sourceNone {
		return ErrSlotOccupied
	}
	n.inSlots[key] = &inSlot{spec: dstSpec, source: sourceIIP, iip: value}
	return nil
}

// Uninitialize removes a previously attached IIP.
func (n *Network) Uninitialize(dst PortRef) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.building(); err != nil {
		return err
	}
	key := dst.slot()
	slot, ok := n.inSlots[key]
	if !ok || slot.source != sourceIIP {
		return ErrNotConnected
	}
	delete(n.inSlots, key)
	return nil
}

func typesCompatible(src, dst port.Spec) bool {
	if src.Type.Name == "" || dst.Type.Name == "" {
		return true
	}
	if src.Type.Name == "any" || dst.Type.Name == "any" {
		return true
	}
	return src.Type.Name == dst.Type.Name
}
