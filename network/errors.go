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

// Package network builds and runs a graph of components: the scheduler,
// the IIP store, the termination and deadlock detector, and the
// aggregated build/run error list. A component only knows its own ports;
// a Network is what wires instances together and drives their
// concurrent activation.
package network

import (
	"strings"

	"github.com/pkg/errors"
)

// Build-time errors, returned synchronously from the Network methods
// that accept graph edits (AddComponent, Connect, Initialize, ...).
var (
	ErrAlreadyBuilding  = errors.New("network: already running or finished, no further build operations allowed")
	ErrDuplicateName    = errors.New("network: a component with this name already exists")
	ErrUnknownComponent = errors.New("network: no component with this name")
	ErrUnknownPort      = errors.New("network: component has no such port")
	ErrWrongDirection   = errors.New("network: port direction mismatch")
	ErrTypeMismatch     = errors.New("network: connection endpoints declare incompatible types")
	ErrArityExceeded    = errors.New("network: port index out of its declared arity")
	ErrIndexRequired    = errors.New("network: array port requires an explicit index")
	ErrIndexNotAllowed  = errors.New("network: single-valued port does not take an index")
	ErrSlotOccupied     = errors.New("network: port slot already has a connection or an IIP")
	ErrFanoutNotAllowed = errors.New("network: output port does not allow more than one downstream")
	ErrNotCloneable     = errors.New("network: fan-out requires a cloneable type")
	ErrNotConnected     = errors.New("network: no connection or IIP bound to this slot")
	ErrRequiredPort     = errors.New("network: required port has no connection or IIP")
	ErrAlreadyRunning   = errors.New("network: Run already called")
	ErrNotRunning       = errors.New("network: network is not running")

	errAbandoned = errors.New("network: component abandoned after cancellation grace period")
)

// errDeadlocked names the suspended set (receive or send) in a
// strict-mode deadlock abort.
func errDeadlocked(suspended []string) error {
	return errors.Errorf("network: deadlocked, suspended: %s", strings.Join(suspended, ", "))
}
