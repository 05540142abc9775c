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

import "github.com/flowd/flowd/ptype"

// Direction is whether a Spec declares an input or output port.
type Direction uint8

const (
	In Direction = iota
	Out
)

// ArityKind is a port's array arity policy: a base name plus fixed N,
// elastic, or connection-indexed.
type ArityKind uint8

const (
	// Single means this is not an array port: at most one connection.
	Single ArityKind = iota
	// Fixed means exactly Size indices are expected, 0..Size-1.
	Fixed
	// Elastic means any non-negative index may be connected; a
	// disconnected index is immediately free for reuse by a later
	// connect or initialize at that same index.
	Elastic
)

// Spec is the static declaration of a single port, the row-level unit of
// a Component's ordered input or output port list.
type Spec struct {
	Name        string
	Direction   Direction
	Type        ptype.Type
	Required    bool
	Default     any
	Description string

	Arity ArityKind
	Size  int // only meaningful when Arity == Fixed

	// Fanout allows more than one connection on an Out port. Building a
	// fan-out connect on a non-cloneable type is a build-time error.
	Fanout bool

	// DropTolerant suppresses the "dropped packets" warning this port
	// would otherwise emit on close with packets still queued.
	DropTolerant bool
}
