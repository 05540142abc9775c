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

// Package ptype implements the advisory per-port type contract: an
// output port's declared type is validated against the packet payload at
// send time; a distinguished Any type disables validation.
package ptype

import (
	"fmt"
	"reflect"
	"sync"
)

// AnyTypeName disables validation for the port it is declared on.
const AnyTypeName = "any"

// Type is a named, advisory contract for a port's payload.
//
// Clone, if set together with Cloneable, makes the type usable on a
// fan-out output port: an explicit clone capability is required before
// `connect` allows more than one downstream on the same output port.
type Type struct {
	Name      string
	Assert    func(v any) bool
	Clone     func(v any) any
	Cloneable bool
}

// Accepts reports whether v satisfies t. The Any type accepts everything.
func (t Type) Accepts(v any) bool {
	if t.Name == AnyTypeName {
		return true
	}
	if t.Assert != nil {
		return t.Assert(v)
	}
	return true
}

// registry is a process-wide default. A Network never mutates shared
// state through it; a type vocabulary is static schema information
// shared safely across networks, the same way a component-kind registry
// is.
var (
	mut      sync.RWMutex
	registry = map[string]Type{
		AnyTypeName: {Name: AnyTypeName},
	}
)

// Register adds or replaces a named type in the default registry.
func Register(t Type) {
	mut.Lock()
	defer mut.Unlock()
	registry[t.Name] = t
}

// Lookup returns the named type, or ok=false if it was never registered.
func Lookup(name string) (Type, bool) {
	mut.RLock()
	defer mut.RUnlock()
	t, ok := registry[name]
	return t, ok
}

// Of builds an ad-hoc Type for a Go value's dynamic type, using
// reflect.TypeOf for the Assert check. Useful for component descriptors
// that want "whatever type this default value has" rather than a
// registered name.
func Of(sample any) Type {
	rt := reflect.TypeOf(sample)
	name := "unknown"
	if rt != nil {
		name = rt.String()
	}
	return Type{
		Name: name,
		Assert: func(v any) bool {
			if v == nil {
				return rt == nil
			}
			return reflect.TypeOf(v) == rt
		},
	}
}

// ErrTypeMismatch is returned/wrapped by a producing port's Send when the
// packet payload fails the declared type's Assert.
type ErrTypeMismatch struct {
	Port string
	Type string
	Got  any
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("port %s: value %#v does not satisfy type %s", e.Port, e.Got, e.Type)
}
