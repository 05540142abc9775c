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

package component

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// registry is the process-wide component-kind vocabulary: a graph editor
// or embedding program registers kinds once at startup, then any number
// of Networks can build against them by name.
var (
	mut      sync.RWMutex
	registry = map[string]Descriptor{}
)

// Register adds a component kind to the default registry. Re-registering
// the same Kind replaces the previous descriptor.
func Register(desc Descriptor) {
	mut.Lock()
	defer mut.Unlock()
	registry[desc.Kind] = desc
}

// Lookup returns the descriptor for a registered kind.
func Lookup(kind string) (Descriptor, bool) {
	mut.RLock()
	defer mut.RUnlock()
	d, ok := registry[kind]
	return d, ok
}

// Get is Lookup but returns an UnknownComponent build-time error instead
// of a bool.
func Get(kind string) (Descriptor, error) {
	d, ok := Lookup(kind)
	if !ok {
		return Descriptor{}, errors.Errorf("unknown component kind %q", kind)
	}
	return d, nil
}

// Kinds lists every registered kind name, sorted, for a
// list_components-style introspection call.
func Kinds() []string {
	mut.RLock()
	defer mut.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
