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
	"github.com/hashicorp/go-multierror"

	"github.com/flowd/flowd/port"
)

// Validate checks every required input port has a connection or an IIP,
// including every index of a required Fixed-arity array port. It is
// run automatically at the start of Run, but callers may call it ahead
// of time (e.g. a `validate` control-surface operation) without starting
// the network.
func (n *Network) Validate() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.validateLocked()
}

func (n *Network) validateLocked() error {
	var errs *multierror.Error
	for name, inst := range n.components {
		for _, spec := range inst.Desc.InPorts {
			switch spec.Arity {
			case port.Fixed:
				for i := 0; i < spec.Size; i++ {
					key := slotKey{component: name, port: spec.Name, index: i}
					if n.inSlots[key] == nil || n.inSlots[key].source == sourceNone {
						if spec.Required {
							errs = multierror.Append(errs, wrapf(ErrRequiredPort, key.String()))
						}
					}
				}
			default:
				key := slotKey{component: name, port: spec.Name, index: 0}
				if spec.Required {
					if n.inSlots[key] == nil || n.inSlots[key].source == sourceNone {
						errs = multierror.Append(errs, wrapf(ErrRequiredPort, key.String()))
					}
				}
			}
		}
	}
	return errs.ErrorOrNil()
}

func wrapf(base error, detail string) error {
	return &detailedError{base: base, detail: detail}
}

type detailedError struct {
	base   error
	detail string
}

func (e *detailedError) Error() string { return e.base.Error() + ": " + e.detail }
func (e *detailedError) Unwrap() error { return e.base }
