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

// State is the runtime lifecycle of a Component instance:
//
//	not-initialized -> active -> { suspended-send | suspended-receive }* -> terminated
//	                       \-> errored
type State int32

const (
	NotInitialized State = iota
	Active
	SuspendedSend
	SuspendedReceive
	Terminated
	Errored
)

func (s State) String() string {
	switch s {
	case NotInitialized:
		return "not-initialized"
	case Active:
		return "active"
	case SuspendedSend:
		return "suspended-send"
	case SuspendedReceive:
		return "suspended-receive"
	case Terminated:
		return "terminated"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is one the network's quiescence
// check treats as "done".
func (s State) Terminal() bool {
	return s == Terminated || s == Errored
}

// Suspended reports whether the state is a blocked-on-a-port-operation
// state.
func (s State) Suspended() bool {
	return s == SuspendedSend || s == SuspendedReceive
}
