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

import "errors"

// Runtime port-operation errors. UpstreamClosed is
// deliberately NOT here: end-of-stream is a first-class return value
//, not an error.
var (
	ErrDownstreamClosed   = errors.New("port: downstream closed")
	ErrCancelled          = errors.New("port: operation cancelled")
	ErrTimeout            = errors.New("port: operation timed out")
	ErrUnbalancedBracket  = errors.New("port: unbalanced bracket sequence")
	ErrAlreadyConsumed    = errors.New("port: receive_once already consumed")
	ErrNotConnected       = errors.New("port: no connection or IIP on this port")
	ErrArrayIndexRequired = errors.New("port: array port requires an explicit index")
)
