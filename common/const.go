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

package common

import "time"

const (
	// App names the Prometheus namespace every control/runtime metric is
	// registered under, and the binary cobra.Command uses as its Use.
	App = "flowd"

	// Version is the application's version constant. GetBuildInfo and
	// `flowd version` do not read it; they report only the ldflags-set
	// build version, which is empty in a dev build.
	Version = "v0.0.1"

	// DefaultConnectionCapacity is the connection queue capacity used when a
	// `connect` build operation does not specify one.
	DefaultConnectionCapacity = 10

	// DefaultTerminateGrace is how long Network.terminate() waits for
	// components to observe cancellation and return before they are
	// force-abandoned.
	DefaultTerminateGrace = 5 * time.Second
)
