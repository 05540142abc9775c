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

// Package widgets is a small library of demo component kinds used to
// exercise a network end to end: a word-filtering text pipeline and a
// pair of synthetic load generators for backpressure and fan-out tests.
// None of it is load-bearing; it exists to give the engine something to
// run.
package widgets

import "github.com/flowd/flowd/ptype"

// TextType is the declared type of every line/word port in the text
// pipeline below.
var TextType = ptype.Type{
	Name: "widgets.text",
	Assert: func(v any) bool {
		_, ok := v.(string)
		return ok
	},
}

// IntType is the declared type of the synthetic load components' ports.
// Ints are trivially cloneable: copying the boxed value is copying the
// whole value, so Clone is the identity function.
var IntType = ptype.Type{
	Name:      "widgets.int",
	Cloneable: true,
	Assert: func(v any) bool {
		_, ok := v.(int)
		return ok
	},
	Clone: func(v any) any { return v },
}

func init() {
	ptype.Register(TextType)
	ptype.Register(IntType)
}
