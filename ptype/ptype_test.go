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

package ptype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnyAcceptsEverything(t *testing.T) {
	any_, ok := Lookup(AnyTypeName)
	assert.True(t, ok)
	assert.True(t, any_.Accepts(42))
	assert.True(t, any_.Accepts("x"))
	assert.True(t, any_.Accepts(nil))
}

func TestRegisterAndAssert(t *testing.T) {
	Register(Type{
		Name:   "positive-int",
		Assert: func(v any) bool { n, ok := v.(int); return ok && n > 0 },
	})

	pt, ok := Lookup("positive-int")
	assert.True(t, ok)
	assert.True(t, pt.Accepts(1))
	assert.False(t, pt.Accepts(-1))
	assert.False(t, pt.Accepts("not an int"))
}

func TestOfMatchesDynamicType(t *testing.T) {
	pt := Of("")
	assert.True(t, pt.Accepts("hello"))
	assert.False(t, pt.Accepts(1))
}

func TestCloneableFlag(t *testing.T) {
	pt := Type{
		Name:      "clonable-string",
		Cloneable: true,
		Clone:     func(v any) any { return v },
	}
	assert.True(t, pt.Cloneable)
	assert.Equal(t, "x", pt.Clone("x"))
}
