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

package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPacket(t *testing.T) {
	p := New("hello", "string", "Source")
	assert.Equal(t, "hello", p.Contents())
	assert.Equal(t, "string", p.TypeName())
	assert.Equal(t, "Source", p.Creator())
	assert.Equal(t, RoleNormal, p.Role())
	assert.False(t, p.IsBracket())
	assert.NotEmpty(t, p.ID())
}

func TestBracketPackets(t *testing.T) {
	open := OpenBracket("group", "Splitter")
	assert.True(t, open.IsBracket())
	assert.Equal(t, "group", open.Label())
	assert.Equal(t, RoleOpenBracket, open.Role())

	closeP := CloseBracket("group", "Splitter")
	assert.True(t, closeP.IsBracket())
	assert.Equal(t, RoleCloseBracket, closeP.Role())
}

func TestDropIsIdempotent(t *testing.T) {
	p := New(1, "int", "C")
	assert.False(t, p.Dropped())
	assert.True(t, p.Drop())
	assert.True(t, p.Dropped())
	assert.False(t, p.Drop(), "second drop must report no-op")
}
