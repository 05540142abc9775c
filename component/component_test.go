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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowd/flowd/common"
)

func TestRegisterAndLookup(t *testing.T) {
	desc := Descriptor{
		Kind:        "test.Echo",
		Description: "echoes IN to OUT",
		NewBody: func(opts common.Options) (Body, error) {
			return BodyFunc(func(ctx context.Context, ports *Ports) error { return nil }), nil
		},
	}
	Register(desc)

	got, ok := Lookup("test.Echo")
	require.True(t, ok)
	assert.Equal(t, "echoes IN to OUT", got.Description)

	_, err := Get("test.DoesNotExist")
	assert.Error(t, err)

	assert.Contains(t, Kinds(), "test.Echo")
}

func TestInstanceLifecycle(t *testing.T) {
	inst := NewInstance("e1", "test.Echo", Descriptor{})
	assert.Equal(t, NotInitialized, inst.State())

	inst.SetState(Active)
	assert.Equal(t, Active, inst.State())
	assert.False(t, inst.State().Terminal())

	inst.Fail(errors.New("boom"))
	assert.Equal(t, Errored, inst.State())
	assert.True(t, inst.State().Terminal())
	assert.EqualError(t, inst.Err(), "boom")
}

func TestStateStringAndPredicates(t *testing.T) {
	assert.Equal(t, "suspended-receive", SuspendedReceive.String())
	assert.True(t, SuspendedReceive.Suspended())
	assert.True(t, Terminated.Terminal())
	assert.False(t, Active.Terminal())
}
