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

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowd/flowd/packet"
)

func TestFIFOOrdering(t *testing.T) {
	c := New(10, false)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Send(ctx, packet.New(i, "int", "P")))
	}
	c.CloseUpstream()

	var got []int
	for {
		p, eof, err := c.Receive(ctx)
		require.NoError(t, err)
		if eof {
			break
		}
		got = append(got, p.Contents().(int))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestBoundedBuffering(t *testing.T) {
	c := New(4, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	blocked := make(chan struct{})
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			if i == 4 {
				close(blocked)
			}
			require.NoError(t, c.Send(ctx, packet.New(i, "int", "P")))
		}
	}()

	select {
	case <-blocked:
		assert.LessOrEqual(t, c.Len(), c.Capacity())
	case <-time.After(time.Second):
		t.Fatal("producer should have filled the queue without finishing")
	}

	// Drain one to unblock the 5th send.
	_, _, err := c.Receive(ctx)
	require.NoError(t, err)
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), c.Capacity())
}

func TestIdempotentClose(t *testing.T) {
	c := New(1, false)
	c.CloseUpstream()
	assert.NotPanics(t, func() { c.CloseUpstream() })

	c.CloseDownstream()
	assert.NotPanics(t, func() { c.CloseDownstream() })
}

func TestDownstreamClosedWakesSender(t *testing.T) {
	c := New(1, false)
	ctx := context.Background()
	require.NoError(t, c.Send(ctx, packet.New(1, "int", "P"))) // fills capacity

	errCh := make(chan error, 1)
	go func() { errCh <- c.Send(ctx, packet.New(2, "int", "P")) }()

	time.Sleep(10 * time.Millisecond)
	c.CloseDownstream()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrDownstreamClosed)
	case <-time.After(time.Second):
		t.Fatal("blocked sender should have woken on downstream close")
	}
}

func TestCancelWakesBlockedReceiver(t *testing.T) {
	c := New(1, false)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, _, err := c.Receive(ctx)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(time.Second):
		t.Fatal("blocked receiver should have woken on cancel")
	}
}

func TestIIPYieldsOnceThenEOF(t *testing.T) {
	c := NewIIP(packet.New(42, "int", "__iip__"))
	ctx := context.Background()

	p, eof, err := c.Receive(ctx)
	require.NoError(t, err)
	require.False(t, eof)
	assert.Equal(t, 42, p.Contents().(int))

	_, eof, err = c.Receive(ctx)
	require.NoError(t, err)
	assert.True(t, eof)
}
