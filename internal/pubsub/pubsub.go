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

// Package pubsub is the fan-out broadcast a Network uses to deliver its
// lifecycle Events (component started, packet sent, network deadlocked,
// ...) to every live subscriber — a control surface's streaming /events
// route, a test asserting on run order, or any number of both at once.
package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Queue is one subscriber's view onto a PubSub: every Event published
// after Subscribe arrives here, oldest first, until Close or Unsubscribe.
type Queue interface {
	// ID identifies this queue uniquely among a PubSub's subscribers.
	ID() string

	// PopTimeout blocks for the next queued value until one arrives or
	// timeout elapses, returning ok=false on timeout or after Close.
	PopTimeout(timeout time.Duration) (any, bool)

	// Push enqueues a value, dropping it silently if the queue is full
	// or closed — a slow subscriber never blocks the publisher.
	Push(data any)

	// Close releases the queue; any blocked PopTimeout returns ok=false.
	Close()
}

// channel is Queue's only implementation: a buffered channel plus a
// closed flag so Push/PopTimeout never panic on a raced Close.
type channel struct {
	id     string
	ch     chan any
	closed atomic.Bool
}

func newChannel(size int) Queue {
	if size <= 0 {
		size = 1
	}

	return &channel{
		id: uuid.New().String(),
		ch: make(chan any, size),
	}
}

func (ch *channel) ID() string {
	return ch.id
}

func (ch *channel) PopTimeout(timeout time.Duration) (any, bool) {
	if ch.closed.Load() {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case data, ok := <-ch.ch:
		return data, ok

	case <-ctx.Done():
		return nil, false
	}
}

func (ch *channel) Push(data any) {
	if ch.closed.Load() {
		return
	}

	select {
	case ch.ch <- data:
	default:
	}
}

func (ch *channel) Close() {
	if ch.closed.CompareAndSwap(false, true) {
		close(ch.ch)
	}
}

// PubSub is a Network's event bus: any number of subscribers, each
// getting its own copy of every Event published from run start to
// network termination.
type PubSub struct {
	mut    sync.RWMutex
	queues map[string]Queue
}

// New creates an empty bus with no subscribers.
func New() *PubSub {
	return &PubSub{
		queues: make(map[string]Queue),
	}
}

// Num reports the current subscriber count, used by tests to confirm
// Unsubscribe actually released a queue rather than just draining it.
func (p *PubSub) Num() int {
	p.mut.RLock()
	defer p.mut.RUnlock()

	return len(p.queues)
}

// Subscribe registers a new queue of the given buffer size and returns
// it; every Publish call from this point on also pushes to it.
func (p *PubSub) Subscribe(size int) Queue {
	p.mut.Lock()
	defer p.mut.Unlock()

	ch := newChannel(size)
	p.queues[ch.ID()] = ch
	return ch
}

// Publish fans msg (a network.Event, in this repo's only caller) out to
// every current subscriber.
func (p *PubSub) Publish(msg any) {
	p.mut.RLock()
	defer p.mut.RUnlock()

	for _, q := range p.queues {
		q.Push(msg)
	}
}

func (p *PubSub) Unsubscribe(q Queue) {
	p.mut.Lock()
	defer p.mut.Unlock()

	delete(p.queues, q.ID())
}
