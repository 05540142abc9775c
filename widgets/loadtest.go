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

package widgets

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/component"
	"github.com/flowd/flowd/port"
)

// KindFastProducer and KindSlowConsumer exist to drive backpressure and
// fan-out scenarios in tests: a producer with no throttling feeding a
// deliberately slow consumer, and a Fanout-capable OUT port for
// multi-downstream tests.
const (
	KindFastProducer = "widgets.FastProducer"
	KindSlowConsumer = "widgets.SlowConsumer"
)

// Build options for FastProducer.
const (
	optCount = "count" // int, how many packets to send; default 0
	optStart = "start" // int, first value sent; default 0
)

// Build options for SlowConsumer.
const (
	optDelay   = "delay"   // time.Duration, sleep before each receive; default 0
	optCounter = "counter" // *atomic.Int64, incremented once per packet received
)

func init() {
	component.Register(component.Descriptor{
		Kind:        KindFastProducer,
		Description: "sends count consecutive ints on OUT as fast as the downstream will accept them, with no throttling of its own",
		OutPorts:    []port.Spec{{Name: "OUT", Direction: port.Out, Type: IntType, Fanout: true}},
		NewBody: func(opts common.Options) (component.Body, error) {
			count, _ := opts.GetInt(optCount)
			start, _ := opts.GetInt(optStart)
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				return fastProducerRun(ctx, ports, start, count)
			}), nil
		},
	})

	component.Register(component.Descriptor{
		Kind:        KindSlowConsumer,
		Description: "receives ints from IN, sleeping delay before each receive to simulate a slow downstream",
		InPorts:     []port.Spec{{Name: "IN", Direction: port.In, Type: IntType, Required: true}},
		NewBody: func(opts common.Options) (component.Body, error) {
			delay, _ := opts.GetDuration(optDelay)
			counter, _ := opts[optCounter].(*atomic.Int64)
			return component.BodyFunc(func(ctx context.Context, ports *component.Ports) error {
				return slowConsumerRun(ctx, ports, delay, counter)
			}), nil
		},
	})
}

func fastProducerRun(ctx context.Context, ports *component.Ports, start, count int) error {
	out := ports.Out("OUT")
	defer out.Close()

	for i := 0; i < count; i++ {
		if err := out.Send(ctx, start+i); err != nil {
			return err
		}
	}
	return nil
}

func slowConsumerRun(ctx context.Context, ports *component.Ports, delay time.Duration, counter *atomic.Int64) error {
	in := ports.In("IN")
	for range in.IterContents(ctx) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if counter != nil {
			counter.Add(1)
		}
	}
	return nil
}
