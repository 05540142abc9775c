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
	"bytes"
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/network"
)

// TestTextPipelineFiltersByPrefix wires Source -> LineToWords -> StartsWith
// -> WordsToLine -> Output exactly the way the engine's own end-to-end
// walkthrough does: a line is split into words, words starting with "G"
// match and go to OUT, which is left unconnected so they are skipped, and
// the other words flow to REJ and are rejoined and printed one per line.
func TestTextPipelineFiltersByPrefix(t *testing.T) {
	var buf bytes.Buffer

	n := network.New("text-pipeline", network.Options{})
	require.NoError(t, n.AddComponent("src", KindSource, common.NewOptions()))
	require.NoError(t, n.AddComponent("split", KindLineToWords, common.NewOptions()))
	require.NoError(t, n.AddComponent("filter", KindStartsWith, common.NewOptions()))
	require.NoError(t, n.AddComponent("join", KindWordsToLine, common.NewOptions()))
	require.NoError(t, n.AddComponent("out", KindOutput, common.Options{optWriter: &buf}))

	require.NoError(t, n.Connect(network.Ref("src", "OUT"), network.Ref("split", "IN"), 1))
	require.NoError(t, n.Connect(network.Ref("split", "OUT"), network.Ref("filter", "IN"), 4))
	require.NoError(t, n.Connect(network.Ref("filter", "REJ"), network.Ref("join", "IN"), 4))
	require.NoError(t, n.Connect(network.Ref("join", "OUT"), network.Ref("out", "IN"), 1))

	require.NoError(t, n.Initialize(network.Ref("src", "IN"), "Hello Goodbye World"))
	require.NoError(t, n.Initialize(network.Ref("filter", "TEST"), "G"))
	require.NoError(t, n.Initialize(network.Ref("join", "MEASURE"), 0))

	result, err := n.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, network.ExitOK, result.Status)
	assert.Equal(t, "Hello\nWorld\n", buf.String())
}

// TestSlowConsumerAppliesBackpressure checks that a FastProducer feeding a
// deliberately slow consumer through a small-capacity connection does not
// drop anything: the producer simply blocks until the consumer
// drains, which the run's wall-clock time should reflect.
func TestSlowConsumerAppliesBackpressure(t *testing.T) {
	var counter atomic.Int64

	n := network.New("backpressure", network.Options{})
	require.NoError(t, n.AddComponent("p", KindFastProducer, common.Options{optCount: 5}))
	require.NoError(t, n.AddComponent("c", KindSlowConsumer, common.Options{
		optDelay:   10 * time.Millisecond,
		optCounter: &counter,
	}))
	require.NoError(t, n.Connect(network.Ref("p", "OUT"), network.Ref("c", "IN"), 1))

	start := time.Now()
	result, err := n.Run(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, network.ExitOK, result.Status)
	assert.Equal(t, int64(5), counter.Load())
	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}

// TestFastProducerFansOutToMultipleConsumers checks that a single
// Fanout-capable OUT port delivers an independent copy of every packet to
// each of several downstream consumers.
func TestFastProducerFansOutToMultipleConsumers(t *testing.T) {
	var a, b atomic.Int64

	n := network.New("fanout", network.Options{})
	require.NoError(t, n.AddComponent("p", KindFastProducer, common.Options{optCount: 3}))
	require.NoError(t, n.AddComponent("c1", KindSlowConsumer, common.Options{optCounter: &a}))
	require.NoError(t, n.AddComponent("c2", KindSlowConsumer, common.Options{optCounter: &b}))
	require.NoError(t, n.Connect(network.Ref("p", "OUT"), network.Ref("c1", "IN"), 3))
	require.NoError(t, n.Connect(network.Ref("p", "OUT"), network.Ref("c2", "IN"), 3))

	result, err := n.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, network.ExitOK, result.Status)
	assert.Equal(t, int64(3), a.Load())
	assert.Equal(t, int64(3), b.Load())
}

// TestOutputWritesOneLinePerPacket is a narrow unit test of Output in
// isolation, independent of the rest of the pipeline.
func TestOutputWritesOneLinePerPacket(t *testing.T) {
	var buf bytes.Buffer

	n := network.New("output-only", network.Options{})
	require.NoError(t, n.AddComponent("src", KindSource, common.NewOptions()))
	require.NoError(t, n.AddComponent("out", KindOutput, common.Options{optWriter: &buf}))
	require.NoError(t, n.Connect(network.Ref("src", "OUT"), network.Ref("out", "IN"), 1))
	require.NoError(t, n.Initialize(network.Ref("src", "IN"), "single line"))

	result, err := n.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, network.ExitOK, result.Status)
	assert.True(t, strings.HasSuffix(buf.String(), "single line\n"))
}
