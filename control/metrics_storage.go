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

package control

import (
	"time"

	"github.com/flowd/flowd/internal/labels"
	"github.com/flowd/flowd/internal/metricstorage"
	"github.com/flowd/flowd/network"
)

// eventLabels turns one network.Event into the label set it is recorded
// under, the same shape packetd's own roundtripstometrics converters use
// to build labels.Labels from domain fields ahead of a single Update call.
func eventLabels(e network.Event) labels.Labels {
	lbs := labels.Labels{
		{Name: "type", Value: e.Type},
		{Name: "component", Value: e.Component},
	}
	if e.Other != "" {
		lbs = append(lbs, labels.Label{Name: "other", Value: e.Other})
	}
	return lbs
}

// forwardEventsToStorage subscribes to the wrapped network's event stream
// for this Surface's lifetime and records one fbp_events_total counter
// increment per Event, so the metrics storage exposed at /metrics/storage
// carries real run data rather than sitting empty. It returns once Close
// closes eventsDone.
func (s *Surface) forwardEventsToStorage() {
	for {
		select {
		case <-s.eventsDone:
			return
		default:
		}

		v, ok := s.eventsQueue.PopTimeout(200 * time.Millisecond)
		if !ok {
			continue
		}
		e, ok := v.(network.Event)
		if !ok {
			continue
		}

		s.metrics.Update(metricstorage.ConstMetric{
			Model:  metricstorage.ModelCounter,
			Name:   "fbp_events_total",
			Labels: eventLabels(e),
			Value:  1,
		})
	}
}
