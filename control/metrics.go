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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/flowd/flowd/common"
	"github.com/flowd/flowd/network"
)

type buildOp string

const (
	opAddComponent    buildOp = "add_component"
	opRemoveComponent buildOp = "remove_component"
	opConnect         buildOp = "connect"
	opDisconnect      buildOp = "disconnect"
	opInitialize      buildOp = "initialize"
	opUninitialize    buildOp = "uninitialize"
)

var (
	buildOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Subsystem: "control",
			Name:      "build_ops_total",
			Help:      "build-time graph edit calls, by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	runsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Subsystem: "control",
			Name:      "runs_total",
			Help:      "network Run calls started",
		},
	)

	runResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Subsystem: "control",
			Name:      "run_results_total",
			Help:      "network Run calls completed, by exit status",
		},
		[]string{"status"},
	)

	deadlocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Subsystem: "control",
			Name:      "deadlocks_total",
			Help:      "network runs that ended with a detected deadlock",
		},
	)
)

func recordBuildOp(op buildOp, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	buildOpsTotal.WithLabelValues(string(op), outcome).Inc()
}

func recordResult(result *network.Result) {
	runResultsTotal.WithLabelValues(string(result.Status)).Inc()
	if len(result.Deadlocked) > 0 {
		deadlocksTotal.Inc()
	}
}
