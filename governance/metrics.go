// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type engineMetrics struct {
	operations       *prometheus.CounterVec
	schedulerErrors  *prometheus.CounterVec
	queueLength      prometheus.Gauge
	referendumIndex  prometheus.Gauge
	activeReferendum prometheus.Gauge
	registeredVoters prometheus.Counter
	pointsSpent      prometheus.Counter
	proposalsClosed  *prometheus.CounterVec
}

func (e *Engine) initMetrics(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	e.metrics = &engineMetrics{
		operations: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governance_operations_total",
				Help: "governance operations by name and result kind",
			},
			[]string{"operation", "result"},
		),
		schedulerErrors: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governance_scheduler_errors_total",
				Help: "swallowed referendum open/close failures by step and kind",
			},
			[]string{"step", "kind"},
		),
		queueLength: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "governance_proposal_queue_length",
				Help: "proposals waiting for a referendum",
			},
		),
		referendumIndex: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "governance_referendum_count",
				Help: "number of closed referenda",
			},
		),
		activeReferendum: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "governance_referendum_active",
				Help: "1 while a referendum is open",
			},
		),
		registeredVoters: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "governance_voters_registered_total",
				Help: "voters registered since start",
			},
		),
		pointsSpent: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "governance_points_spent_total",
				Help: "vote points debited since start",
			},
		),
		proposalsClosed: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "governance_proposals_closed_total",
				Help: "proposals resolved by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (e *Engine) recordOperation(operation string, err error) {
	if e.metrics == nil {
		return
	}
	e.metrics.operations.WithLabelValues(operation, Kind(err).String()).Inc()
}
