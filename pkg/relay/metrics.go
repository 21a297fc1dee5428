/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package relay

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/shmsg/pkg/shm"
)

// Metrics counts protocol traffic. A nil *Metrics records nothing.
type Metrics struct {
	FragmentsSent     *prometheus.CounterVec
	FragmentsReceived *prometheus.CounterVec
	MessagesSent      prometheus.Counter
	MessagesReceived  prometheus.Counter
	Stalls            prometheus.Counter
}

// NewMetrics creates the relay counters and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FragmentsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shmsg",
			Name:      "fragments_sent_total",
			Help:      "Descriptors written to the slot, by kind.",
		}, []string{"kind"}),
		FragmentsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shmsg",
			Name:      "fragments_received_total",
			Help:      "Descriptors read from the slot, by kind.",
		}, []string{"kind"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shmsg",
			Name:      "messages_sent_total",
			Help:      "Logical messages fully transmitted.",
		}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shmsg",
			Name:      "messages_received_total",
			Help:      "Logical messages fully received.",
		}),
		Stalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shmsg",
			Name:      "protocol_stalls_total",
			Help:      "Handshake waits that hit the wait timeout.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.FragmentsSent, m.FragmentsReceived, m.MessagesSent, m.MessagesReceived, m.Stalls)
	}
	return m
}

func (m *Metrics) fragmentSent(k shm.Kind) {
	if m != nil {
		m.FragmentsSent.WithLabelValues(k.String()).Inc()
	}
}

func (m *Metrics) fragmentReceived(k shm.Kind) {
	if m != nil {
		m.FragmentsReceived.WithLabelValues(k.String()).Inc()
	}
}

func (m *Metrics) messageSent() {
	if m != nil {
		m.MessagesSent.Inc()
	}
}

func (m *Metrics) messageReceived() {
	if m != nil {
		m.MessagesReceived.Inc()
	}
}

func (m *Metrics) stall() {
	if m != nil {
		m.Stalls.Inc()
	}
}
