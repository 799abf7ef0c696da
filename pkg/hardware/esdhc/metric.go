// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package esdhc

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/u-root/u-esdhc/pkg/metric"
)

const namespace = "esdhc"

// Metrics collects per controller counters. A nil *Metrics records nothing.
type Metrics struct {
	ops      *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	clock    *prometheus.GaugeVec
	present  *prometheus.GaugeVec
	unstable *prometheus.CounterVec
}

// NewMetrics creates the controller metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		ops: metric.CounterVec(reg, metric.MetricOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Resets and requests by outcome.",
		}, []string{"controller", "op", "result"}),
		bytes: metric.CounterVec(reg, metric.MetricOpts{
			Namespace: namespace,
			Name:      "pio_bytes_total",
			Help:      "Bytes moved through the data port.",
		}, []string{"controller", "direction"}),
		clock: metric.GaugeVec(reg, metric.MetricOpts{
			Namespace: namespace,
			Name:      "card_clock_hz",
			Help:      "Card clock last programmed.",
		}, []string{"controller"}),
		present: metric.GaugeVec(reg, metric.MetricOpts{
			Namespace: namespace,
			Name:      "card_present",
			Help:      "1 if a card is inserted, 0 if not, -1 if unknown.",
		}, []string{"controller"}),
		unstable: metric.CounterVec(reg, metric.MetricOpts{
			Namespace: namespace,
			Name:      "clock_unstable_total",
			Help:      "Internal clock stabilization timeouts.",
		}, []string{"controller"}),
	}
}

func (m *Metrics) observe(name, op string, err error) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(name, op, result(err)).Inc()
}

func (m *Metrics) addBytes(name string, dir Direction, n int) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(name, dir.String()).Add(float64(n))
}

func (m *Metrics) setClock(name string, hz uint32) {
	if m == nil {
		return
	}
	m.clock.WithLabelValues(name).Set(float64(hz))
}

func (m *Metrics) setPresence(name string, p Presence) {
	if m == nil {
		return
	}
	v := -1.0
	switch p {
	case Yes:
		v = 1
	case No:
		v = 0
	}
	m.present.WithLabelValues(name).Set(v)
}

func (m *Metrics) clockUnstable(name string) {
	if m == nil {
		return
	}
	m.unstable.WithLabelValues(name).Inc()
}
