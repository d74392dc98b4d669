// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cyclemesh"

// PrometheusRecorder - Recorder backed by prometheus collectors
type PrometheusRecorder struct {
	transmissions *prom.CounterVec
	sendDuration  prom.Histogram
	inbound       *prom.CounterVec
	phases        *prom.CounterVec
	phaseFrames   *prom.CounterVec
	queueDepth    prom.Gauge
}

// NewPrometheusRecorder - create the collectors and register them
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if nil == reg {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		transmissions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transmissions_total",
			Help:      "Send attempts by outcome",
		}, []string{"result"}),
		sendDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Time from handing a frame to the transport until it is acknowledged or fails",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .125, .25},
		}),
		inbound: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_frames_total",
			Help:      "Received frames by outcome",
		}, []string{"result"}),
		phases: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "phases_total",
			Help:      "Phases handled by phase number",
		}, []string{"phase"}),
		phaseFrames: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "phase_frames_total",
			Help:      "Frames transmitted by phase number",
		}, []string{"phase"}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Messages waiting for transmission",
		}),
	}
	reg.MustRegister(pr.transmissions, pr.sendDuration, pr.inbound, pr.phases, pr.phaseFrames, pr.queueDepth)
	return pr
}

func (p *PrometheusRecorder) IncTransmission(result TransmissionResult) {
	p.transmissions.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveSendDuration(d time.Duration) {
	p.sendDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncInbound(result InboundResult) {
	p.inbound.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncPhase(phase string, transmitted int) {
	p.phases.WithLabelValues(phase).Inc()
	if transmitted > 0 {
		p.phaseFrames.WithLabelValues(phase).Add(float64(transmitted))
	}
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	p.queueDepth.Set(float64(n))
}

// HTTPHandler - serve a registry in the prometheus exposition format
func HTTPHandler(gatherer prom.Gatherer) http.Handler {
	if nil == gatherer {
		gatherer = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
