// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/cyclemesh/metrics"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := metrics.NewPrometheusRecorder(reg)

	var _ metrics.Recorder = pr

	pr.IncTransmission(metrics.Acknowledged)
	pr.IncTransmission(metrics.Acknowledged)
	pr.IncTransmission(metrics.Dropped)
	pr.ObserveSendDuration(3 * time.Millisecond)
	pr.IncInbound(metrics.Stored)
	pr.IncInbound(metrics.Duplicate)
	pr.IncPhase("1", 1)
	pr.IncPhase("2", 0)
	pr.SetQueueDepth(7)

	expected := `
# HELP cyclemesh_transmissions_total Send attempts by outcome
# TYPE cyclemesh_transmissions_total counter
cyclemesh_transmissions_total{result="acknowledged"} 2
cyclemesh_transmissions_total{result="dropped"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cyclemesh_transmissions_total")
	assert.NoError(t, err, "transmissions")

	expected = `
# HELP cyclemesh_queue_depth Messages waiting for transmission
# TYPE cyclemesh_queue_depth gauge
cyclemesh_queue_depth 7
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "cyclemesh_queue_depth")
	assert.NoError(t, err, "queue depth")

	expected = `
# HELP cyclemesh_phase_frames_total Frames transmitted by phase number
# TYPE cyclemesh_phase_frames_total counter
cyclemesh_phase_frames_total{phase="1"} 1
`
	err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "cyclemesh_phase_frames_total")
	assert.NoError(t, err, "phase frames")
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := metrics.NewPrometheusRecorder(reg)
	pr.IncInbound(metrics.RateLimited)

	server := httptest.NewServer(metrics.HTTPHandler(reg))
	defer server.Close()

	response, err := server.Client().Get(server.URL)
	require.NoError(t, err, "get")
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err, "read")
	assert.Contains(t, string(body), `cyclemesh_inbound_frames_total{result="rate_limited"} 1`)
}

func TestNoopRecorder(t *testing.T) {
	var r metrics.Recorder = metrics.NoopRecorder{}
	r.IncTransmission(metrics.Retried)
	r.ObserveSendDuration(time.Second)
	r.IncInbound(metrics.Invalid)
	r.IncPhase("0", 3)
	r.SetQueueDepth(1)
}
