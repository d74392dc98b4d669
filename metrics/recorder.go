// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package metrics

import (
	"time"
)

// TransmissionResult - outcome of one send attempt
type TransmissionResult string

// send outcomes
const (
	Acknowledged TransmissionResult = "acknowledged"
	Retried      TransmissionResult = "retried"
	Dropped      TransmissionResult = "dropped"
)

// InboundResult - what happened to one received frame
type InboundResult string

// receive outcomes
const (
	Stored      InboundResult = "stored"
	Delivered   InboundResult = "delivered"
	Answered    InboundResult = "answered"
	Duplicate   InboundResult = "duplicate"
	Invalid     InboundResult = "invalid"
	RateLimited InboundResult = "rate_limited"
	Rejected    InboundResult = "rejected"
	Failed      InboundResult = "failed"
)

// Recorder - metrics sink
type Recorder interface {
	IncTransmission(result TransmissionResult)
	ObserveSendDuration(d time.Duration)
	IncInbound(result InboundResult)
	IncPhase(phase string, transmitted int)
	SetQueueDepth(n int)
}

// NoopRecorder - discards everything
type NoopRecorder struct{}

func (NoopRecorder) IncTransmission(TransmissionResult) {}
func (NoopRecorder) ObserveSendDuration(time.Duration)  {}
func (NoopRecorder) IncInbound(InboundResult)           {}
func (NoopRecorder) IncPhase(string, int)               {}
func (NoopRecorder) SetQueueDepth(int)                  {}
