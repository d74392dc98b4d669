// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/cycle"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/message"
	"github.com/bitmark-inc/cyclemesh/metrics"
)

// TransmissionLog - what is stored for every acknowledged message
type TransmissionLog struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Zone     string    `json:"zone"`
	Cycle    uint64    `json:"cycle"`
	Phase    uint8     `json:"phase"`
	Priority string    `json:"priority"`
	Retries  int       `json:"retries"`
	Bytes    int       `json:"bytes"`
	Sent     time.Time `json:"sent"`
}

// HandlePhase - the phase handler registered for every phase
//
// drains this zone's queue while the coordinator allows it; returns the
// context error if the phase ended before the queue did
func (n *Node) HandlePhase(ctx context.Context, slot cycle.Slot) error {
	transmitted := 0
	defer func() {
		n.recorder.IncPhase(strconv.Itoa(int(slot.Phase)), transmitted)
		n.recorder.SetQueueDepth(n.queue.Len())
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !n.coordinator.EligibleInCycle(slot.Phase, n.zone, slot.Cycle, n.queue) {
			return nil
		}
		m := n.queue.DequeueFor(slot.Phase, n.zone)
		if nil == m {
			return nil
		}
		if n.transmit(ctx, slot, m) {
			transmitted += 1
		}
	}
}

// send one message, true if acknowledged
func (n *Node) transmit(ctx context.Context, slot cycle.Slot, m *message.Message) bool {
	f := n.frame(m)
	payload, err := f.Pack()
	if nil == err {
		sendCtx, cancel := context.WithTimeout(ctx, n.options.AckTimeout)
		start := n.clock.Now()
		err = n.transport.Send(sendCtx, m.Zone, slot.Phase, payload)
		n.recorder.ObserveSendDuration(n.clock.Since(start))
		cancel()

		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %s", fault.ErrTransmissionTimeout, err)
		}
	}

	if nil == err {
		if err := n.queue.Acknowledge(m); nil != err {
			n.log.Errorf("acknowledge: %s  error: %s", m, err)
		}
		n.forget(m.ID)
		n.transmitted.Increment()
		n.recorder.IncTransmission(metrics.Acknowledged)
		n.log.Debugf("sent: %s  %s in slot: %s", m, f.Kind, slot)

		if n.options.LogTransmissions {
			n.logTransmission(slot, m, f.Kind.String(), len(payload))
		}
		return true
	}

	state, ferr := n.queue.Fail(m, err)
	if nil != ferr {
		n.log.Errorf("fail: %s  error: %s", m, ferr)
	}
	if message.Dropped == state {
		n.forget(m.ID)
		n.dropped.Increment()
		n.recorder.IncTransmission(metrics.Dropped)
		n.log.Warnf("dropped: %s  error: %s", m, err)
	} else {
		n.retried.Increment()
		n.recorder.IncTransmission(metrics.Retried)
		n.log.Infof("retry: %s  error: %s", m, err)
	}
	return false
}

// store a record of an acknowledged message
func (n *Node) logTransmission(slot cycle.Slot, m *message.Message, kind string, size int) {
	entry := TransmissionLog{
		ID:       m.ID,
		Kind:     kind,
		Zone:     m.Zone.String(),
		Cycle:    slot.Cycle,
		Phase:    uint8(slot.Phase),
		Priority: m.Priority.String(),
		Retries:  m.RetryCount,
		Bytes:    size,
		Sent:     n.clock.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if nil != err {
		n.log.Errorf("transmission log: %s  error: %s", m.ID, err)
		return
	}
	_, err = n.store.Store(data, constituent.Path, TransmissionLogPrefix+"/"+m.ID)
	if nil != err {
		n.log.Errorf("transmission log: %s  error: %s", m.ID, err)
	}
}
