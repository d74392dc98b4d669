// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"encoding/json"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/metrics"
	"github.com/bitmark-inc/cyclemesh/transport"
)

const inboundSource = "transport"

// transport callback, never blocks
func (n *Node) receive(payload []byte) {
	if err := n.inbound.Send(inboundSource, payload); nil != err {
		n.rejected.Increment()
		n.recorder.IncInbound(metrics.Rejected)
		n.log.Warnf("inbound: %s  discarded: %d bytes", err, len(payload))
	}
}

// background process draining the inbound queue
type processor struct {
	node *Node
}

func (p *processor) Run(args interface{}, shutdown <-chan struct{}) {
	log := args.(*logger.L)
	log.Info("receiver starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case item := <-p.node.inbound.Chan():
			payload, ok := item.Item.([]byte)
			if !ok {
				log.Errorf("inbound from: %s  unexpected item: %T", item.From, item.Item)
				continue
			}
			if err := p.node.process(payload); nil != err {
				log.Debugf("inbound: %s", err)
			}
		}
	}
	log.Info("receiver stopped")
}

// handle one received frame
func (n *Node) process(payload []byte) error {
	if nil != n.limiter && !n.limiter.AllowN(n.clock.Now(), 1) {
		n.rateLimited.Increment()
		n.recorder.IncInbound(metrics.RateLimited)
		return fault.ErrRateLimiting
	}

	f, err := transport.UnpackFrame(payload)
	if nil != err {
		n.invalid.Increment()
		n.recorder.IncInbound(metrics.Invalid)
		n.log.Warnf("invalid frame: %d bytes  error: %s", len(payload), err)
		return err
	}

	// own transmission reflected back
	if f.Source == n.options.DeviceID {
		return nil
	}

	if n.seen.Seen(f.Kind.String() + ":" + f.ID) {
		n.duplicates.Increment()
		n.recorder.IncInbound(metrics.Duplicate)
		return nil
	}
	n.received.Increment()

	switch f.Kind {
	case transport.Data:
		return n.accept(f)

	case transport.HealthRequest:
		return n.answerHealth(f)

	default:
		n.recorder.IncInbound(metrics.Delivered)
		n.deliver(f)
		return nil
	}
}

// store an addressed payload and pass the frame on
func (n *Node) accept(f *transport.Frame) error {
	if constituent.Invalid == f.Constituent {
		n.recorder.IncInbound(metrics.Delivered)
		n.deliver(f)
		return nil
	}

	id, err := n.store.Store(f.Payload, f.Constituent, f.Reference)
	if nil != err {
		n.storeFailures.Increment()
		n.recorder.IncInbound(metrics.Failed)
		n.log.Errorf("store: %s %s from: %q  error: %s", f.Constituent, f.Reference, f.Source, err)
		return err
	}
	n.stored.Increment()
	n.recorder.IncInbound(metrics.Stored)
	n.log.Debugf("stored: %s %s from: %q  record: %d", f.Constituent, f.Reference, f.Source, id)

	n.deliver(f)
	return nil
}

// queue a health response
func (n *Node) answerHealth(f *transport.Frame) error {
	data, err := json.Marshal(n.Health())
	if nil != err {
		return err
	}
	m, err := n.control(transport.HealthResponse, data)
	if nil != err {
		n.log.Errorf("health request from: %q  error: %s", f.Source, err)
		return err
	}
	n.recorder.IncInbound(metrics.Answered)
	n.log.Debugf("health request from: %q  response: %s", f.Source, m.ID)
	return nil
}

func (n *Node) deliver(f *transport.Frame) {
	if nil != n.options.Deliver {
		n.options.Deliver(f)
	}
}
