// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"sync"

	"github.com/bitmark-inc/cyclemesh/cycle"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/zone"
)

// Transmission - one send seen by a medium
type Transmission struct {
	From    string
	Zone    zone.Zone
	Phase   cycle.Phase
	Payload []byte
}

// LossFunc - decide whether a transmission goes unacknowledged
type LossFunc func(t Transmission) bool

// Medium - an in-memory shared channel
//
// every send is delivered to all other endpoints and logged
type Medium struct {
	sync.Mutex
	endpoints []*Endpoint
	log       []Transmission
	loss      LossFunc
}

// Endpoint - one device's view of a medium
type Endpoint struct {
	name     string
	medium   *Medium
	lock     sync.RWMutex
	receiver Receiver
}

// NewMedium - create an empty medium
func NewMedium() *Medium {
	return &Medium{}
}

// Endpoint - attach a new device
func (m *Medium) Endpoint(name string) *Endpoint {
	e := &Endpoint{
		name:   name,
		medium: m,
	}
	m.Lock()
	m.endpoints = append(m.endpoints, e)
	m.Unlock()
	return e
}

// SetLoss - install a loss function, nil delivers everything
func (m *Medium) SetLoss(loss LossFunc) {
	m.Lock()
	m.loss = loss
	m.Unlock()
}

// Transmissions - copy of the log
func (m *Medium) Transmissions() []Transmission {
	m.Lock()
	defer m.Unlock()
	result := make([]Transmission, len(m.log))
	copy(result, m.log)
	return result
}

// Name - endpoint name
func (e *Endpoint) Name() string {
	return e.name
}

// SetReceiver - register inbound callback
func (e *Endpoint) SetReceiver(r Receiver) {
	e.lock.Lock()
	e.receiver = r
	e.lock.Unlock()
}

// Send - deliver to every other endpoint
func (e *Endpoint) Send(ctx context.Context, z zone.Zone, p cycle.Phase, payload []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t := Transmission{
		From:    e.name,
		Zone:    z,
		Phase:   p,
		Payload: append([]byte(nil), payload...),
	}

	m := e.medium
	m.Lock()
	m.log = append(m.log, t)
	lost := nil != m.loss && m.loss(t)
	endpoints := make([]*Endpoint, len(m.endpoints))
	copy(endpoints, m.endpoints)
	m.Unlock()

	if lost {
		return fault.ErrTransmissionTimeout
	}

	for _, peer := range endpoints {
		if peer == e {
			continue
		}
		peer.lock.RLock()
		r := peer.receiver
		peer.lock.RUnlock()
		if nil != r {
			r(append([]byte(nil), payload...))
		}
	}
	return nil
}
