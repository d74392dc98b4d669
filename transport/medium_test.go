// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cyclemesh/cycle"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/transport"
	"github.com/bitmark-inc/cyclemesh/zone"
)

type collector struct {
	sync.Mutex
	items [][]byte
}

func (c *collector) receive(payload []byte) {
	c.Lock()
	c.items = append(c.items, payload)
	c.Unlock()
}

func (c *collector) count() int {
	c.Lock()
	defer c.Unlock()
	return len(c.items)
}

func TestMediumBroadcast(t *testing.T) {
	medium := transport.NewMedium()
	a := medium.Endpoint("a")
	b := medium.Endpoint("b")
	c := medium.Endpoint("c")

	ca := &collector{}
	cb := &collector{}
	cc := &collector{}
	a.SetReceiver(ca.receive)
	b.SetReceiver(cb.receive)
	c.SetReceiver(cc.receive)

	var _ transport.Transport = a

	err := a.Send(context.Background(), zone.A, cycle.Phase(0), []byte("hello"))
	assert.NoError(t, err, "send")

	assert.Equal(t, 0, ca.count(), "sender must not hear itself")
	assert.Equal(t, 1, cb.count(), "b")
	assert.Equal(t, 1, cc.count(), "c")
	assert.Equal(t, []byte("hello"), cb.items[0], "payload")

	log := medium.Transmissions()
	assert.Equal(t, 1, len(log), "log")
	assert.Equal(t, "a", log[0].From, "from")
	assert.Equal(t, zone.A, log[0].Zone, "zone")
	assert.Equal(t, cycle.Phase(0), log[0].Phase, "phase")
}

func TestMediumLoss(t *testing.T) {
	medium := transport.NewMedium()
	a := medium.Endpoint("a")
	b := medium.Endpoint("b")
	cb := &collector{}
	b.SetReceiver(cb.receive)

	medium.SetLoss(func(t transport.Transmission) bool {
		return zone.B == t.Zone
	})

	err := a.Send(context.Background(), zone.B, cycle.Phase(2), []byte("lost"))
	assert.Equal(t, fault.ErrTransmissionTimeout, err, "lost")
	assert.Equal(t, 0, cb.count(), "not delivered")

	err = a.Send(context.Background(), zone.A, cycle.Phase(0), []byte("kept"))
	assert.NoError(t, err, "kept")
	assert.Equal(t, 1, cb.count(), "delivered")
	assert.Equal(t, 2, len(medium.Transmissions()), "both logged")
}

func TestMediumCancelledContext(t *testing.T) {
	medium := transport.NewMedium()
	a := medium.Endpoint("a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.Send(ctx, zone.A, cycle.Phase(0), []byte("late"))
	assert.Equal(t, context.Canceled, err, "cancelled")
	assert.Equal(t, 0, len(medium.Transmissions()), "not transmitted")
	assert.Equal(t, "a", a.Name(), "name")
}
