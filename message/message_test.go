// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package message_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/message"
	"github.com/bitmark-inc/cyclemesh/zone"
)

func TestDeliveredPath(t *testing.T) {
	m := message.New([]byte("hello"), zone.A, message.Normal, time.Now())
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, message.Created, m.State())

	for _, s := range []message.State{message.Queued, message.Transmitting, message.Acknowledged, message.Done} {
		assert.NoError(t, m.Transition(s, nil), "to: %s", s)
	}

	outcome := <-m.Outcome()
	assert.Equal(t, m.ID, outcome.ID)
	assert.Equal(t, message.Done, outcome.State)
	assert.NoError(t, outcome.Err)

	_, open := <-m.Outcome()
	assert.False(t, open, "single outcome")

	err := m.Transition(message.Queued, nil)
	assert.True(t, fault.IsErrInvalid(err))
}

func TestRetryThenDrop(t *testing.T) {
	m := message.New([]byte("hello"), zone.B, message.Emergency, time.Now())

	assert.NoError(t, m.Transition(message.Queued, nil))
	assert.NoError(t, m.Transition(message.Transmitting, nil))
	assert.NoError(t, m.Transition(message.Failed, fault.ErrTransmissionTimeout))
	assert.NoError(t, m.Transition(message.Queued, nil))
	assert.NoError(t, m.Transition(message.Transmitting, nil))
	assert.NoError(t, m.Transition(message.Failed, fault.ErrTransmissionTimeout))
	assert.NoError(t, m.Transition(message.Dropped, nil))

	outcome := <-m.Outcome()
	assert.Equal(t, message.Dropped, outcome.State)
	assert.Equal(t, fault.ErrTransmissionTimeout, outcome.Err)
}

func TestLiteralMessageOutcome(t *testing.T) {
	m := &message.Message{
		ID:       "m-1",
		Payload:  []byte("hello"),
		Zone:     zone.A,
		Priority: message.Normal,
	}
	assert.Equal(t, message.Created, m.State())

	done := make(chan error, 1)
	go func() {
		err := m.Transition(message.Queued, nil)
		if nil == err {
			err = m.Transition(message.Dropped, fault.ErrCancelled)
		}
		done <- err
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("terminal transition blocked")
	}

	outcome := <-m.Outcome()
	assert.Equal(t, "m-1", outcome.ID)
	assert.Equal(t, message.Dropped, outcome.State)
	assert.Equal(t, fault.ErrCancelled, outcome.Err)
}

func TestIllegalTransitions(t *testing.T) {
	items := []struct {
		from []message.State
		to   message.State
	}{
		{nil, message.Transmitting},
		{nil, message.Done},
		{[]message.State{message.Queued}, message.Acknowledged},
		{[]message.State{message.Queued, message.Transmitting}, message.Dropped},
		{[]message.State{message.Queued, message.Transmitting}, message.Queued},
	}

	for i, item := range items {
		m := message.New(nil, zone.A, message.Low, time.Now())
		for _, s := range item.from {
			assert.NoError(t, m.Transition(s, nil), "%d: setup", i)
		}
		err := m.Transition(item.to, nil)
		assert.True(t, fault.IsErrInvalid(err), "%d: %s", i, item.to)
	}
}

func TestPriority(t *testing.T) {
	p, err := message.PriorityFromString("EMERGENCY")
	assert.NoError(t, err)
	assert.True(t, p.IsEmergency())
	assert.True(t, message.Emergency < message.Bulk)

	_, err = message.PriorityFromString("urgent")
	assert.Equal(t, fault.ErrInvalidPriority, err)
	assert.False(t, message.Priority(9).Valid())
}
