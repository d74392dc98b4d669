// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package message

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bitmark-inc/cyclemesh/constituent"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/zone"
)

// DefaultMaxRetries - retries after the first attempt
const DefaultMaxRetries = 3

// Outcome - the final result of a message
type Outcome struct {
	ID    string
	State State
	Err   error
}

// Message - an outbound payload
type Message struct {
	ID         string
	Payload    []byte
	Zone       zone.Zone
	Priority   Priority
	CreatedAt  time.Time
	RetryCount int
	MaxRetries int

	// where the receiver should store the payload, optional
	Constituent constituent.Constituent
	Reference   string

	sync.Mutex
	state   State
	lastErr error
	outcome chan Outcome
}

// New - create a message with a fresh id
func New(payload []byte, z zone.Zone, priority Priority, createdAt time.Time) *Message {
	return &Message{
		ID:         uuid.New().String(),
		Payload:    payload,
		Zone:       z,
		Priority:   priority,
		CreatedAt:  createdAt,
		MaxRetries: DefaultMaxRetries,
		state:      Created,
		outcome:    make(chan Outcome, 1),
	}
}

// WithAddress - set where the receiver stores the payload
func (m *Message) WithAddress(c constituent.Constituent, reference string) *Message {
	m.Constituent = c
	m.Reference = reference
	return m
}

// State - current state
func (m *Message) State() State {
	m.Lock()
	defer m.Unlock()
	return m.state
}

// Err - the last failure recorded
func (m *Message) Err() error {
	m.Lock()
	defer m.Unlock()
	return m.lastErr
}

// Outcome - channel receiving the single terminal outcome
func (m *Message) Outcome() <-chan Outcome {
	m.Lock()
	defer m.Unlock()
	return m.outcomeChannel()
}

// messages not made by New get their channel on first use; lock must be held
func (m *Message) outcomeChannel() chan Outcome {
	if nil == m.outcome {
		m.outcome = make(chan Outcome, 1)
	}
	return m.outcome
}

// Transition - move to a new state
//
// err is recorded as the reason for Failed and Dropped; entering a
// terminal state delivers the outcome
func (m *Message) Transition(to State, err error) error {
	m.Lock()
	defer m.Unlock()

	if !CanTransition(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", fault.ErrInvalidTransition, m.state, to)
	}
	m.state = to
	if nil != err {
		m.lastErr = err
	}

	if to.IsTerminal() {
		result := Outcome{
			ID:    m.ID,
			State: to,
		}
		if Dropped == to {
			result.Err = m.lastErr
		}
		outcome := m.outcomeChannel()
		outcome <- result
		close(outcome)
	}
	return nil
}

// String - summary for logging
func (m *Message) String() string {
	return fmt.Sprintf("%s[%s zone: %s retry: %d/%d]", m.ID, m.Priority, m.Zone, m.RetryCount, m.MaxRetries)
}
