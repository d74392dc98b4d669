// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/jonboulle/clockwork"

	"github.com/bitmark-inc/cyclemesh/cycle"
	"github.com/bitmark-inc/cyclemesh/fault"
	"github.com/bitmark-inc/cyclemesh/message"
	"github.com/bitmark-inc/cyclemesh/zone"
)

// tree key
type key struct {
	priority message.Priority
	sequence uint64
}

func compareKeys(a, b interface{}) int {
	k1 := a.(key)
	k2 := b.(key)
	switch {
	case k1.priority < k2.priority:
		return -1
	case k1.priority > k2.priority:
		return 1
	case k1.sequence < k2.sequence:
		return -1
	case k1.sequence > k2.sequence:
		return 1
	default:
		return 0
	}
}

type entry struct {
	m         *message.Message
	key       key
	notBefore time.Time
}

// Queue - the outbound queue
type Queue struct {
	sync.Mutex
	log      *logger.L
	clock    clockwork.Clock
	policy   RetryPolicy
	zones    map[zone.Zone]*redblacktree.Tree
	queued   map[string]*entry
	inFlight map[string]*entry
	sequence uint64
}

// New - create an empty queue
func New(policy RetryPolicy, clock clockwork.Clock) *Queue {
	if nil == clock {
		clock = clockwork.NewRealClock()
	}
	return &Queue{
		log:      logger.New("queue"),
		clock:    clock,
		policy:   policy,
		zones:    make(map[zone.Zone]*redblacktree.Tree),
		queued:   make(map[string]*entry),
		inFlight: make(map[string]*entry),
	}
}

// SetPolicy - replace the retry policy, applies to later failures
func (q *Queue) SetPolicy(policy RetryPolicy) {
	q.Lock()
	defer q.Unlock()
	q.policy = policy
	q.log.Infof("retry policy: max retries: %d  backoff: %s", policy.MaxRetries, policy.Backoff)
}

// Policy - the current retry policy
func (q *Queue) Policy() RetryPolicy {
	q.Lock()
	defer q.Unlock()
	return q.policy
}

func (q *Queue) tree(z zone.Zone) *redblacktree.Tree {
	t, ok := q.zones[z]
	if !ok {
		t = redblacktree.NewWith(compareKeys)
		q.zones[z] = t
	}
	return t
}

// Enqueue - add a newly created message
func (q *Queue) Enqueue(m *message.Message) error {
	if nil == m || "" == m.ID {
		return fault.ErrInvalidMessage
	}
	if !m.Priority.Valid() {
		return fault.ErrInvalidPriority
	}

	q.Lock()
	defer q.Unlock()

	if _, ok := q.queued[m.ID]; ok {
		return fault.ErrMessageExists
	}
	if _, ok := q.inFlight[m.ID]; ok {
		return fault.ErrMessageExists
	}

	if err := m.Transition(message.Queued, nil); nil != err {
		return err
	}

	q.sequence += 1
	e := &entry{
		m: m,
		key: key{
			priority: m.Priority,
			sequence: q.sequence,
		},
	}
	q.queued[m.ID] = e
	q.tree(m.Zone).Put(e.key, e)

	q.log.Debugf("enqueued: %s", m)
	return nil
}

// DequeueFor - take the most urgent sendable message for a zone
//
// only emergency messages are taken in odd phases; messages still
// backing off are skipped
func (q *Queue) DequeueFor(p cycle.Phase, z zone.Zone) *message.Message {
	q.Lock()
	defer q.Unlock()

	t, ok := q.zones[z]
	if !ok || t.Empty() {
		return nil
	}

	now := q.clock.Now()
	emergencyOnly := !p.IsEven()

	var found *entry
	it := t.Iterator()
	for it.Next() {
		e := it.Value().(*entry)
		if emergencyOnly && !e.key.priority.IsEmergency() {
			break
		}
		if e.notBefore.After(now) {
			continue
		}
		found = e
		break
	}
	if nil == found {
		return nil
	}

	if err := found.m.Transition(message.Transmitting, nil); nil != err {
		q.log.Errorf("dequeue: %s  error: %s", found.m, err)
		return nil
	}
	t.Remove(found.key)
	delete(q.queued, found.m.ID)
	q.inFlight[found.m.ID] = found

	return found.m
}

// HasEmergency - true if a sendable emergency message waits for zone z
func (q *Queue) HasEmergency(z zone.Zone) bool {
	q.Lock()
	defer q.Unlock()

	t, ok := q.zones[z]
	if !ok {
		return false
	}
	now := q.clock.Now()
	it := t.Iterator()
	for it.Next() {
		e := it.Value().(*entry)
		if !e.key.priority.IsEmergency() {
			return false
		}
		if !e.notBefore.After(now) {
			return true
		}
	}
	return false
}

// Cancel - drop a message that has not started transmitting
func (q *Queue) Cancel(id string) bool {
	q.Lock()
	defer q.Unlock()

	e, ok := q.queued[id]
	if !ok {
		return false
	}
	if err := e.m.Transition(message.Dropped, fault.ErrCancelled); nil != err {
		return false
	}
	q.tree(e.m.Zone).Remove(e.key)
	delete(q.queued, id)

	q.log.Debugf("cancelled: %s", e.m)
	return true
}

// Acknowledge - a transmitting message was delivered
func (q *Queue) Acknowledge(m *message.Message) error {
	q.Lock()
	defer q.Unlock()

	if _, ok := q.inFlight[m.ID]; !ok {
		return fault.ErrInvalidTransition
	}
	delete(q.inFlight, m.ID)

	if err := m.Transition(message.Acknowledged, nil); nil != err {
		return err
	}
	return m.Transition(message.Done, nil)
}

// Fail - a transmitting message was not delivered
//
// the message is requeued after a backoff delay or, when its retries
// are exhausted, dropped with a terminal outcome; the returned state
// is Queued or Dropped
func (q *Queue) Fail(m *message.Message, reason error) (message.State, error) {
	q.Lock()
	defer q.Unlock()

	e, ok := q.inFlight[m.ID]
	if !ok {
		return m.State(), fault.ErrInvalidTransition
	}
	delete(q.inFlight, m.ID)

	if err := m.Transition(message.Failed, reason); nil != err {
		return m.State(), err
	}

	limit := m.MaxRetries
	if limit <= 0 {
		limit = q.policy.MaxRetries
	}

	m.RetryCount += 1
	if m.RetryCount > limit {
		err := error(fault.ErrRetriesExhausted)
		if nil != reason {
			err = fmt.Errorf("%w: %w", fault.ErrRetriesExhausted, reason)
		}
		q.log.Warnf("dropped: %s  reason: %s", m, reason)
		return message.Dropped, m.Transition(message.Dropped, err)
	}

	e.notBefore = q.clock.Now().Add(q.policy.Delay(m.RetryCount))
	if err := m.Transition(message.Queued, nil); nil != err {
		return m.State(), err
	}
	q.queued[m.ID] = e
	q.tree(m.Zone).Put(e.key, e)

	q.log.Debugf("requeued: %s  not before: %s", m, e.notBefore)
	return message.Queued, nil
}

// Len - number of queued messages
func (q *Queue) Len() int {
	q.Lock()
	defer q.Unlock()
	return len(q.queued)
}

// InFlight - number of messages being transmitted
func (q *Queue) InFlight() int {
	q.Lock()
	defer q.Unlock()
	return len(q.inFlight)
}

// Depth - queued messages for one zone
func (q *Queue) Depth(z zone.Zone) int {
	q.Lock()
	defer q.Unlock()
	if t, ok := q.zones[z]; ok {
		return t.Size()
	}
	return 0
}
