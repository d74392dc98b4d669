// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cycle

import (
	"sync"
	"time"
)

// Epoch - the shared time origin of phase zero of cycle zero
//
// only changed through Resync and Adjust; each change increments the
// generation so the scheduler can notice it
type Epoch struct {
	sync.RWMutex
	origin     time.Time
	generation uint64
}

// NewEpoch - create an epoch starting at origin
func NewEpoch(origin time.Time) *Epoch {
	return &Epoch{
		origin: origin,
	}
}

// Origin - start of cycle zero
func (e *Epoch) Origin() time.Time {
	e.RLock()
	defer e.RUnlock()
	return e.origin
}

// Generation - number of changes made to the origin
func (e *Epoch) Generation() uint64 {
	e.RLock()
	defer e.RUnlock()
	return e.generation
}

// Resync - restart phase zero of cycle zero at origin
func (e *Epoch) Resync(origin time.Time) {
	e.Lock()
	defer e.Unlock()
	e.origin = origin
	e.generation += 1
}

// Adjust - shift the origin by offset
func (e *Epoch) Adjust(offset time.Duration) {
	e.Lock()
	defer e.Unlock()
	e.origin = e.origin.Add(offset)
	e.generation += 1
}

// Index - absolute phase number containing t (floor)
func (e *Epoch) Index(t time.Time, phaseDuration time.Duration) int64 {
	elapsed := t.Sub(e.Origin())
	n := int64(elapsed / phaseDuration)
	if elapsed < 0 && 0 != elapsed%phaseDuration {
		n -= 1
	}
	return n
}

// NearestIndex - absolute phase number of the boundary closest to t
func (e *Epoch) NearestIndex(t time.Time, phaseDuration time.Duration) int64 {
	return e.Index(t.Add(phaseDuration/2), phaseDuration)
}

// Boundary - start time of an absolute phase number
func (e *Epoch) Boundary(index int64, phaseDuration time.Duration) time.Time {
	return e.Origin().Add(time.Duration(index) * phaseDuration)
}

// SlotAt - cycle and phase containing t
func (e *Epoch) SlotAt(t time.Time, phaseDuration time.Duration) Slot {
	return SlotOf(e.Index(t, phaseDuration))
}

// SlotOf - convert an absolute phase number
//
// times before the origin are reported as cycle zero
func SlotOf(index int64) Slot {
	cycle := index / PhasesPerCycle
	if index < 0 {
		cycle = 0
	}
	return Slot{
		Cycle: uint64(cycle),
		Phase: NewPhase(index),
	}
}
