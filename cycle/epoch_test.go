// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/cyclemesh/cycle"
)

func TestPhaseArithmetic(t *testing.T) {
	assert.Equal(t, cycle.Phase(7), cycle.NewPhase(-1))
	assert.Equal(t, cycle.Phase(0), cycle.NewPhase(16))
	assert.Equal(t, cycle.Phase(3), cycle.NewPhase(11))
	assert.Equal(t, cycle.Phase(0), cycle.Phase(7).Next(), "7 wraps to 0")
	assert.True(t, cycle.Phase(6).IsEven())
	assert.False(t, cycle.Phase(5).IsEven())
	assert.False(t, cycle.Phase(8).Valid())
}

func TestEpochSlots(t *testing.T) {
	origin := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	pd := cycle.DefaultPhaseDuration
	e := cycle.NewEpoch(origin)

	items := []struct {
		offset time.Duration
		slot   cycle.Slot
	}{
		{0, cycle.Slot{Cycle: 0, Phase: 0}},
		{124 * time.Millisecond, cycle.Slot{Cycle: 0, Phase: 0}},
		{125 * time.Millisecond, cycle.Slot{Cycle: 0, Phase: 1}},
		{875 * time.Millisecond, cycle.Slot{Cycle: 0, Phase: 7}},
		{1000 * time.Millisecond, cycle.Slot{Cycle: 1, Phase: 0}},
		{3*time.Second + 250*time.Millisecond, cycle.Slot{Cycle: 3, Phase: 2}},
		{-time.Millisecond, cycle.Slot{Cycle: 0, Phase: 7}},
	}
	for i, item := range items {
		assert.Equal(t, item.slot, e.SlotAt(origin.Add(item.offset), pd), "%d: offset: %s", i, item.offset)
	}

	assert.Equal(t, int64(-1), e.Index(origin.Add(-time.Millisecond), pd))
	assert.Equal(t, int64(1), e.NearestIndex(origin.Add(120*time.Millisecond), pd))
	assert.Equal(t, int64(0), e.NearestIndex(origin.Add(60*time.Millisecond), pd))
	assert.Equal(t, origin.Add(time.Second), e.Boundary(8, pd))
}

func TestEpochChanges(t *testing.T) {
	origin := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	e := cycle.NewEpoch(origin)
	assert.Equal(t, uint64(0), e.Generation())

	e.Adjust(5 * time.Millisecond)
	assert.Equal(t, origin.Add(5*time.Millisecond), e.Origin())
	assert.Equal(t, uint64(1), e.Generation())

	later := origin.Add(time.Hour)
	e.Resync(later)
	assert.Equal(t, later, e.Origin())
	assert.Equal(t, uint64(2), e.Generation())
	assert.Equal(t, cycle.Slot{}, e.SlotAt(later, cycle.DefaultPhaseDuration), "resync re-enters phase zero")
}
