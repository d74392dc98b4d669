// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cycle

import (
	"fmt"
	"time"
)

// PhasesPerCycle - fixed number of phases in every cycle
const PhasesPerCycle = 8

// DefaultPhaseDuration - 8 phases make a one second cycle
const DefaultPhaseDuration = 125 * time.Millisecond

// Phase - position within a cycle, always 0..7
type Phase uint8

// NewPhase - reduce any integer to a phase
func NewPhase(n int64) Phase {
	p := n % PhasesPerCycle
	if p < 0 {
		p += PhasesPerCycle
	}
	return Phase(p)
}

// IsEven - even phases carry primary traffic
func (p Phase) IsEven() bool {
	return 0 == p%2
}

// Next - the following phase, wrapping 7 to 0
func (p Phase) Next() Phase {
	return (p + 1) % PhasesPerCycle
}

// Valid - check range
func (p Phase) Valid() bool {
	return p < PhasesPerCycle
}

// String - printable phase
func (p Phase) String() string {
	return fmt.Sprintf("phase-%d", uint8(p))
}

// Slot - a phase within a numbered cycle
type Slot struct {
	Cycle uint64
	Phase Phase
}

// String - printable slot
func (s Slot) String() string {
	return fmt.Sprintf("%d:%d", s.Cycle, s.Phase)
}
