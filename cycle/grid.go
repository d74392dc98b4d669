// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cycle

import (
	"context"
	"time"
)

// GridSynchroniser - realigns an epoch to cycles counted from a fixed origin
//
// devices with agreeing wall clocks share phase boundaries when their
// epochs start on the same grid of whole cycles
type GridSynchroniser struct {
	epoch         *Epoch
	grid          time.Time
	phaseDuration time.Duration
}

// NewGridSynchroniser - offsets that return epoch to the cycle grid starting at grid
func NewGridSynchroniser(epoch *Epoch, grid time.Time, phaseDuration time.Duration) *GridSynchroniser {
	if phaseDuration <= 0 {
		phaseDuration = DefaultPhaseDuration
	}
	return &GridSynchroniser{
		epoch:         epoch,
		grid:          grid,
		phaseDuration: phaseDuration,
	}
}

// Offset - shift moving the epoch origin to the nearest cycle start on the grid
func (g *GridSynchroniser) Offset(ctx context.Context) (time.Duration, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	cycleLength := g.phaseDuration * PhasesPerCycle
	d := g.epoch.Origin().Sub(g.grid) % cycleLength
	if d < 0 {
		d += cycleLength
	}
	if d > cycleLength/2 {
		return cycleLength - d, nil
	}
	return -d, nil
}
