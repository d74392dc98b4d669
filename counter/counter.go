// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package counter - lock free event counters for health reporting
package counter

import (
	"sync/atomic"
)

// Counter - an event total that can be updated concurrently
//
// the zero value is ready to use; must not be copied after first use
type Counter struct {
	n atomic.Uint64
}

// Increment - count one event, returns new value
func (c *Counter) Increment() uint64 {
	return c.n.Add(1)
}

// Add - count n events, returns new value
func (c *Counter) Add(n uint64) uint64 {
	return c.n.Add(n)
}

// Uint64 - current value
func (c *Counter) Uint64() uint64 {
	return c.n.Load()
}
