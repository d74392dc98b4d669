// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package node

import (
	"github.com/bitmark-inc/cyclemesh/cycle"
)

// Health - device status, also the payload of a health response
type Health struct {
	Device        string      `json:"device"`
	Zone          string      `json:"zone"`
	Slot          string      `json:"slot"`
	Queued        int         `json:"queued"`
	InFlight      int         `json:"inFlight"`
	Records       int         `json:"records"`
	Aliases       int         `json:"aliases"`
	Transmitted   uint64      `json:"transmitted"`
	Retried       uint64      `json:"retried"`
	Dropped       uint64      `json:"dropped"`
	Received      uint64      `json:"received"`
	Stored        uint64      `json:"stored"`
	Duplicates    uint64      `json:"duplicates"`
	Invalid       uint64      `json:"invalid"`
	RateLimited   uint64      `json:"rateLimited"`
	Rejected      uint64      `json:"rejected"`
	StoreFailures uint64      `json:"storeFailures"`
	Scheduler     cycle.Stats `json:"scheduler"`
}

// Health - current status
func (n *Node) Health() Health {
	h := Health{
		Device:        n.options.DeviceID,
		Zone:          n.zone.String(),
		Slot:          n.scheduler.CurrentSlot().String(),
		Queued:        n.queue.Len(),
		InFlight:      n.queue.InFlight(),
		Transmitted:   n.transmitted.Uint64(),
		Retried:       n.retried.Uint64(),
		Dropped:       n.dropped.Uint64(),
		Received:      n.received.Uint64(),
		Stored:        n.stored.Uint64(),
		Duplicates:    n.duplicates.Uint64(),
		Invalid:       n.invalid.Uint64(),
		RateLimited:   n.rateLimited.Uint64(),
		Rejected:      n.rejected.Uint64(),
		StoreFailures: n.storeFailures.Uint64(),
		Scheduler:     n.scheduler.Stats(),
	}

	stats, err := n.store.Stats()
	if nil != err {
		n.log.Errorf("health: store stats error: %s", err)
	} else {
		h.Records = stats.Records
		h.Aliases = stats.Aliases
	}
	return h
}
