// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zone

import (
	"encoding/binary"
	"strconv"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/cyclemesh/cycle"
	"github.com/bitmark-inc/cyclemesh/fault"
)

// DefaultZoneCount - zones A, B and C
const DefaultZoneCount = 3

// Zone - zero based zone index
type Zone uint32

// the three roles within an active group
const (
	A Zone = 0 // primary
	B Zone = 1 // secondary
	C Zone = 2 // secondary
)

// String - A, B, C for the first group then numeric
func (z Zone) String() string {
	if z < 3 {
		return string(rune('A' + z))
	}
	return "Z" + strconv.FormatUint(uint64(z), 10)
}

// Role - what a zone may do during one cycle
type Role uint8

// roles
const (
	Silent     Role = iota // zone's group is not active this cycle
	Primary                // even phases
	SecondaryB             // emergency in phases 1 and 5
	SecondaryC             // emergency in phases 3 and 7
)

// String - printable role
func (r Role) String() string {
	switch r {
	case Primary:
		return "primary"
	case SecondaryB:
		return "secondary-b"
	case SecondaryC:
		return "secondary-c"
	default:
		return "silent"
	}
}

// QueueState - the only queue fact the eligibility rule needs
type QueueState interface {
	HasEmergency(z Zone) bool
}

// Coordinator - fixed transmit policy for a number of zones
type Coordinator struct {
	zoneCount int
	groups    uint64
}

// NewCoordinator - create a coordinator for zoneCount zones
func NewCoordinator(zoneCount int) (*Coordinator, error) {
	if zoneCount < 1 {
		return nil, fault.ErrInvalidZoneCount
	}
	return &Coordinator{
		zoneCount: zoneCount,
		groups:    uint64((zoneCount + 2) / 3),
	}, nil
}

// ZoneCount - number of zones
func (c *Coordinator) ZoneCount() int {
	return c.zoneCount
}

// ZoneOf - deterministic zone for a device
//
// first 8 bytes of SHA3-256(device id) as big endian, modulo zone count
func (c *Coordinator) ZoneOf(deviceID string) Zone {
	digest := sha3.Sum256([]byte(deviceID))
	n := binary.BigEndian.Uint64(digest[:8])
	return Zone(n % uint64(c.zoneCount))
}

// RoleOf - role of a zone in a given cycle
func (c *Coordinator) RoleOf(z Zone, cycleNumber uint64) Role {
	if int(z) >= c.zoneCount {
		return Silent
	}
	group := uint64(z) / 3
	if cycleNumber%c.groups != group {
		return Silent
	}
	switch z % 3 {
	case 0:
		return Primary
	case 1:
		return SecondaryB
	default:
		return SecondaryC
	}
}

// TransmitAllowedInCycle - may zone z use phase p of the given cycle
func (c *Coordinator) TransmitAllowedInCycle(z Zone, cycleNumber uint64, p cycle.Phase) bool {
	if !p.Valid() {
		return false
	}
	switch c.RoleOf(z, cycleNumber) {
	case Primary:
		return p.IsEven()
	case SecondaryB:
		return 1 == p || 5 == p
	case SecondaryC:
		return 3 == p || 7 == p
	default:
		return false
	}
}

// TransmitAllowed - may zone z use phase p
//
// this is the view of cycle zero, which is every cycle when there are
// no more than three zones
func (c *Coordinator) TransmitAllowed(z Zone, p cycle.Phase) bool {
	return c.TransmitAllowedInCycle(z, 0, p)
}

// Eligible - may zone z send now, given what it has queued
//
// odd phases are only used for emergency traffic
func (c *Coordinator) Eligible(p cycle.Phase, z Zone, q QueueState) bool {
	return c.EligibleInCycle(p, z, 0, q)
}

// EligibleInCycle - Eligible for a specific cycle
func (c *Coordinator) EligibleInCycle(p cycle.Phase, z Zone, cycleNumber uint64, q QueueState) bool {
	if !c.TransmitAllowedInCycle(z, cycleNumber, p) {
		return false
	}
	if p.IsEven() {
		return true
	}
	return nil != q && q.HasEmergency(z)
}

// Owner - the zone allowed in a slot, if any
func (c *Coordinator) Owner(cycleNumber uint64, p cycle.Phase) (Zone, bool) {
	group := cycleNumber % c.groups
	for z := Zone(group * 3); z < Zone(group*3+3) && int(z) < c.zoneCount; z += 1 {
		if c.TransmitAllowedInCycle(z, cycleNumber, p) {
			return z, true
		}
	}
	return 0, false
}
