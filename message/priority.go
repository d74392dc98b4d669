// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package message

import (
	"strings"

	"github.com/bitmark-inc/cyclemesh/fault"
)

// Priority - lower is more urgent
type Priority uint8

// priorities
const (
	Emergency Priority = iota
	High
	Normal
	Low
	Bulk
	priorityLimit
)

// String - name of priority
func (p Priority) String() string {
	switch p {
	case Emergency:
		return "emergency"
	case High:
		return "high"
	case Normal:
		return "normal"
	case Low:
		return "low"
	case Bulk:
		return "bulk"
	default:
		return "invalid"
	}
}

// Valid - check range
func (p Priority) Valid() bool {
	return p < priorityLimit
}

// IsEmergency - the only tier allowed in odd phases
func (p Priority) IsEmergency() bool {
	return Emergency == p
}

// PriorityFromString - convert a name to a priority
func PriorityFromString(s string) (Priority, error) {
	for p := Emergency; p < priorityLimit; p += 1 {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return priorityLimit, fault.ErrInvalidPriority
}
