// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package message

// State - delivery state
type State uint8

// states
const (
	Created State = iota
	Queued
	Transmitting
	Acknowledged
	Done
	Failed
	Dropped
)

// String - name of state
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Queued:
		return "queued"
	case Transmitting:
		return "transmitting"
	case Acknowledged:
		return "acknowledged"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Dropped:
		return "dropped"
	default:
		return "invalid"
	}
}

// IsTerminal - no further transitions
func (s State) IsTerminal() bool {
	return Done == s || Dropped == s
}

var transitions = map[State][]State{
	Created:      {Queued},
	Queued:       {Transmitting, Dropped},
	Transmitting: {Acknowledged, Failed},
	Acknowledged: {Done},
	Failed:       {Queued, Dropped},
}

// CanTransition - check the state machine permits from -> to
func CanTransition(from State, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
