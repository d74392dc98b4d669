// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package message - outbound messages and their delivery state
//
// state transitions:
//
//   Created -> Queued -> Transmitting -> Acknowledged -> Done
//                 ^            |
//                 |            v
//                 +-------- Failed -> Dropped
//
//   Queued -> Dropped (cancelled)
//
// Done and Dropped are terminal and deliver exactly one Outcome
package message
