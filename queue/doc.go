// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package queue - outbound message priority queue
//
// each zone has its own tree ordered by (priority, sequence) so
// messages leave in priority order and FIFO within a priority
//
// a failed message returns to its original position after a backoff
// delay, until its retries are exhausted
package queue
