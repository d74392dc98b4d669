// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package node joins the scheduler, zone policy, queue, store and
// transport into one device.
//
// Transmit path: every phase handler asks the coordinator whether the
// device's zone may speak, drains the queue in priority order while it
// may, hands each frame to the transport and acknowledges or fails the
// message according to the result.
//
// Receive path: the transport callback only queues the bytes; a
// background process rate limits, decodes and de-duplicates frames,
// stores addressed payloads and answers health requests.
package node
