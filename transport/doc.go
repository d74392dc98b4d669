// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package transport defines what the node needs from the physical
// channel and the frame carried over it.
//
// A Transport is injected: the in-memory Medium serves tests and
// simulation, the zmqutil package provides a broadcast over sockets.
//
// Frame layout (all integers are util varints unless noted):
//
//   version      1 byte
//   kind         1 byte
//   id           length + bytes
//   source       length + bytes
//   zone         varint
//   priority     1 byte
//   constituent  1 byte
//   reference    length + bytes
//   payload      length + bytes
package transport
