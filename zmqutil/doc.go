// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package zmqutil carries frames between devices over ZeroMQ.
//
// Each device binds one PUB socket and connects a SUB socket to every
// peer's PUB socket. With keys configured the sockets use CURVE
// encryption, peers being identified by their public key.
package zmqutil
