// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cycle - fixed phase scheduler
//
// time since the epoch origin is divided into phases of equal length,
// eight phases to a cycle:
//
//   phase = floor((now - origin) / phase duration) mod 8
//   cycle = floor((now - origin) / (8 × phase duration))
//
// all devices sharing an origin agree on the phase without talking to
// each other, so the origin is periodically corrected against peers
package cycle
