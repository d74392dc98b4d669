// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package zone - channel access policy for groups of devices
//
// phase use within a cycle of three zones:
//
//   phase   0   1   2   3   4   5   6   7
//   zone    A   B!  A   C!  A   B!  A   C!
//
// A is the primary zone and owns every even phase. B and C are
// secondary zones and may only use their odd phases for emergency
// traffic (marked !), otherwise those phases are silent.
//
// with more than three zones, zones are taken in groups of three and
// each cycle one group is active with the A, B and C roles.
package zone
