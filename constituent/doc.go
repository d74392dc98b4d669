// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package constituent - the three addressing schemes of the store
//
// A reference is always interpreted relative to one constituent:
//
//   Path       - hierarchical string: /seg/seg/seg (1..11 segments)
//   Content    - SHA2-256 digest of the payload as 64 hex digits,
//                or a CIDv1 (raw codec, sha2-256 multihash)
//   Coordinate - "lat,lng,precision" with precision 1..12 decimal places
//
// Parse validates a reference and returns the canonical Alias used as
// the index key.  Coordinates are also discretised to a grid Cell by
// rounding latitude and longitude to the given precision, so nearby
// points at one precision share a bucket.
package constituent
