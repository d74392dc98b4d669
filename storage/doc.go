// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk data store
//
// maintain separate pools of a number of elements in key->value form
//
// This maintains two LevelDB databases each split into a series of
// tables.  Each table is defined by a prefix byte that is obtained from
// the prefix tag in the struct defining the available tables.
//
// The records database is the source of truth; the index database is
// derived from it and may be dropped and rebuilt at any time.
//
// Notes:
// 1. each separate pool has a single byte prefix (to spread the keys in LevelDB)
// 2. ++           = concatenation of byte data
// 3. record id    = big endian uint64 (8 bytes)
// 4. alias        = constituent byte ++ canonical reference
// 5. cell         = precision byte ++ biased big endian lat ++ biased big endian lng
//
// Records:
//
//   R ++ record id             - stored records
//                                data: packed record (see record package)
//   N ++ name                  - counters
//                                data: next value (big endian uint64)
//
// Index:
//
//   A ++ alias                 - alias to record
//                                data: record id
//   G ++ cell ++ record id     - coordinate bucket membership
//                                data: empty
//   M ++ name                  - index metadata (e.g. watermark)
//                                data: big endian uint64
package storage
