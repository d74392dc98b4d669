// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package record - packed form of a stored item
//
// Layout (++ = concatenation, varint = util.ToVarint64):
//
//   varint(record id)
//   ++ constituent byte ++ varint(len) ++ canonical reference
//   ++ flags byte                          (bit 0: payload is snappy compressed)
//   ++ varint(len) ++ payload              (stored form)
//   ++ varint(alias count)
//   ++ [ constituent byte ++ varint(len) ++ reference ]...
//
// The payload never changes once written; only the alias list grows.
package record
