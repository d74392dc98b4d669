// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package xref - cross reference index from aliases to record ids
//
// the index is held entirely in the index database and can be
// reconstructed by replaying the records pool in id order
package xref
