// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store - addressable payload store
//
// every record is reachable by its canonical alias and by any number
// of linked aliases under the path, content and coordinate schemes
//
// records are committed before their aliases are indexed, so after a
// crash the index may lag the records but never the reverse
package store
