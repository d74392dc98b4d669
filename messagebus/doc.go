// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package messagebus - a bounded queue for inbound packets
//
// producers (transport callbacks) never block: a full queue rejects
// the item and the caller decides whether to count or log the loss
package messagebus
