// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"context"

	"github.com/bitmark-inc/cyclemesh/cycle"
	"github.com/bitmark-inc/cyclemesh/zone"
)

// Receiver - called for every payload arriving from the channel
//
// must not block, the caller may be the transport's only reader
type Receiver func(payload []byte)

//go:generate mockgen -destination=../mocks/transport.go -package=mocks github.com/bitmark-inc/cyclemesh/transport Transport

// Transport - the physical channel
//
// Send returns nil once the payload is acknowledged,
// fault.ErrTransmissionTimeout (or the context error) when it is not
type Transport interface {
	Send(ctx context.Context, z zone.Zone, p cycle.Phase, payload []byte) error
	SetReceiver(r Receiver)
}
